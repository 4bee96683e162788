package handler

import (
	costingapp "github.com/erp/costing/internal/application/costing"
	"github.com/erp/costing/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// CostingHandler exposes cost matching, apportionment and movement-line
// costing over HTTP
type CostingHandler struct {
	BaseHandler
	costingService *costingapp.CostingService
}

// NewCostingHandler creates a new CostingHandler
func NewCostingHandler(costingService *costingapp.CostingService) *CostingHandler {
	return &CostingHandler{
		costingService: costingService,
	}
}

// Routes builds the costing route group
func (h *CostingHandler) Routes() *router.DomainGroup {
	return router.NewDomainGroup("costing", "/costing").
		POST("/suggest", h.Suggest).
		POST("/match", h.Match).
		POST("/apportion", h.Apportion).
		POST("/movements", h.CreateMovement).
		GET("/movements/:id", h.GetMovement).
		POST("/movements/:id/complete", h.CompleteInbound).
		POST("/movements/:id/confirm", h.ConfirmOutbound).
		POST("/releases", h.ReleaseLayers).
		POST("/joint-operations", h.FinalizeJointOperation).
		PUT("/goods/:id", h.UpsertGoods).
		GET("/goods/:id", h.GetGoods)
}

// Suggest godoc
// @Summary      Suggest a cost for a quantity
// @Description  Standard cost, open layers or blended, without touching the ledger
// @Tags         costing
// @Accept       json
// @Produce      json
// @Param        request body costingapp.SuggestCostRequest true "Suggestion request"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /costing/suggest [post]
func (h *CostingHandler) Suggest(c *gin.Context) {
	var req costingapp.SuggestCostRequest
	if !h.bindJSON(c, &req) {
		return
	}

	suggestion, err := h.costingService.Suggest(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, suggestion)
}

// Match godoc
// @Summary      Preview layer matching
// @Description  Runs FIFO, lot or shortage matching read-only
// @Tags         costing
// @Accept       json
// @Produce      json
// @Param        request body costingapp.MatchCostRequest true "Match request"
// @Success      200 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /costing/match [post]
func (h *CostingHandler) Match(c *gin.Context) {
	var req costingapp.MatchCostRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.costingService.Match(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Apportion godoc
// @Summary      Preview a pool split
// @Tags         costing
// @Accept       json
// @Produce      json
// @Param        request body costingapp.ApportionRequest true "Pool and members"
// @Success      200 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /costing/apportion [post]
func (h *CostingHandler) Apportion(c *gin.Context) {
	var req costingapp.ApportionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	allocations, err := h.costingService.Apportion(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, allocations)
}

// CreateMovement godoc
// @Summary      Create a draft movement line
// @Tags         costing
// @Accept       json
// @Produce      json
// @Param        request body costingapp.CreateMovementRequest true "Movement line"
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Router       /costing/movements [post]
func (h *CostingHandler) CreateMovement(c *gin.Context) {
	var req costingapp.CreateMovementRequest
	if !h.bindJSON(c, &req) {
		return
	}

	line, err := h.costingService.CreateMovement(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, line)
}

// GetMovement godoc
// @Summary      Get a movement line
// @Tags         costing
// @Produce      json
// @Param        id path string true "Movement line ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /costing/movements/{id} [get]
func (h *CostingHandler) GetMovement(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	line, err := h.costingService.GetMovement(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, line)
}

// CompleteInbound godoc
// @Summary      Complete an inbound line
// @Description  Fixes cost and lot, and opens the line as a cost layer
// @Tags         costing
// @Accept       json
// @Produce      json
// @Param        id path string true "Movement line ID" format(uuid)
// @Param        request body costingapp.CompleteInboundRequest false "Cost and lot overrides"
// @Success      200 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /costing/movements/{id}/complete [post]
func (h *CostingHandler) CompleteInbound(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	var req costingapp.CompleteInboundRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	line, err := h.costingService.CompleteInbound(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, line)
}

// ConfirmOutbound godoc
// @Summary      Confirm an outgoing line
// @Description  Matches, consumes layers and completes the line in one transaction
// @Tags         costing
// @Accept       json
// @Produce      json
// @Param        id path string true "Movement line ID" format(uuid)
// @Param        request body costingapp.ConfirmOutboundRequest false "Scope"
// @Success      200 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /costing/movements/{id}/confirm [post]
func (h *CostingHandler) ConfirmOutbound(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	var req costingapp.ConfirmOutboundRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	result, err := h.costingService.ConfirmOutbound(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ReleaseLayers godoc
// @Summary      Return quantity to consumed layers
// @Tags         costing
// @Accept       json
// @Produce      json
// @Param        request body costingapp.ReleaseLayersRequest true "Records to release"
// @Success      200 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /costing/releases [post]
func (h *CostingHandler) ReleaseLayers(c *gin.Context) {
	var req costingapp.ReleaseLayersRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.costingService.ReleaseLayers(c.Request.Context(), req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"released": len(req.Records)})
}

// FinalizeJointOperation godoc
// @Summary      Apportion a joint operation
// @Description  Splits input cost, fee and tax over draft inbound outputs and completes them
// @Tags         costing
// @Accept       json
// @Produce      json
// @Param        request body costingapp.FinalizeJointOperationRequest true "Joint operation"
// @Success      200 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /costing/joint-operations [post]
func (h *CostingHandler) FinalizeJointOperation(c *gin.Context) {
	var req costingapp.FinalizeJointOperationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.costingService.FinalizeJointOperation(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// UpsertGoods godoc
// @Summary      Create or replace goods costing data
// @Tags         costing
// @Accept       json
// @Produce      json
// @Param        id path string true "Goods ID" format(uuid)
// @Param        request body costingapp.UpsertGoodsRequest true "Goods"
// @Success      200 {object} dto.Response
// @Router       /costing/goods/{id} [put]
func (h *CostingHandler) UpsertGoods(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	var req costingapp.UpsertGoodsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	goods, err := h.costingService.UpsertGoods(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, goods)
}

// GetGoods godoc
// @Summary      Get goods costing data
// @Tags         costing
// @Produce      json
// @Param        id path string true "Goods ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /costing/goods/{id} [get]
func (h *CostingHandler) GetGoods(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	goods, err := h.costingService.GetGoods(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, goods)
}
