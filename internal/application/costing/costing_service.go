package costing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/costing/internal/domain/costing"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/infrastructure/logger"
	"github.com/erp/costing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const serviceName = "costing"

// DefaultCommitRetryAttempts is how many times a confirmation re-matches
// after losing a layer to a concurrent consumer
const DefaultCommitRetryAttempts = 3

// ErrInvalidScope is returned when a request asks for a lot and make-up lines at once
var ErrInvalidScope = shared.NewDomainError("INVALID_SCOPE", "A lot cannot be combined with make-up lines")

// GoodsWriter persists goods master data
type GoodsWriter interface {
	Save(ctx context.Context, goods *costing.Goods) error
}

// GoodsInvalidator drops cached goods after a write
type GoodsInvalidator interface {
	Invalidate(ctx context.Context, id uuid.UUID)
}

// CostingService runs the costing engine against the movement ledger
type CostingService struct {
	repo                costing.MovementLineRepository
	goods               costing.GoodsReader
	engine              *costing.Engine
	precision           costing.Precision
	goodsWriter         GoodsWriter
	invalidator         GoodsInvalidator
	eventPublisher      shared.EventPublisher
	metrics             *telemetry.CostingMetrics
	logger              *zap.Logger
	commitRetryAttempts int
	now                 func() time.Time
}

// NewCostingService creates a new CostingService
func NewCostingService(
	repo costing.MovementLineRepository,
	goods costing.GoodsReader,
	precision costing.Precision,
	logger *zap.Logger,
) *CostingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CostingService{
		repo:                repo,
		goods:               goods,
		engine:              costing.NewEngine(repo, goods, precision),
		precision:           precision,
		logger:              logger,
		commitRetryAttempts: DefaultCommitRetryAttempts,
		now:                 time.Now,
	}
}

// SetEventPublisher sets the publisher for costing events
func (s *CostingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the costing instruments
func (s *CostingService) SetMetrics(metrics *telemetry.CostingMetrics) {
	s.metrics = metrics
}

// SetGoodsWriter enables UpsertGoods
func (s *CostingService) SetGoodsWriter(writer GoodsWriter) {
	s.goodsWriter = writer
}

// SetGoodsInvalidator sets the cache dropped after goods writes
func (s *CostingService) SetGoodsInvalidator(invalidator GoodsInvalidator) {
	s.invalidator = invalidator
}

// SetCommitRetryAttempts bounds the match-and-commit loop of ConfirmOutbound
func (s *CostingService) SetCommitRetryAttempts(attempts int) {
	if attempts < 1 {
		attempts = 1
	}
	s.commitRetryAttempts = attempts
}

// SetClock overrides the completion time source
func (s *CostingService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *CostingService) log(ctx context.Context) *logger.ContextLogger {
	return logger.WithLogger(ctx, s.logger)
}

func (s *CostingService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	// Errors are logged by the event bus, not propagated
	_ = s.eventPublisher.Publish(ctx, events...)
}

// observe records an operation once its named error result is final
func (s *CostingService) observe(ctx context.Context, operation string, started time.Time, err *error) {
	s.metrics.RecordOperation(ctx, operation, started, *err)
}

func (s *CostingService) loadGoods(ctx context.Context, id uuid.UUID) (*costing.Goods, error) {
	goods, err := s.goods.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load goods %s: %w", id, err)
	}
	return goods, nil
}

// Suggest estimates the cost of a quantity without touching the ledger
func (s *CostingService) Suggest(ctx context.Context, req SuggestCostRequest) (resp *CostSuggestionResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "suggest")
	defer span.End()
	defer s.observe(ctx, "suggest", time.Now(), &err)

	telemetry.SetAttributes(span,
		telemetry.SpanAttrGoodsID, req.GoodsID,
		telemetry.SpanAttrWarehouseID, req.WarehouseID,
		telemetry.SpanAttrQuantity, req.Quantity,
		telemetry.SpanAttrLot, req.Lot,
	)

	suggestion, err := s.engine.SuggestCost(ctx, costing.SuggestRequest{
		GoodsID:         req.GoodsID,
		WarehouseDestID: req.WarehouseID,
		Quantity:        req.Quantity,
		Lot:             req.Lot,
		AttributeID:     req.AttributeID,
		ExcludeLineIDs:  req.ExcludeLineIDs,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.metrics.RecordSuggestion(ctx, string(suggestion.Source))
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSource, string(suggestion.Source),
		telemetry.SpanAttrTotalCost, suggestion.TotalCost,
	)

	resp = &CostSuggestionResponse{
		TotalCost: suggestion.TotalCost,
		UnitCost:  suggestion.UnitCost,
		Quantity:  suggestion.Quantity,
		Source:    string(suggestion.Source),
	}
	if suggestion.Match != nil {
		resp.Records = toMatchRecordResponses(suggestion.Match.Records)
	}
	return resp, nil
}

// Match previews which layers a quantity would draw from
func (s *CostingService) Match(ctx context.Context, req MatchCostRequest) (resp *MatchResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "match")
	defer span.End()
	defer s.observe(ctx, "match", time.Now(), &err)

	scope, err := buildScope(req.Lot, req.AllowInsufficient, req.MakeUpLineIDs)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrGoodsID, req.GoodsID,
		telemetry.SpanAttrWarehouseID, req.WarehouseID,
		telemetry.SpanAttrQuantity, req.Quantity,
		telemetry.SpanAttrScope, scopeName(scope),
	)

	result, err := s.engine.Match(ctx, costing.MatchRequest{
		GoodsID:         req.GoodsID,
		WarehouseDestID: req.WarehouseID,
		Quantity:        req.Quantity,
		AttributeID:     req.AttributeID,
		LocationID:      req.LocationID,
		ExcludeLineIDs:  req.ExcludeLineIDs,
		Scope:           scope,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrRecordCount, len(result.Records),
		telemetry.SpanAttrTotalCost, result.TotalCost,
		telemetry.SpanAttrShortage, result.Shortage,
	)
	out := ToMatchResponse(result)
	return &out, nil
}

// Apportion previews how a pool splits over its members
func (s *CostingService) Apportion(ctx context.Context, req ApportionRequest) (resp []AllocationResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "apportion")
	defer span.End()
	defer s.observe(ctx, "apportion", time.Now(), &err)

	members := make([]costing.ApportionMember, len(req.Members))
	for i, m := range req.Members {
		members[i] = costing.ApportionMember{LineID: m.LineID, BasisValue: m.BasisValue, Quantity: m.Quantity}
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTotalCost, req.PoolCost,
		telemetry.SpanAttrMemberCount, len(members),
	)

	allocations, err := s.engine.Apportion(req.PoolCost, members)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return toAllocationResponses(allocations), nil
}

// GetMovement returns one movement line
func (s *CostingService) GetMovement(ctx context.Context, id uuid.UUID) (*MovementLineResponse, error) {
	line, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToMovementLineResponse(line)
	return &resp, nil
}

// CreateMovement records a draft movement line
func (s *CostingService) CreateMovement(ctx context.Context, req CreateMovementRequest) (resp *MovementLineResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "create_movement")
	defer span.End()
	defer s.observe(ctx, "create_movement", time.Now(), &err)

	line, err := costing.NewMovementLine(costing.Direction(req.Direction), req.GoodsID, req.Quantity)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	line.Lot = req.Lot
	line.AttributeID = req.AttributeID
	line.WarehouseID = req.WarehouseID
	line.WarehouseDestID = req.WarehouseDestID
	line.LocationID = req.LocationID
	line.ExpirationDate = req.ExpirationDate

	if req.TotalCost != nil {
		if line.Direction != costing.DirectionIn {
			err = shared.NewDomainError("COST_NOT_ALLOWED", "Only inbound lines carry a cost before completion")
			telemetry.RecordError(span, err)
			return nil, err
		}
		goods, gerr := s.loadGoods(ctx, req.GoodsID)
		if gerr != nil {
			err = gerr
			telemetry.RecordError(span, err)
			return nil, err
		}
		if err = line.SetInboundCost(*req.TotalCost, goods.PrecisionOr(s.precision)); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	if err = s.repo.Create(ctx, line); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to create movement line: %w", err)
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrMovementID, line.ID)
	s.log(ctx).Debug("Movement line created",
		zap.String("movement_id", line.ID.String()),
		zap.String("direction", string(line.Direction)),
		zap.String("goods_id", line.GoodsID.String()),
		zap.String("quantity", line.Quantity.String()),
	)
	out := ToMovementLineResponse(line)
	return &out, nil
}

// CompleteInbound confirms a draft inbound line, opening it as a cost layer
func (s *CostingService) CompleteInbound(ctx context.Context, id uuid.UUID, req CompleteInboundRequest) (resp *MovementLineResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "complete_inbound")
	defer span.End()
	defer s.observe(ctx, "complete_inbound", time.Now(), &err)
	ctx = logger.WithMovementID(ctx, id.String())
	telemetry.SetAttributes(span, telemetry.SpanAttrMovementID, id)

	line, err := s.repo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if line.Direction != costing.DirectionIn {
		err = fmt.Errorf("movement line %s is %s, not inbound: %w", id, line.Direction, shared.ErrInvalidState)
		telemetry.RecordError(span, err)
		return nil, err
	}
	goods, err := s.loadGoods(ctx, line.GoodsID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	p := goods.PrecisionOr(s.precision)

	if req.Lot != nil {
		if err = line.SetLot(*req.Lot); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}
	if req.TotalCost != nil {
		if err = line.SetInboundCost(*req.TotalCost, p); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}
	if err = line.Complete(s.now(), goods, p); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err = s.repo.Save(ctx, line); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save movement line: %w", err)
	}

	s.publish(ctx, costing.NewLayerOpenedEvent(line))
	telemetry.SetAttributes(span,
		telemetry.SpanAttrGoodsID, line.GoodsID,
		telemetry.SpanAttrLot, line.Lot,
		telemetry.SpanAttrTotalCost, line.TotalCost,
	)
	s.log(ctx).Info("Cost layer opened",
		zap.String("goods_id", line.GoodsID.String()),
		zap.String("lot", line.Lot),
		zap.String("quantity", line.Quantity.String()),
		zap.String("unit_cost", line.UnitCost.String()),
	)
	out := ToMovementLineResponse(line)
	return &out, nil
}

// ConfirmOutbound matches a draft out or internal line against open layers,
// commits the layer decrements and the line's cost in one transaction, and
// re-matches from a fresh read when a concurrent consumer wins a layer.
func (s *CostingService) ConfirmOutbound(ctx context.Context, id uuid.UUID, req ConfirmOutboundRequest) (resp *ConfirmOutboundResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "confirm_outbound")
	defer span.End()
	defer s.observe(ctx, "confirm_outbound", time.Now(), &err)
	ctx = logger.WithMovementID(ctx, id.String())
	telemetry.SetAttributes(span, telemetry.SpanAttrMovementID, id)

	line, err := s.repo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err = checkOutgoing(line); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	lot := req.Lot
	if lot == "" {
		lot = line.Lot
	}
	scope, err := buildScope(lot, req.AllowInsufficient, req.MakeUpLineIDs)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	goods, err := s.loadGoods(ctx, line.GoodsID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	p := goods.PrecisionOr(s.precision)

	telemetry.SetAttributes(span,
		telemetry.SpanAttrGoodsID, line.GoodsID,
		telemetry.SpanAttrWarehouseID, *line.WarehouseID,
		telemetry.SpanAttrQuantity, line.Quantity,
		telemetry.SpanAttrScope, scopeName(scope),
	)

	matchReq := costing.MatchRequest{
		GoodsID:         line.GoodsID,
		WarehouseDestID: *line.WarehouseID,
		Quantity:        line.Quantity,
		AttributeID:     line.AttributeID,
		LocationID:      line.LocationID,
		ExcludeLineIDs:  req.ExcludeLineIDs,
		Scope:           scope,
	}

	var (
		match     *costing.MatchResult
		confirmed *costing.MovementLine
		attempt   int
	)
	for attempt = 1; attempt <= s.commitRetryAttempts; attempt++ {
		match, err = s.engine.Match(ctx, matchReq)
		if err != nil {
			if errors.Is(err, shared.ErrInsufficientStock) {
				s.metrics.RecordShortage(ctx, scopeName(scope))
			}
			telemetry.RecordError(span, err)
			return nil, err
		}

		confirmed, err = s.commitMatch(ctx, id, goods, p, match)
		if err == nil {
			break
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			telemetry.RecordError(span, err)
			return nil, err
		}
		s.metrics.RecordCommitConflict(ctx)
		telemetry.AddEvent(span, "commit.conflict", telemetry.SpanAttrAttempt, attempt)
		s.log(ctx).Warn("Layer commit lost to a concurrent update, re-matching",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", s.commitRetryAttempts),
			zap.Error(err),
		)
	}
	if err != nil {
		err = fmt.Errorf("failed to confirm movement line %s after %d attempts: %w", id, s.commitRetryAttempts, err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	if match.Shortage.Sign() > 0 {
		s.metrics.RecordShortage(ctx, scopeName(scope))
	}
	s.publish(ctx, costing.NewLayersConsumedEvent(confirmed, match))
	telemetry.SetAttributes(span,
		telemetry.SpanAttrAttempt, attempt,
		telemetry.SpanAttrRecordCount, len(match.Records),
		telemetry.SpanAttrTotalCost, match.TotalCost,
		telemetry.SpanAttrShortage, match.Shortage,
	)
	s.log(ctx).Info("Movement line confirmed",
		zap.String("goods_id", confirmed.GoodsID.String()),
		zap.String("quantity", confirmed.Quantity.String()),
		zap.String("total_cost", confirmed.TotalCost.String()),
		zap.String("shortage", match.Shortage.String()),
		zap.Int("layers", len(match.Records)),
		zap.Int("attempts", attempt),
	)

	return &ConfirmOutboundResponse{
		Line:     ToMovementLineResponse(confirmed),
		Match:    ToMatchResponse(match),
		Attempts: attempt,
	}, nil
}

// commitMatch applies one match inside a transaction. The line is re-read
// there so a confirmation that raced ahead is reported instead of repeated.
func (s *CostingService) commitMatch(
	ctx context.Context,
	id uuid.UUID,
	goods *costing.Goods,
	p costing.Precision,
	match *costing.MatchResult,
) (*costing.MovementLine, error) {
	var confirmed *costing.MovementLine
	err := s.repo.Transaction(ctx, func(tx costing.MovementLineRepository) error {
		line, err := tx.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := checkOutgoing(line); err != nil {
			return err
		}
		if err := tx.ConsumeLayers(ctx, match.LayerConsumptions()); err != nil {
			return err
		}
		line.ApplyCost(match.TotalCost, p)
		if err := line.Complete(s.now(), goods, p); err != nil {
			return err
		}
		if err := tx.Save(ctx, line); err != nil {
			return err
		}
		confirmed = line
		return nil
	})
	if err != nil {
		return nil, err
	}
	return confirmed, nil
}

// ReleaseLayers gives previously consumed quantity back to layers
func (s *CostingService) ReleaseLayers(ctx context.Context, req ReleaseLayersRequest) (err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "release_layers")
	defer span.End()
	defer s.observe(ctx, "release_layers", time.Now(), &err)

	releases := make([]costing.LayerConsumption, len(req.Records))
	for i, r := range req.Records {
		releases[i] = costing.LayerConsumption{LineID: r.LineID, Quantity: r.Quantity}
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrRecordCount, len(releases))

	if err = s.repo.ReleaseLayers(ctx, releases); err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("failed to release layers: %w", err)
	}
	s.log(ctx).Info("Layers released", zap.Int("layers", len(releases)))
	return nil
}

// FinalizeJointOperation pools the cost of an assembly, disassembly or
// outsourcing run, splits it over the draft inbound outputs and completes
// them as cost layers in one transaction.
func (s *CostingService) FinalizeJointOperation(ctx context.Context, req FinalizeJointOperationRequest) (resp *JointOperationResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "finalize_joint_operation")
	defer span.End()
	defer s.observe(ctx, "finalize_joint_operation", time.Now(), &err)

	opID := req.ID
	if opID == uuid.Nil {
		opID = uuid.New()
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOperationID, opID,
		telemetry.SpanAttrOperationKind, req.Kind,
		telemetry.SpanAttrMemberCount, len(req.Outputs),
	)

	inputCost, err := s.inputCost(ctx, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	outputIDs := make([]uuid.UUID, len(req.Outputs))
	for i, o := range req.Outputs {
		outputIDs[i] = o.LineID
	}
	outputs, err := s.loadLines(ctx, outputIDs)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	members := make([]costing.ApportionMember, len(req.Outputs))
	goodsByLine := make(map[uuid.UUID]*costing.Goods, len(req.Outputs))
	for i, o := range req.Outputs {
		line := outputs[o.LineID]
		if line.Direction != costing.DirectionIn || line.IsDone() {
			err = fmt.Errorf("output line %s must be a draft inbound line: %w", line.ID, shared.ErrInvalidState)
			telemetry.RecordError(span, err)
			return nil, err
		}
		goods, gerr := s.loadGoods(ctx, line.GoodsID)
		if gerr != nil {
			err = gerr
			telemetry.RecordError(span, err)
			return nil, err
		}
		goodsByLine[line.ID] = goods
		members[i] = costing.ApportionMember{
			LineID:     line.ID,
			BasisValue: basisValue(o.BasisValue, line, goods),
			Quantity:   line.Quantity,
		}
	}

	op := &costing.JointOperation{
		ID:        opID,
		Kind:      costing.JointKind(req.Kind),
		InputCost: inputCost,
		Fee:       req.Fee,
		Tax:       req.Tax,
		Outputs:   members,
	}
	p := s.jointPrecision(goodsByLine)
	allocations, err := op.Apportion(costing.NewApportioner(p))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	completed := make([]*costing.MovementLine, 0, len(allocations))
	err = s.repo.Transaction(ctx, func(tx costing.MovementLineRepository) error {
		at := s.now()
		for _, a := range allocations {
			line, err := tx.FindByID(ctx, a.LineID)
			if err != nil {
				return err
			}
			goods := goodsByLine[a.LineID]
			lp := goods.PrecisionOr(s.precision)
			if err := line.SetAllocatedCost(a.AllocatedCost, lp); err != nil {
				return err
			}
			if err := line.Complete(at, goods, lp); err != nil {
				return err
			}
			if err := tx.Save(ctx, line); err != nil {
				return err
			}
			completed = append(completed, line)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to write back joint operation %s: %w", opID, err)
	}

	events := make([]shared.DomainEvent, 0, len(completed)+1)
	pool := op.PoolCostAt(p)
	events = append(events, costing.NewCostsApportionedEvent(op, pool, allocations))
	lines := make([]MovementLineResponse, len(completed))
	for i, line := range completed {
		events = append(events, costing.NewLayerOpenedEvent(line))
		lines[i] = ToMovementLineResponse(line)
	}
	s.publish(ctx, events...)

	telemetry.SetAttributes(span, telemetry.SpanAttrTotalCost, pool)
	s.log(ctx).Info("Joint operation costs apportioned",
		zap.String("operation_id", opID.String()),
		zap.String("kind", req.Kind),
		zap.String("pool_cost", pool.String()),
		zap.Int("outputs", len(allocations)),
	)

	return &JointOperationResponse{
		ID:          opID,
		Kind:        req.Kind,
		PoolCost:    pool,
		Allocations: toAllocationResponses(allocations),
		Lines:       lines,
	}, nil
}

// jointPrecision is the coarsest precision among the outputs' goods, so every
// allocation is representable on every output line without rounding again
func (s *CostingService) jointPrecision(goodsByLine map[uuid.UUID]*costing.Goods) costing.Precision {
	var p costing.Precision
	first := true
	for _, goods := range goodsByLine {
		gp := goods.PrecisionOr(s.precision)
		if first {
			p, first = gp, false
			continue
		}
		p.Quantity = min(p.Quantity, gp.Quantity)
		p.Cost = min(p.Cost, gp.Cost)
		p.UnitCost = min(p.UnitCost, gp.UnitCost)
	}
	if first {
		return s.precision
	}
	return p
}

// inputCost adds the confirmed cost of the listed input lines to the given input cost
func (s *CostingService) inputCost(ctx context.Context, req FinalizeJointOperationRequest) (decimal.Decimal, error) {
	total := req.InputCost
	if len(req.InputLineIDs) == 0 {
		return total, nil
	}
	inputs, err := s.loadLines(ctx, req.InputLineIDs)
	if err != nil {
		return decimal.Zero, err
	}
	for _, id := range req.InputLineIDs {
		line := inputs[id]
		if line.Direction == costing.DirectionIn || !line.IsDone() {
			return decimal.Zero, fmt.Errorf("input line %s must be a confirmed outgoing line: %w", id, shared.ErrInvalidState)
		}
		total = total.Add(line.TotalCost)
	}
	return total, nil
}

func (s *CostingService) loadLines(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*costing.MovementLine, error) {
	rows, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load movement lines: %w", err)
	}
	byID := make(map[uuid.UUID]*costing.MovementLine, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("movement line %s: %w", id, shared.ErrNotFound)
		}
	}
	return byID, nil
}

// UpsertGoods creates or replaces goods master data and drops its cache entry
func (s *CostingService) UpsertGoods(ctx context.Context, id uuid.UUID, req UpsertGoodsRequest) (resp *GoodsResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "upsert_goods")
	defer span.End()
	defer s.observe(ctx, "upsert_goods", time.Now(), &err)
	telemetry.SetAttributes(span, telemetry.SpanAttrGoodsID, id)

	if s.goodsWriter == nil {
		err = fmt.Errorf("goods master data is read-only: %w", shared.ErrInvalidState)
		telemetry.RecordError(span, err)
		return nil, err
	}

	goods := &costing.Goods{
		ID:               id,
		Code:             req.Code,
		Name:             req.Name,
		ConversionFactor: req.ConversionFactor,
		LotTracked:       req.LotTracked,
		ForceBatchOne:    req.ForceBatchOne,
		StandardCost:     req.StandardCost,
	}
	if req.Precision != nil {
		goods.Precision = &costing.Precision{
			Quantity: req.Precision.Quantity,
			Cost:     req.Precision.Cost,
			UnitCost: req.Precision.UnitCost,
		}
	}

	if err = s.goodsWriter.Save(ctx, goods); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save goods: %w", err)
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, goods.ID)
	}

	s.log(ctx).Info("Goods saved",
		zap.String("goods_id", goods.ID.String()),
		zap.String("code", goods.Code),
		zap.Bool("lot_tracked", goods.LotTracked),
	)
	out := ToGoodsResponse(goods)
	return &out, nil
}

// GetGoods returns goods master data
func (s *CostingService) GetGoods(ctx context.Context, id uuid.UUID) (*GoodsResponse, error) {
	goods, err := s.goods.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToGoodsResponse(goods)
	return &resp, nil
}

func checkOutgoing(line *costing.MovementLine) error {
	if line.Direction == costing.DirectionIn {
		return fmt.Errorf("movement line %s is inbound: %w", line.ID, shared.ErrInvalidState)
	}
	if line.IsDone() {
		return shared.NewDomainError("ALREADY_DONE", "Movement line is already completed")
	}
	if line.WarehouseID == nil {
		return shared.NewDomainError("INVALID_WAREHOUSE", "Outgoing line needs a source warehouse")
	}
	return nil
}

// buildScope picks the match scope a request describes. No lot and no
// make-up lines is the standard scope.
func buildScope(lot string, allowInsufficient bool, makeUpLineIDs []uuid.UUID) (costing.MatchScope, error) {
	switch {
	case lot != "" && len(makeUpLineIDs) > 0:
		return nil, ErrInvalidScope
	case lot != "":
		return costing.LotScope{Lot: lot, AllowInsufficient: allowInsufficient}, nil
	case len(makeUpLineIDs) > 0:
		return costing.ShortageScope{MakeUpLineIDs: makeUpLineIDs}, nil
	}
	return costing.StandardScope{}, nil
}

func scopeName(scope costing.MatchScope) string {
	switch scope.(type) {
	case costing.LotScope:
		return "lot"
	case costing.ShortageScope:
		return "shortage"
	}
	return "standard"
}

// basisValue is the explicit basis, else the line's provisional total cost,
// else its quantity at the goods' standard cost
func basisValue(explicit *decimal.Decimal, line *costing.MovementLine, goods *costing.Goods) decimal.Decimal {
	if explicit != nil {
		return *explicit
	}
	if !line.TotalCost.IsZero() {
		return line.TotalCost
	}
	return line.Quantity.Mul(goods.StandardCost)
}
