package costing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/erp/costing/internal/domain/costing"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{
		events: make([]shared.DomainEvent, 0),
	}
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

// racingLedger runs race once before the first transaction, standing in for
// a concurrent consumer that commits between match and commit
type racingLedger struct {
	*persistence.InMemoryLedger
	race  func()
	calls int
}

func (r *racingLedger) Transaction(ctx context.Context, fn func(repo costing.MovementLineRepository) error) error {
	r.calls++
	if race := r.race; race != nil {
		r.race = nil
		race()
	}
	return r.InMemoryLedger.Transaction(ctx, fn)
}

// contendedLedger loses every commit
type contendedLedger struct {
	*persistence.InMemoryLedger
	calls int
}

func (c *contendedLedger) Transaction(context.Context, func(repo costing.MovementLineRepository) error) error {
	c.calls++
	return fmt.Errorf("consume from layer: %w", shared.ErrConcurrencyConflict)
}

type recordingInvalidator struct {
	ids []uuid.UUID
}

func (r *recordingInvalidator) Invalidate(_ context.Context, id uuid.UUID) {
	r.ids = append(r.ids, id)
}

type fixture struct {
	ledger    *persistence.InMemoryLedger
	goods     *persistence.InMemoryGoodsStore
	publisher *MockEventPublisher
	service   *CostingService
	warehouse uuid.UUID
	clock     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ledger:    persistence.NewInMemoryLedger(),
		goods:     persistence.NewInMemoryGoodsStore(),
		publisher: NewMockEventPublisher(),
		warehouse: uuid.New(),
		clock:     time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}
	f.service = f.newService(f.ledger)
	return f
}

func (f *fixture) newService(repo costing.MovementLineRepository) *CostingService {
	svc := NewCostingService(repo, f.goods, costing.DefaultPrecision, zap.NewNop())
	svc.SetEventPublisher(f.publisher)
	svc.SetClock(func() time.Time {
		f.clock = f.clock.Add(time.Minute)
		return f.clock
	})
	return svc
}

func (f *fixture) addGoods(t *testing.T, mutate func(g *costing.Goods)) uuid.UUID {
	t.Helper()
	g := &costing.Goods{ID: uuid.New(), Code: "G-" + uuid.NewString()[:8], Name: "Widget"}
	if mutate != nil {
		mutate(g)
	}
	require.NoError(t, f.goods.Save(context.Background(), g))
	return g.ID
}

// receive creates and completes an inbound line, opening a cost layer
func (f *fixture) receive(t *testing.T, goodsID uuid.UUID, qty, total, lot string) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	cost := decimal.RequireFromString(total)
	line, err := f.service.CreateMovement(ctx, CreateMovementRequest{
		Direction:       string(costing.DirectionIn),
		GoodsID:         goodsID,
		Quantity:        decimal.RequireFromString(qty),
		Lot:             lot,
		WarehouseDestID: &f.warehouse,
		TotalCost:       &cost,
	})
	require.NoError(t, err)
	_, err = f.service.CompleteInbound(ctx, line.ID, CompleteInboundRequest{})
	require.NoError(t, err)
	return line.ID
}

func (f *fixture) draftOut(t *testing.T, goodsID uuid.UUID, qty, lot string) uuid.UUID {
	t.Helper()
	line, err := f.service.CreateMovement(context.Background(), CreateMovementRequest{
		Direction:   string(costing.DirectionOut),
		GoodsID:     goodsID,
		Quantity:    decimal.RequireFromString(qty),
		Lot:         lot,
		WarehouseID: &f.warehouse,
	})
	require.NoError(t, err)
	return line.ID
}

func (f *fixture) remaining(t *testing.T, id uuid.UUID) decimal.Decimal {
	t.Helper()
	line, err := f.ledger.FindByID(context.Background(), id)
	require.NoError(t, err)
	return line.RemainingQuantity
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCostingService_CompleteInbound(t *testing.T) {
	f := newFixture(t)
	goodsID := f.addGoods(t, nil)

	layerID := f.receive(t, goodsID, "8", "100", "")

	line, err := f.ledger.FindByID(context.Background(), layerID)
	require.NoError(t, err)
	assert.True(t, line.IsCostLayer())
	assert.True(t, line.RemainingQuantity.Equal(dec("8")))
	assert.True(t, line.UnitCost.Equal(dec("12.5")))
	assert.NotNil(t, line.CompletionTime)
	assert.Equal(t, 2, line.Version)

	opened := f.publisher.GetEventsByType(costing.EventTypeLayerOpened)
	require.Len(t, opened, 1)
	assert.Equal(t, layerID, opened[0].AggregateID())
}

func TestCostingService_CompleteInbound_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("lot tracked goods need a lot", func(t *testing.T) {
		f := newFixture(t)
		goodsID := f.addGoods(t, func(g *costing.Goods) { g.LotTracked = true })
		line, err := f.service.CreateMovement(ctx, CreateMovementRequest{
			Direction:       "in",
			GoodsID:         goodsID,
			Quantity:        dec("2"),
			WarehouseDestID: &f.warehouse,
		})
		require.NoError(t, err)

		_, err = f.service.CompleteInbound(ctx, line.ID, CompleteInboundRequest{})
		assert.ErrorIs(t, err, costing.ErrLotRequired)

		lot := "LOT-1"
		total := dec("20")
		done, err := f.service.CompleteInbound(ctx, line.ID, CompleteInboundRequest{Lot: &lot, TotalCost: &total})
		require.NoError(t, err)
		assert.Equal(t, "LOT-1", done.Lot)
		assert.True(t, done.UnitCost.Equal(dec("10")))
	})

	t.Run("outgoing line is rejected", func(t *testing.T) {
		f := newFixture(t)
		goodsID := f.addGoods(t, nil)
		id := f.draftOut(t, goodsID, "1", "")

		_, err := f.service.CompleteInbound(ctx, id, CompleteInboundRequest{})
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("completed twice", func(t *testing.T) {
		f := newFixture(t)
		goodsID := f.addGoods(t, nil)
		id := f.receive(t, goodsID, "1", "3", "")

		_, err := f.service.CompleteInbound(ctx, id, CompleteInboundRequest{})
		assert.Equal(t, "ALREADY_DONE", shared.ErrorCode(err))
	})

	t.Run("force batch one", func(t *testing.T) {
		f := newFixture(t)
		goodsID := f.addGoods(t, func(g *costing.Goods) { g.ForceBatchOne = true })
		line, err := f.service.CreateMovement(ctx, CreateMovementRequest{
			Direction:       "in",
			GoodsID:         goodsID,
			Quantity:        dec("2"),
			WarehouseDestID: &f.warehouse,
		})
		require.NoError(t, err)

		_, err = f.service.CompleteInbound(ctx, line.ID, CompleteInboundRequest{})
		assert.ErrorIs(t, err, shared.ErrInvalidQuantity)
	})
}

func TestCostingService_CreateMovement_CostOnlyOnInbound(t *testing.T) {
	f := newFixture(t)
	goodsID := f.addGoods(t, nil)
	cost := dec("5")

	_, err := f.service.CreateMovement(context.Background(), CreateMovementRequest{
		Direction:   "out",
		GoodsID:     goodsID,
		Quantity:    dec("1"),
		WarehouseID: &f.warehouse,
		TotalCost:   &cost,
	})
	assert.Equal(t, "COST_NOT_ALLOWED", shared.ErrorCode(err))
}

func TestCostingService_ConfirmOutbound_FIFO(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	goodsID := f.addGoods(t, nil)
	older := f.receive(t, goodsID, "10", "100", "")
	newer := f.receive(t, goodsID, "10", "150", "")
	outID := f.draftOut(t, goodsID, "15", "")

	resp, err := f.service.ConfirmOutbound(ctx, outID, ConfirmOutboundRequest{})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Attempts)
	assert.Equal(t, "done", resp.Line.State)
	assert.True(t, resp.Line.TotalCost.Equal(dec("175")), "10 x 10 + 5 x 15")
	assert.True(t, resp.Line.UnitCost.Equal(dec("11.666667")))
	require.Len(t, resp.Match.Records, 2)
	assert.Equal(t, older, resp.Match.Records[0].SourceLineID)
	assert.Equal(t, newer, resp.Match.Records[1].SourceLineID)
	assert.True(t, resp.Match.Shortage.IsZero())

	assert.True(t, f.remaining(t, older).IsZero())
	assert.True(t, f.remaining(t, newer).Equal(dec("5")))

	consumed := f.publisher.GetEventsByType(costing.EventTypeLayersConsumed)
	require.Len(t, consumed, 1)
	event, ok := consumed[0].(*costing.LayersConsumedEvent)
	require.True(t, ok)
	assert.True(t, event.TotalCost.Equal(dec("175")))

	_, err = f.service.ConfirmOutbound(ctx, outID, ConfirmOutboundRequest{})
	assert.Equal(t, "ALREADY_DONE", shared.ErrorCode(err))
}

func TestCostingService_ConfirmOutbound_InsufficientStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	goodsID := f.addGoods(t, nil)
	layerID := f.receive(t, goodsID, "4", "40", "")
	outID := f.draftOut(t, goodsID, "6", "")

	_, err := f.service.ConfirmOutbound(ctx, outID, ConfirmOutboundRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	var insufficient *costing.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.True(t, insufficient.Shortfall().Equal(dec("2")))

	assert.True(t, f.remaining(t, layerID).Equal(dec("4")), "failed confirmation consumes nothing")
	line, err := f.ledger.FindByID(ctx, outID)
	require.NoError(t, err)
	assert.False(t, line.IsDone())
}

func TestCostingService_SubPrecisionQuantityIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	goodsID := f.addGoods(t, nil)
	layerID := f.receive(t, goodsID, "4", "40", "")

	t.Run("confirm outbound", func(t *testing.T) {
		outID := f.draftOut(t, goodsID, "0.00001", "")

		_, err := f.service.ConfirmOutbound(ctx, outID, ConfirmOutboundRequest{})

		var invalid *costing.InvalidQuantityError
		require.ErrorAs(t, err, &invalid)
		assert.ErrorIs(t, err, shared.ErrInvalidQuantity)
		line, err := f.ledger.FindByID(ctx, outID)
		require.NoError(t, err)
		assert.False(t, line.IsDone())
		assert.True(t, f.remaining(t, layerID).Equal(dec("4")))
	})

	t.Run("complete inbound", func(t *testing.T) {
		line, err := f.service.CreateMovement(ctx, CreateMovementRequest{
			Direction: "in", GoodsID: goodsID, Quantity: dec("0.00004"), WarehouseDestID: &f.warehouse,
		})
		require.NoError(t, err)

		_, err = f.service.CompleteInbound(ctx, line.ID, CompleteInboundRequest{})

		assert.ErrorIs(t, err, shared.ErrInvalidQuantity)
	})

	t.Run("suggest", func(t *testing.T) {
		_, err := f.service.Suggest(ctx, SuggestCostRequest{GoodsID: goodsID, WarehouseID: f.warehouse, Quantity: dec("0.00001")})

		assert.ErrorIs(t, err, shared.ErrInvalidQuantity)
	})
}

func TestCostingService_ConfirmOutbound_LotScope(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	goodsID := f.addGoods(t, func(g *costing.Goods) { g.LotTracked = true })
	f.receive(t, goodsID, "5", "40", "LOT-A")
	lotB := f.receive(t, goodsID, "5", "50", "LOT-B")

	noLot := f.draftOut(t, goodsID, "1", "")
	_, err := f.service.ConfirmOutbound(ctx, noLot, ConfirmOutboundRequest{})
	assert.ErrorIs(t, err, costing.ErrLotRequired)

	outID := f.draftOut(t, goodsID, "3", "LOT-B")
	resp, err := f.service.ConfirmOutbound(ctx, outID, ConfirmOutboundRequest{})
	require.NoError(t, err)
	assert.True(t, resp.Line.TotalCost.Equal(dec("30")))
	require.Len(t, resp.Match.Records, 1)
	assert.Equal(t, lotB, resp.Match.Records[0].SourceLineID)
	assert.True(t, f.remaining(t, lotB).Equal(dec("2")))
}

func TestCostingService_LotReceivedAgainAfterUsedUp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	goodsID := f.addGoods(t, func(g *costing.Goods) { g.LotTracked = true })
	first := f.receive(t, goodsID, "2", "20", "X")
	drain := f.draftOut(t, goodsID, "2", "X")
	_, err := f.service.ConfirmOutbound(ctx, drain, ConfirmOutboundRequest{})
	require.NoError(t, err)
	second := f.receive(t, goodsID, "5", "40", "X")

	resp, err := f.service.Suggest(ctx, SuggestCostRequest{GoodsID: goodsID, WarehouseID: f.warehouse, Quantity: dec("3"), Lot: "X"})
	require.NoError(t, err)
	assert.Equal(t, string(costing.SourceLot), resp.Source)
	assert.True(t, resp.TotalCost.Equal(dec("24")), "total %s", resp.TotalCost)

	outID := f.draftOut(t, goodsID, "3", "X")
	confirmed, err := f.service.ConfirmOutbound(ctx, outID, ConfirmOutboundRequest{})
	require.NoError(t, err)
	require.Len(t, confirmed.Match.Records, 1)
	assert.Equal(t, second, confirmed.Match.Records[0].SourceLineID)
	assert.True(t, f.remaining(t, second).Equal(dec("2")))
	assert.True(t, f.remaining(t, first).IsZero())
}

func TestCostingService_ConfirmOutbound_LotAllowInsufficient(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	goodsID := f.addGoods(t, func(g *costing.Goods) { g.LotTracked = true })
	lot := f.receive(t, goodsID, "2", "20", "LOT-A")
	outID := f.draftOut(t, goodsID, "5", "")

	resp, err := f.service.ConfirmOutbound(ctx, outID, ConfirmOutboundRequest{Lot: "LOT-A", AllowInsufficient: true})
	require.NoError(t, err)
	assert.True(t, resp.Match.Shortage.Equal(dec("3")))
	assert.True(t, resp.Line.TotalCost.Equal(dec("50")), "shortage is priced at the lot cost")
	assert.True(t, f.remaining(t, lot).IsZero())
}

func TestCostingService_ConfirmOutbound_MakeUpShortage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	goodsID := f.addGoods(t, nil)
	layerID := f.receive(t, goodsID, "4", "40", "")

	makeUpCost := dec("72")
	makeUp, err := f.service.CreateMovement(ctx, CreateMovementRequest{
		Direction:       "in",
		GoodsID:         goodsID,
		Quantity:        dec("6"),
		WarehouseDestID: &f.warehouse,
		TotalCost:       &makeUpCost,
	})
	require.NoError(t, err)
	outID := f.draftOut(t, goodsID, "10", "")

	resp, err := f.service.ConfirmOutbound(ctx, outID, ConfirmOutboundRequest{MakeUpLineIDs: []uuid.UUID{makeUp.ID}})
	require.NoError(t, err)

	require.Len(t, resp.Match.Records, 2)
	assert.False(t, resp.Match.Records[0].MakeUp)
	assert.True(t, resp.Match.Records[1].MakeUp)
	assert.Equal(t, makeUp.ID, resp.Match.Records[1].SourceLineID)
	assert.True(t, resp.Match.Shortage.Equal(dec("6")))
	assert.True(t, resp.Line.TotalCost.Equal(dec("112")), "4 x 10 + 6 x 12")

	assert.True(t, f.remaining(t, layerID).IsZero())
	draft, err := f.ledger.FindByID(ctx, makeUp.ID)
	require.NoError(t, err)
	assert.False(t, draft.IsDone(), "make-up line is not consumed")
}

func TestCostingService_ConfirmOutbound_DoneMakeUpLineIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	goodsID := f.addGoods(t, nil)
	used := f.receive(t, goodsID, "2", "20", "")
	drain := f.draftOut(t, goodsID, "2", "")
	_, err := f.service.ConfirmOutbound(ctx, drain, ConfirmOutboundRequest{})
	require.NoError(t, err)
	f.receive(t, goodsID, "1", "10", "")

	outID := f.draftOut(t, goodsID, "3", "")
	_, err = f.service.ConfirmOutbound(ctx, outID, ConfirmOutboundRequest{MakeUpLineIDs: []uuid.UUID{used}})

	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	line, err := f.ledger.FindByID(ctx, outID)
	require.NoError(t, err)
	assert.False(t, line.IsDone())
}

func TestCostingService_ConfirmOutbound_InvalidScope(t *testing.T) {
	f := newFixture(t)
	goodsID := f.addGoods(t, nil)
	outID := f.draftOut(t, goodsID, "1", "")

	_, err := f.service.ConfirmOutbound(context.Background(), outID, ConfirmOutboundRequest{
		Lot:           "LOT-A",
		MakeUpLineIDs: []uuid.UUID{uuid.New()},
	})
	assert.ErrorIs(t, err, ErrInvalidScope)
}

func TestCostingService_ConfirmOutbound_RetriesAfterConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	goodsID := f.addGoods(t, nil)
	older := f.receive(t, goodsID, "10", "100", "")
	newer := f.receive(t, goodsID, "10", "150", "")
	outID := f.draftOut(t, goodsID, "5", "")

	racing := &racingLedger{InMemoryLedger: f.ledger}
	racing.race = func() {
		require.NoError(t, f.ledger.ConsumeLayers(ctx, []costing.LayerConsumption{
			{LineID: older, Quantity: dec("8")},
		}))
	}
	svc := f.newService(racing)

	resp, err := svc.ConfirmOutbound(ctx, outID, ConfirmOutboundRequest{})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Attempts)
	assert.Equal(t, 2, racing.calls)
	assert.True(t, resp.Line.TotalCost.Equal(dec("65")), "re-matched: 2 x 10 + 3 x 15")
	assert.True(t, f.remaining(t, older).IsZero())
	assert.True(t, f.remaining(t, newer).Equal(dec("7")))
}

func TestCostingService_ConfirmOutbound_RetriesExhausted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	goodsID := f.addGoods(t, nil)
	layerID := f.receive(t, goodsID, "10", "100", "")
	outID := f.draftOut(t, goodsID, "5", "")

	contended := &contendedLedger{InMemoryLedger: f.ledger}
	svc := f.newService(contended)
	svc.SetCommitRetryAttempts(2)

	_, err := svc.ConfirmOutbound(ctx, outID, ConfirmOutboundRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.Equal(t, 2, contended.calls)
	assert.True(t, f.remaining(t, layerID).Equal(dec("10")))
}

func TestCostingService_ConfirmOutbound_ConcurrentConfirmationsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	goodsID := f.addGoods(t, nil)
	layer := f.receive(t, goodsID, "10", "100", "")
	outs := []uuid.UUID{f.draftOut(t, goodsID, "6", ""), f.draftOut(t, goodsID, "6", "")}

	// the fixture clock is not goroutine-safe
	svc := NewCostingService(f.ledger, f.goods, costing.DefaultPrecision, zap.NewNop())
	svc.SetEventPublisher(f.publisher)

	var wg sync.WaitGroup
	errs := make([]error, len(outs))
	for i, id := range outs {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			_, errs[i] = svc.ConfirmOutbound(ctx, id, ConfirmOutboundRequest{})
		}(i, id)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	}
	assert.Equal(t, 1, succeeded)
	assert.True(t, f.remaining(t, layer).Equal(dec("4")))
	assert.Len(t, f.publisher.GetEventsByType(costing.EventTypeLayersConsumed), 1)
}

func TestCostingService_ConfirmOutbound_RejectsInbound(t *testing.T) {
	f := newFixture(t)
	goodsID := f.addGoods(t, nil)
	inID := f.receive(t, goodsID, "1", "1", "")

	_, err := f.service.ConfirmOutbound(context.Background(), inID, ConfirmOutboundRequest{})
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestCostingService_ReleaseLayers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	goodsID := f.addGoods(t, nil)
	layerID := f.receive(t, goodsID, "10", "100", "")
	outID := f.draftOut(t, goodsID, "6", "")
	_, err := f.service.ConfirmOutbound(ctx, outID, ConfirmOutboundRequest{})
	require.NoError(t, err)

	err = f.service.ReleaseLayers(ctx, ReleaseLayersRequest{
		Records: []LayerReleaseRequest{{LineID: layerID, Quantity: dec("6")}},
	})
	require.NoError(t, err)
	assert.True(t, f.remaining(t, layerID).Equal(dec("10")))

	err = f.service.ReleaseLayers(ctx, ReleaseLayersRequest{
		Records: []LayerReleaseRequest{{LineID: layerID, Quantity: dec("1")}},
	})
	assert.Equal(t, "RELEASE_EXCEEDS_QUANTITY", shared.ErrorCode(err))
}

func TestCostingService_Suggest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	goodsID := f.addGoods(t, func(g *costing.Goods) { g.StandardCost = dec("7") })

	resp, err := f.service.Suggest(ctx, SuggestCostRequest{GoodsID: goodsID, WarehouseID: f.warehouse, Quantity: dec("2")})
	require.NoError(t, err)
	assert.Equal(t, string(costing.SourceStandardCost), resp.Source)
	assert.True(t, resp.TotalCost.Equal(dec("14")))

	f.receive(t, goodsID, "3", "30", "")
	resp, err = f.service.Suggest(ctx, SuggestCostRequest{GoodsID: goodsID, WarehouseID: f.warehouse, Quantity: dec("2")})
	require.NoError(t, err)
	assert.Equal(t, string(costing.SourceLayers), resp.Source)
	assert.True(t, resp.TotalCost.Equal(dec("20")))
	assert.Len(t, resp.Records, 1)

	resp, err = f.service.Suggest(ctx, SuggestCostRequest{GoodsID: goodsID, WarehouseID: f.warehouse, Quantity: dec("5")})
	require.NoError(t, err)
	assert.Equal(t, string(costing.SourceBlended), resp.Source)
	assert.True(t, resp.TotalCost.Equal(dec("50")), "3 from the layer, 2 at the last inbound cost")
}

func TestCostingService_Match_IsReadOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	goodsID := f.addGoods(t, nil)
	layerID := f.receive(t, goodsID, "10", "100", "")

	resp, err := f.service.Match(ctx, MatchCostRequest{GoodsID: goodsID, WarehouseID: f.warehouse, Quantity: dec("4")})
	require.NoError(t, err)
	assert.True(t, resp.TotalCost.Equal(dec("40")))
	assert.True(t, resp.MatchedQuantity.Equal(dec("4")))
	assert.True(t, f.remaining(t, layerID).Equal(dec("10")))

	resp, err = f.service.Match(ctx, MatchCostRequest{
		GoodsID:        goodsID,
		WarehouseID:    f.warehouse,
		Quantity:       dec("4"),
		ExcludeLineIDs: []uuid.UUID{layerID},
	})
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.Nil(t, resp)
}

func TestCostingService_Apportion(t *testing.T) {
	f := newFixture(t)
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	allocations, err := f.service.Apportion(context.Background(), ApportionRequest{
		PoolCost: dec("100"),
		Members: []ApportionMemberRequest{
			{LineID: a, BasisValue: dec("1"), Quantity: dec("1")},
			{LineID: b, BasisValue: dec("1"), Quantity: dec("1")},
			{LineID: c, BasisValue: dec("1"), Quantity: dec("3")},
		},
	})
	require.NoError(t, err)
	require.Len(t, allocations, 3)
	assert.True(t, allocations[0].AllocatedCost.Equal(dec("33.33")))
	assert.True(t, allocations[1].AllocatedCost.Equal(dec("33.33")))
	assert.True(t, allocations[2].AllocatedCost.Equal(dec("33.34")))
	assert.True(t, allocations[2].AllocatedUnitCost.Equal(dec("11.113333")))

	_, err = f.service.Apportion(context.Background(), ApportionRequest{PoolCost: dec("1")})
	assert.Equal(t, "EMPTY_APPORTIONMENT", shared.ErrorCode(err))
}

func TestCostingService_FinalizeJointOperation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	part := f.addGoods(t, nil)
	f.receive(t, part, "10", "150", "")
	consumed := f.draftOut(t, part, "10", "")
	_, err := f.service.ConfirmOutbound(ctx, consumed, ConfirmOutboundRequest{})
	require.NoError(t, err)

	small := f.addGoods(t, func(g *costing.Goods) { g.StandardCost = dec("5") })
	large := f.addGoods(t, func(g *costing.Goods) { g.StandardCost = dec("10") })
	newOutput := func(goodsID uuid.UUID, qty string) uuid.UUID {
		line, err := f.service.CreateMovement(ctx, CreateMovementRequest{
			Direction:       "in",
			GoodsID:         goodsID,
			Quantity:        dec(qty),
			WarehouseDestID: &f.warehouse,
		})
		require.NoError(t, err)
		return line.ID
	}
	first := newOutput(small, "4")
	second := newOutput(large, "2")

	resp, err := f.service.FinalizeJointOperation(ctx, FinalizeJointOperationRequest{
		Kind:         string(costing.JointDisassembly),
		InputLineIDs: []uuid.UUID{consumed},
		Fee:          dec("30"),
		Outputs:      []JointOutputRequest{{LineID: first}, {LineID: second}},
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, resp.ID)
	assert.True(t, resp.PoolCost.Equal(dec("180")))
	require.Len(t, resp.Allocations, 2)
	assert.True(t, resp.Allocations[0].AllocatedCost.Equal(dec("90")), "equal standard-cost bases")
	assert.True(t, resp.Allocations[1].AllocatedCost.Equal(dec("90")))

	for _, id := range []uuid.UUID{first, second} {
		line, err := f.ledger.FindByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, line.IsCostLayer())
		assert.True(t, line.TotalCost.Equal(dec("90")))
	}

	assert.Len(t, f.publisher.GetEventsByType(costing.EventTypeCostsApportioned), 1)
	// the receipt during setup plus the two outputs
	assert.Len(t, f.publisher.GetEventsByType(costing.EventTypeLayerOpened), 3)
}

func TestCostingService_FinalizeJointOperation_ConservesPool(t *testing.T) {
	ctx := context.Background()

	finalize := func(t *testing.T, f *fixture, goodsID uuid.UUID, inputCost string) (*JointOperationResponse, decimal.Decimal) {
		t.Helper()
		outputs := make([]JointOutputRequest, 3)
		for i := range outputs {
			line, err := f.service.CreateMovement(ctx, CreateMovementRequest{
				Direction: "in", GoodsID: goodsID, Quantity: dec("1"), WarehouseDestID: &f.warehouse,
			})
			require.NoError(t, err)
			basis := dec("1")
			outputs[i] = JointOutputRequest{LineID: line.ID, BasisValue: &basis}
		}

		resp, err := f.service.FinalizeJointOperation(ctx, FinalizeJointOperationRequest{
			Kind:      string(costing.JointAssembly),
			InputCost: dec(inputCost),
			Outputs:   outputs,
		})
		require.NoError(t, err)

		written := decimal.Zero
		for _, o := range outputs {
			line, err := f.ledger.FindByID(ctx, o.LineID)
			require.NoError(t, err)
			written = written.Add(line.TotalCost)
		}
		return resp, written
	}

	t.Run("whole-unit goods", func(t *testing.T) {
		f := newFixture(t)
		goodsID := f.addGoods(t, func(g *costing.Goods) {
			g.Precision = &costing.Precision{Quantity: 4, Cost: 0, UnitCost: 6}
		})

		resp, written := finalize(t, f, goodsID, "100")

		assert.True(t, resp.PoolCost.Equal(dec("100")))
		assert.True(t, written.Equal(dec("100")), "written %s", written)
		assert.True(t, resp.Allocations[0].AllocatedCost.Equal(dec("33")))
		assert.True(t, resp.Allocations[2].AllocatedCost.Equal(dec("34")))
	})

	t.Run("pool finer than cost places", func(t *testing.T) {
		f := newFixture(t)
		goodsID := f.addGoods(t, nil)

		resp, written := finalize(t, f, goodsID, "100.005")

		assert.True(t, resp.PoolCost.Equal(dec("100.01")), "pool %s", resp.PoolCost)
		assert.True(t, written.Equal(resp.PoolCost), "written %s", written)
		allocated := decimal.Zero
		for _, a := range resp.Allocations {
			allocated = allocated.Add(a.AllocatedCost)
		}
		assert.True(t, allocated.Equal(resp.PoolCost))

		events := f.publisher.GetEventsByType(costing.EventTypeCostsApportioned)
		require.Len(t, events, 1)
		assert.True(t, events[0].(*costing.CostsApportionedEvent).PoolCost.Equal(dec("100.01")))
	})

	t.Run("mixed precision outputs use the coarsest cost places", func(t *testing.T) {
		f := newFixture(t)
		coarse := f.addGoods(t, func(g *costing.Goods) {
			g.Precision = &costing.Precision{Quantity: 4, Cost: 0, UnitCost: 6}
		})
		fine := f.addGoods(t, nil)
		outputs := make([]JointOutputRequest, 0, 3)
		for _, goodsID := range []uuid.UUID{fine, coarse, fine} {
			line, err := f.service.CreateMovement(ctx, CreateMovementRequest{
				Direction: "in", GoodsID: goodsID, Quantity: dec("1"), WarehouseDestID: &f.warehouse,
			})
			require.NoError(t, err)
			basis := dec("1")
			outputs = append(outputs, JointOutputRequest{LineID: line.ID, BasisValue: &basis})
		}

		resp, err := f.service.FinalizeJointOperation(ctx, FinalizeJointOperationRequest{
			Kind:      string(costing.JointAssembly),
			InputCost: dec("10"),
			Outputs:   outputs,
		})
		require.NoError(t, err)

		written := decimal.Zero
		for _, o := range outputs {
			line, err := f.ledger.FindByID(ctx, o.LineID)
			require.NoError(t, err)
			written = written.Add(line.TotalCost)
		}
		assert.True(t, resp.PoolCost.Equal(dec("10")))
		assert.True(t, written.Equal(dec("10")), "written %s", written)
	})
}

func TestCostingService_FinalizeJointOperation_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("tax outside outsourcing", func(t *testing.T) {
		f := newFixture(t)
		goodsID := f.addGoods(t, nil)
		line, err := f.service.CreateMovement(ctx, CreateMovementRequest{
			Direction: "in", GoodsID: goodsID, Quantity: dec("1"), WarehouseDestID: &f.warehouse,
		})
		require.NoError(t, err)

		_, err = f.service.FinalizeJointOperation(ctx, FinalizeJointOperationRequest{
			Kind:      string(costing.JointAssembly),
			InputCost: dec("10"),
			Tax:       dec("1"),
			Outputs:   []JointOutputRequest{{LineID: line.ID}},
		})
		assert.Equal(t, "INVALID_TAX", shared.ErrorCode(err))

		stored, err := f.ledger.FindByID(ctx, line.ID)
		require.NoError(t, err)
		assert.False(t, stored.IsDone())
	})

	t.Run("completed output", func(t *testing.T) {
		f := newFixture(t)
		goodsID := f.addGoods(t, nil)
		done := f.receive(t, goodsID, "1", "1", "")

		_, err := f.service.FinalizeJointOperation(ctx, FinalizeJointOperationRequest{
			Kind:    string(costing.JointAssembly),
			Outputs: []JointOutputRequest{{LineID: done}},
		})
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("unknown output", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.FinalizeJointOperation(ctx, FinalizeJointOperationRequest{
			Kind:    string(costing.JointAssembly),
			Outputs: []JointOutputRequest{{LineID: uuid.New()}},
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("draft input", func(t *testing.T) {
		f := newFixture(t)
		goodsID := f.addGoods(t, nil)
		input := f.draftOut(t, goodsID, "1", "")

		_, err := f.service.FinalizeJointOperation(ctx, FinalizeJointOperationRequest{
			Kind:         string(costing.JointAssembly),
			InputLineIDs: []uuid.UUID{input},
			Outputs:      []JointOutputRequest{{LineID: uuid.New()}},
		})
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}

func TestCostingService_UpsertGoods(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id := uuid.New()
	_, err := f.service.UpsertGoods(ctx, id, UpsertGoodsRequest{Code: "G-1", Name: "Bolt"})
	assert.ErrorIs(t, err, shared.ErrInvalidState, "read-only without a writer")

	invalidator := &recordingInvalidator{}
	f.service.SetGoodsWriter(f.goods)
	f.service.SetGoodsInvalidator(invalidator)

	resp, err := f.service.UpsertGoods(ctx, id, UpsertGoodsRequest{
		Code:         "G-1",
		Name:         "Bolt",
		LotTracked:   true,
		StandardCost: dec("2.5"),
		Precision:    &PrecisionRequest{Quantity: 0, Cost: 2, UnitCost: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, id, resp.ID)
	assert.Equal(t, []uuid.UUID{id}, invalidator.ids)

	got, err := f.service.GetGoods(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.LotTracked)
	require.NotNil(t, got.Precision)
	assert.Equal(t, int32(4), got.Precision.UnitCost)
}
