package costing

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLotResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	warehouseID := uuid.New()

	t.Run("fails when lot holds less than requested", func(t *testing.T) {
		ledger := newFakeLedger()
		goods := ledger.addGoods(&Goods{Code: "LOT-1", LotTracked: true})
		ledger.addLayer(goods.ID, warehouseID, "10", "4", at(0), withLot("X"), withRemaining("3"))
		resolver := NewLotResolver(ledger, ledger, DefaultPrecision)

		result, err := resolver.Resolve(ctx, goods.ID, "X", dec("5"), false)

		require.Error(t, err)
		assert.Nil(t, result)
		var insufficient *InsufficientStockError
		require.True(t, errors.As(err, &insufficient))
		assert.Equal(t, "X", insufficient.Lot)
		assert.Equal(t, goods.ID, insufficient.GoodsID)
		assert.Equal(t, warehouseID, insufficient.WarehouseID)
		assert.True(t, insufficient.Available.Equal(dec("3")))
		assert.True(t, insufficient.Requested.Equal(dec("5")))
		assert.Contains(t, err.Error(), `lot "X"`)
	})

	t.Run("prices from total cost over quantity", func(t *testing.T) {
		ledger := newFakeLedger()
		goods := ledger.addGoods(&Goods{Code: "LOT-2", LotTracked: true})
		lotLine := ledger.addLayer(goods.ID, warehouseID, "4", "1", at(0), withLot("A"), func(l *MovementLine) {
			// stale stored unit cost, total cost is authoritative
			l.TotalCost = dec("10")
		})
		resolver := NewLotResolver(ledger, ledger, DefaultPrecision)

		result, err := resolver.Resolve(ctx, goods.ID, "A", dec("2"), false)

		require.NoError(t, err)
		require.Len(t, result.Records, 1)
		assert.Equal(t, lotLine, result.Records[0].SourceLineID)
		assert.True(t, result.Records[0].UnitCost.Equal(dec("2.5")))
		assert.True(t, result.TotalCost.Equal(dec("5")), "total %s", result.TotalCost)
		assert.True(t, result.Shortage.IsZero())
	})

	t.Run("used up receipt does not hide a later one of the same lot", func(t *testing.T) {
		ledger := newFakeLedger()
		goods := ledger.addGoods(&Goods{Code: "LOT-5", LotTracked: true})
		ledger.addLayer(goods.ID, warehouseID, "2", "10", at(0), withLot("X"), withRemaining("0"))
		later := ledger.addLayer(goods.ID, warehouseID, "5", "8", at(2), withLot("X"))
		resolver := NewLotResolver(ledger, ledger, DefaultPrecision)

		result, err := resolver.Resolve(ctx, goods.ID, "X", dec("3"), false)

		require.NoError(t, err)
		require.Len(t, result.Records, 1)
		assert.Equal(t, later, result.Records[0].SourceLineID)
		assert.True(t, result.TotalCost.Equal(dec("24")))
	})

	t.Run("does not decrement the lot", func(t *testing.T) {
		ledger := newFakeLedger()
		goods := ledger.addGoods(&Goods{Code: "LOT-3", LotTracked: true})
		lotLine := ledger.addLayer(goods.ID, warehouseID, "4", "1", at(0), withLot("A"))
		resolver := NewLotResolver(ledger, ledger, DefaultPrecision)

		for i := 0; i < 3; i++ {
			_, err := resolver.Resolve(ctx, goods.ID, "A", dec("4"), false)
			require.NoError(t, err)
		}
		assert.True(t, ledger.line(lotLine).RemainingQuantity.Equal(dec("4")))
	})

	t.Run("allows insufficient when granted", func(t *testing.T) {
		ledger := newFakeLedger()
		goods := ledger.addGoods(&Goods{Code: "LOT-4", LotTracked: true})
		ledger.addLayer(goods.ID, warehouseID, "10", "2", at(0), withLot("B"), withRemaining("3"))
		resolver := NewLotResolver(ledger, ledger, DefaultPrecision)

		result, err := resolver.Resolve(ctx, goods.ID, "B", dec("5"), true)

		require.NoError(t, err)
		require.Len(t, result.Records, 1)
		assert.True(t, result.Records[0].Quantity.Equal(dec("3")))
		assert.True(t, result.MatchedQuantity.Equal(dec("3")))
		assert.True(t, result.Shortage.Equal(dec("2")))
		assert.True(t, result.TotalCost.Equal(dec("10")))
	})

	t.Run("draft lot is not ready", func(t *testing.T) {
		ledger := newFakeLedger()
		goods := ledger.addGoods(&Goods{Code: "LOT-5", LotTracked: true})
		draft := ledger.addLayer(goods.ID, warehouseID, "10", "2", at(0), withLot("C"), asDraft())
		resolver := NewLotResolver(ledger, ledger, DefaultPrecision)

		_, err := resolver.Resolve(ctx, goods.ID, "C", dec("1"), true)

		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrLotNotReady))
		var notReady *LotNotReadyError
		require.True(t, errors.As(err, &notReady))
		assert.Equal(t, draft, notReady.LineID)
	})

	t.Run("unknown lot", func(t *testing.T) {
		ledger := newFakeLedger()
		goods := ledger.addGoods(&Goods{Code: "LOT-6", LotTracked: true})
		resolver := NewLotResolver(ledger, ledger, DefaultPrecision)

		_, err := resolver.Resolve(ctx, goods.ID, "missing", dec("1"), false)

		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		ledger := newFakeLedger()
		goods := ledger.addGoods(&Goods{Code: "LOT-7", LotTracked: true})
		ledger.addLayer(goods.ID, warehouseID, "10", "2", at(0), withLot("D"))
		resolver := NewLotResolver(ledger, ledger, DefaultPrecision)

		_, err := resolver.Resolve(ctx, goods.ID, "D", dec("0"), false)

		assert.True(t, errors.Is(err, shared.ErrInvalidQuantity))
	})

	t.Run("strategy metadata", func(t *testing.T) {
		resolver := NewLotResolver(newFakeLedger(), newFakeLedger(), DefaultPrecision)

		assert.Equal(t, "lot", resolver.Name())
		assert.NotEmpty(t, resolver.Description())
	})
}
