package costing

import (
	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApportionMember is one output line sharing a pooled cost
type ApportionMember struct {
	LineID     uuid.UUID
	BasisValue decimal.Decimal // provisional value used as the weight
	Quantity   decimal.Decimal
}

// Allocation is the share of the pool written back onto one output line
type Allocation struct {
	LineID            uuid.UUID
	AllocatedCost     decimal.Decimal
	AllocatedUnitCost decimal.Decimal
}

// Apportioner splits a pooled cost proportionally to basis values.
// The last member by input order receives the pool minus everything allocated
// before it, so the allocations always sum to the pool exactly.
type Apportioner struct {
	strategy.BaseStrategy
	precision Precision
}

// NewApportioner creates a new Apportioner
func NewApportioner(precision Precision) *Apportioner {
	return &Apportioner{
		BaseStrategy: strategy.NewBaseStrategy(
			"proportional",
			strategy.StrategyTypeApportionment,
			"Proportional to basis value, remainder to the last member",
		),
		precision: precision,
	}
}

// Precision returns the places allocations are rounded to
func (a *Apportioner) Precision() Precision {
	return a.precision
}

// Apportion distributes pool over members. Zero or negative pools and all-zero
// bases are valid and still reconcile; only an empty member list is rejected.
func (a *Apportioner) Apportion(pool decimal.Decimal, members []ApportionMember) ([]Allocation, error) {
	if len(members) == 0 {
		return nil, shared.NewDomainError("EMPTY_APPORTIONMENT", "Apportionment needs at least one member")
	}
	p := a.precision

	basisTotal := decimal.Zero
	for _, m := range members {
		basisTotal = basisTotal.Add(m.BasisValue)
	}

	allocations := make([]Allocation, len(members))
	collected := decimal.Zero
	last := len(members) - 1

	for i, m := range members[:last] {
		share := decimal.Zero
		if !basisTotal.IsZero() {
			share = p.RoundCost(pool.Mul(m.BasisValue).Div(basisTotal))
		}
		collected = collected.Add(share)
		allocations[i] = Allocation{
			LineID:            m.LineID,
			AllocatedCost:     share,
			AllocatedUnitCost: p.UnitCostOf(share, m.Quantity),
		}
	}

	remainder := pool.Sub(collected)
	allocations[last] = Allocation{
		LineID:            members[last].LineID,
		AllocatedCost:     remainder,
		AllocatedUnitCost: p.UnitCostOf(remainder, members[last].Quantity),
	}
	return allocations, nil
}
