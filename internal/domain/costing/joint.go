package costing

import (
	"github.com/erp/costing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JointKind is the kind of operation whose outputs share one pooled cost
type JointKind string

const (
	JointAssembly    JointKind = "assembly"
	JointDisassembly JointKind = "disassembly"
	JointOutsourcing JointKind = "outsourcing"
)

// IsValid returns true if the kind is known
func (k JointKind) IsValid() bool {
	switch k {
	case JointAssembly, JointDisassembly, JointOutsourcing:
		return true
	}
	return false
}

// JointOperation is a confirmed assembly, disassembly or outsourcing run.
// InputCost is the already matched cost of everything it consumed.
type JointOperation struct {
	ID        uuid.UUID
	Kind      JointKind
	InputCost decimal.Decimal
	Fee       decimal.Decimal
	Tax       decimal.Decimal // outsourcing only
	Outputs   []ApportionMember
}

// Validate checks the operation before apportioning
func (op *JointOperation) Validate() error {
	if !op.Kind.IsValid() {
		return shared.NewDomainError("INVALID_JOINT_KIND", "Unknown joint operation kind: "+string(op.Kind))
	}
	if len(op.Outputs) == 0 {
		return shared.NewDomainError("EMPTY_APPORTIONMENT", "Joint operation has no output lines")
	}
	if !op.Tax.IsZero() && op.Kind != JointOutsourcing {
		return shared.NewDomainError("INVALID_TAX", "Only outsourcing carries a deductible tax")
	}
	return nil
}

// PoolCost is the cost the outputs absorb. Assembly and disassembly pool the
// consumed cost plus fee; outsourcing also deducts the recoverable tax.
func (op *JointOperation) PoolCost() decimal.Decimal {
	pool := op.InputCost.Add(op.Fee)
	if op.Kind == JointOutsourcing {
		pool = pool.Sub(op.Tax)
	}
	return pool
}

// PoolCostAt rounds the pool once to the cost places of p
func (op *JointOperation) PoolCostAt(p Precision) decimal.Decimal {
	return p.RoundCost(op.PoolCost())
}

// Apportion validates the operation and splits its pool, rounded to the
// apportioner's cost places, over the outputs. The allocations sum to
// PoolCostAt(a.Precision()) exactly.
func (op *JointOperation) Apportion(a *Apportioner) ([]Allocation, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}
	return a.Apportion(op.PoolCostAt(a.Precision()), op.Outputs)
}
