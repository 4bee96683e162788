package costing

import (
	"math/rand"
	"testing"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func members(bases ...string) []ApportionMember {
	out := make([]ApportionMember, 0, len(bases))
	for _, b := range bases {
		out = append(out, ApportionMember{LineID: uuid.New(), BasisValue: dec(b), Quantity: decimal.NewFromInt(1)})
	}
	return out
}

func allocatedSum(allocations []Allocation) decimal.Decimal {
	sum := decimal.Zero
	for _, a := range allocations {
		sum = sum.Add(a.AllocatedCost)
	}
	return sum
}

func TestApportioner_Apportion(t *testing.T) {
	apportioner := NewApportioner(DefaultPrecision)

	tests := []struct {
		name  string
		pool  string
		bases []string
		want  []string
	}{
		{"proportional split", "100.00", []string{"30", "30", "40"}, []string{"30.00", "30.00", "40.00"}},
		{"near equal bases", "100.00", []string{"33.33", "33.33", "33.34"}, []string{"33.33", "33.33", "33.34"}},
		{"zero pool and zero bases", "0.00", []string{"0", "0"}, []string{"0", "0"}},
		{"zero bases give everything to the last", "90.00", []string{"0", "0", "0"}, []string{"0", "0", "90.00"}},
		{"rounding remainder lands on the last", "100.00", []string{"1", "1", "1"}, []string{"33.33", "33.33", "33.34"}},
		{"negative pool", "-10.00", []string{"1", "2"}, []string{"-3.33", "-6.67"}},
		{"single member takes the pool", "12.345", []string{"7"}, []string{"12.345"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			group := members(tt.bases...)

			allocations, err := apportioner.Apportion(dec(tt.pool), group)

			require.NoError(t, err)
			require.Len(t, allocations, len(tt.want))
			for i, want := range tt.want {
				assert.Equal(t, group[i].LineID, allocations[i].LineID)
				assert.True(t, allocations[i].AllocatedCost.Equal(dec(want)),
					"member %d: want %s, got %s", i, want, allocations[i].AllocatedCost)
			}
			assert.True(t, allocatedSum(allocations).Equal(dec(tt.pool)))
		})
	}

	t.Run("empty group is rejected", func(t *testing.T) {
		_, err := apportioner.Apportion(dec("10"), nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one member")
	})

	t.Run("unit cost per member quantity", func(t *testing.T) {
		group := []ApportionMember{
			{LineID: uuid.New(), BasisValue: dec("1"), Quantity: dec("3")},
			{LineID: uuid.New(), BasisValue: dec("1"), Quantity: dec("0")},
		}

		allocations, err := apportioner.Apportion(dec("10"), group)

		require.NoError(t, err)
		assert.True(t, allocations[0].AllocatedUnitCost.Equal(dec("1.666667")))
		assert.True(t, allocations[1].AllocatedCost.Equal(dec("5")))
		assert.True(t, allocations[1].AllocatedUnitCost.IsZero())
	})
}

func TestApportioner_Properties(t *testing.T) {
	apportioner := NewApportioner(DefaultPrecision)

	t.Run("allocations always sum to the pool", func(t *testing.T) {
		rng := rand.New(rand.NewSource(42))
		for i := 0; i < 500; i++ {
			pool := decimal.New(rng.Int63n(2_000_000)-1_000_000, -int32(rng.Intn(4)))
			group := make([]ApportionMember, 1+rng.Intn(8))
			for j := range group {
				basis := decimal.Zero
				if rng.Intn(4) > 0 {
					basis = decimal.New(rng.Int63n(100_000), -2)
				}
				group[j] = ApportionMember{LineID: uuid.New(), BasisValue: basis, Quantity: decimal.NewFromInt(rng.Int63n(10))}
			}

			allocations, err := apportioner.Apportion(pool, group)

			require.NoError(t, err)
			assert.True(t, allocatedSum(allocations).Equal(pool), "pool %s, sum %s", pool, allocatedSum(allocations))
		}
	})

	t.Run("remainder follows the last member of the given order", func(t *testing.T) {
		group := members("1", "1", "1")
		pool := dec("100.00")
		rng := rand.New(rand.NewSource(3))

		for i := 0; i < 10; i++ {
			rng.Shuffle(len(group), func(a, b int) { group[a], group[b] = group[b], group[a] })

			allocations, err := apportioner.Apportion(pool, group)

			require.NoError(t, err)
			assert.True(t, allocatedSum(allocations).Equal(pool))
			last := allocations[len(allocations)-1]
			assert.Equal(t, group[len(group)-1].LineID, last.LineID)
			assert.True(t, last.AllocatedCost.Equal(dec("33.34")))
			for _, a := range allocations[:len(allocations)-1] {
				assert.True(t, a.AllocatedCost.Equal(dec("33.33")))
			}
		}
	})

	t.Run("groups are independent", func(t *testing.T) {
		first := members("2", "3")
		second := members("5", "5", "1")

		alone, err := apportioner.Apportion(dec("50"), first)
		require.NoError(t, err)
		_, err = apportioner.Apportion(dec("77.77"), second)
		require.NoError(t, err)
		again, err := apportioner.Apportion(dec("50"), first)
		require.NoError(t, err)

		assert.Equal(t, alone, again)
	})
}

func TestJointOperation(t *testing.T) {
	apportioner := NewApportioner(DefaultPrecision)

	t.Run("pool per kind", func(t *testing.T) {
		tests := []struct {
			kind JointKind
			tax  string
			want string
		}{
			{JointAssembly, "0", "110"},
			{JointDisassembly, "0", "110"},
			{JointOutsourcing, "4", "106"},
		}
		for _, tt := range tests {
			op := &JointOperation{ID: uuid.New(), Kind: tt.kind, InputCost: dec("100"), Fee: dec("10"), Tax: dec(tt.tax)}
			assert.True(t, op.PoolCost().Equal(dec(tt.want)), "%s pool %s", tt.kind, op.PoolCost())
		}
	})

	t.Run("apportions the pool over outputs", func(t *testing.T) {
		op := &JointOperation{
			ID:        uuid.New(),
			Kind:      JointOutsourcing,
			InputCost: dec("200"),
			Fee:       dec("20"),
			Tax:       dec("2.6"),
			Outputs:   members("1", "2"),
		}

		allocations, err := op.Apportion(apportioner)

		require.NoError(t, err)
		assert.True(t, allocations[0].AllocatedCost.Equal(dec("72.47")))
		assert.True(t, allocations[1].AllocatedCost.Equal(dec("144.93")))
		assert.True(t, allocatedSum(allocations).Equal(dec("217.4")))
	})

	t.Run("pool is rounded once to the apportioner cost places", func(t *testing.T) {
		op := &JointOperation{ID: uuid.New(), Kind: JointAssembly, InputCost: dec("100.4"), Outputs: members("1", "1", "1")}
		whole := NewApportioner(Precision{Quantity: 4, Cost: 0, UnitCost: 6})

		allocations, err := op.Apportion(whole)

		require.NoError(t, err)
		assert.True(t, op.PoolCostAt(whole.Precision()).Equal(dec("100")))
		assert.True(t, allocatedSum(allocations).Equal(dec("100")))
		for _, a := range allocations {
			assert.True(t, a.AllocatedCost.Equal(a.AllocatedCost.Round(0)), "allocation %s", a.AllocatedCost)
		}
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name string
			op   JointOperation
			code string
		}{
			{"unknown kind", JointOperation{Kind: "melt", Outputs: members("1")}, "INVALID_JOINT_KIND"},
			{"no outputs", JointOperation{Kind: JointAssembly}, "EMPTY_APPORTIONMENT"},
			{"tax outside outsourcing", JointOperation{Kind: JointDisassembly, Tax: dec("1"), Outputs: members("1")}, "INVALID_TAX"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := tt.op.Apportion(apportioner)

				require.Error(t, err)
				assert.Equal(t, tt.code, shared.ErrorCode(err))
			})
		}
	})
}
