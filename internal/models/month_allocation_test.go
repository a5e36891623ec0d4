package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBudgetAggregates(t *testing.T) {
	deleted := time.Now()
	alloc := &MonthAllocation{
		AllocationCents: 100000,
		CareDays: []AllocatedCareDay{
			{AmountCents: 30000},
			{AmountCents: 20000},
			{AmountCents: 50000, DeletedAt: &deleted}, // soft deleted, not counted
		},
		LumpSums: []AllocatedLumpSum{
			{AmountCents: 10000},
		},
		Payments: []Payment{
			{AmountCents: 30000},
		},
	}

	assert.Equal(t, int64(60000), alloc.SelectedCents())
	assert.Equal(t, int64(30000), alloc.PaidCents())
	assert.Equal(t, int64(40000), alloc.RemainingUnselectedCents())
	assert.Equal(t, int64(70000), alloc.RemainingUnpaidCents())

	assert.True(t, alloc.CanAbsorb(40000))
	assert.False(t, alloc.CanAbsorb(40001))
}

func TestBudgetAggregates_Empty(t *testing.T) {
	alloc := &MonthAllocation{AllocationCents: 50000}
	assert.Zero(t, alloc.SelectedCents())
	assert.Zero(t, alloc.PaidCents())
	assert.Equal(t, int64(50000), alloc.RemainingUnselectedCents())
}
