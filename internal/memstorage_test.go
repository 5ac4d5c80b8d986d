package internal

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)

func seedPayments(t *testing.T, store Storage) {
	t.Helper()
	payments := []ProcessedPayment{
		{CorrelationId: uuid.New(), Amount: decimal.RequireFromString("10.00"), RequestedAt: base, Processor: Default},
		{CorrelationId: uuid.New(), Amount: decimal.RequireFromString("20.50"), RequestedAt: base.Add(time.Second), Processor: Default},
		{CorrelationId: uuid.New(), Amount: decimal.RequireFromString("5.25"), RequestedAt: base.Add(2 * time.Second), Processor: Fallback},
		{CorrelationId: uuid.New(), Amount: decimal.RequireFromString("1.00"), RequestedAt: base.Add(3 * time.Second), Processor: Default},
	}
	for _, pp := range payments {
		require.NoError(t, store.Save(context.Background(), pp))
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func assertSummary(t *testing.T, s Summary, name ProcessorName, count int64, amount string) {
	t.Helper()
	assert.Equal(t, count, s[name].TotalRequests, "requests of %s", name)
	assert.True(t, s[name].TotalAmount.Equal(decimal.RequireFromString(amount)),
		"amount of %s: got %s want %s", name, s[name].TotalAmount, amount)
}

func TestMemStorage_GetSummary_Unbounded(t *testing.T) {
	store := NewMemStorage()
	seedPayments(t, store)

	s, err := store.GetSummary(context.Background(), nil, nil)

	require.NoError(t, err)
	assertSummary(t, s, "default", 3, "31.50")
	assertSummary(t, s, "fallback", 1, "5.25")
}

func TestMemStorage_GetSummary_InclusiveBounds(t *testing.T) {
	store := NewMemStorage()
	seedPayments(t, store)

	s, err := store.GetSummary(context.Background(), timePtr(base.Add(time.Second)), timePtr(base.Add(2*time.Second)))

	require.NoError(t, err)
	assertSummary(t, s, "default", 1, "20.50")
	assertSummary(t, s, "fallback", 1, "5.25")
}

func TestMemStorage_GetSummary_OpenSides(t *testing.T) {
	store := NewMemStorage()
	seedPayments(t, store)

	s, err := store.GetSummary(context.Background(), nil, timePtr(base))
	require.NoError(t, err)
	assertSummary(t, s, "default", 1, "10")
	assertSummary(t, s, "fallback", 0, "0")

	s, err = store.GetSummary(context.Background(), timePtr(base.Add(2*time.Second)), nil)
	require.NoError(t, err)
	assertSummary(t, s, "default", 1, "1")
	assertSummary(t, s, "fallback", 1, "5.25")
}

func TestMemStorage_Save_IgnoresDuplicates(t *testing.T) {
	store := NewMemStorage()
	pp := ProcessedPayment{CorrelationId: uuid.New(), Amount: decimal.NewFromInt(3), RequestedAt: base, Processor: Default}

	require.NoError(t, store.Save(context.Background(), pp))
	pp.Processor = Fallback
	require.NoError(t, store.Save(context.Background(), pp))

	assert.Equal(t, 1, store.Len())
	saved, ok := store.Get(pp.CorrelationId)
	require.True(t, ok)
	assert.Equal(t, Default, saved.Processor)
}

func TestMemStorage_SameTimestamp(t *testing.T) {
	store := NewMemStorage()
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(context.Background(), ProcessedPayment{
			CorrelationId: uuid.New(), Amount: decimal.NewFromInt(1), RequestedAt: base, Processor: Fallback,
		}))
	}

	s, err := store.GetSummary(context.Background(), timePtr(base), timePtr(base))

	require.NoError(t, err)
	assertSummary(t, s, "fallback", 3, "3")
}

func TestMemStorage_CleanUp(t *testing.T) {
	store := NewMemStorage()
	seedPayments(t, store)

	require.NoError(t, store.CleanUp(context.Background()))

	assert.Equal(t, 0, store.Len())
	s, err := store.GetSummary(context.Background(), nil, nil)
	require.NoError(t, err)
	assertSummary(t, s, "default", 0, "0")
}
