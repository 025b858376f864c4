package generic_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/clinic-ledger/generic"
)

func TestRoundMoney_HalfEven(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"10.005", "10"},
		{"10.015", "10.02"},
		{"10.025", "10.02"},
		{"479.1666", "479.17"},
		{"-3.335", "-3.34"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := generic.RoundMoney(decimal.RequireFromString(tt.in))
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestErrorCategories(t *testing.T) {
	closed := generic.Conflict("period is closed")
	wrapped := fmt.Errorf("close march: %w", closed)

	assert.True(t, errors.Is(wrapped, closed))
	assert.True(t, generic.IsConflict(wrapped))
	assert.True(t, generic.IsClientError(wrapped))
	assert.False(t, generic.IsValidation(wrapped))
	assert.Equal(t, "close march: period is closed", wrapped.Error())

	missing := generic.Configuration("cash account missing")
	assert.True(t, generic.IsConfiguration(missing))
	assert.False(t, generic.IsClientError(missing))

	field := generic.Field("date", "required")
	var fe *generic.FieldError
	require.ErrorAs(t, field, &fe)
	assert.Equal(t, "date", fe.Field)
	assert.True(t, generic.IsValidation(field))
	assert.Equal(t, "date: required", field.Error())

	assert.True(t, generic.IsValidation(generic.ErrInvalidPeriod))
	assert.True(t, generic.IsConflict(generic.ErrDuplicateIdempotencyKey))
}
