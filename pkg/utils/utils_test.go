package utils

import (
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestInstallmentSplit(t *testing.T) {
	tests := []struct {
		name          string
		principal     string
		months        int
		expectedEach  string
		expectedFinal string
	}{
		{
			name:          "Even split",
			principal:     "1200.00",
			months:        12,
			expectedEach:  "100",
			expectedFinal: "100",
		},
		{
			name:          "Rounding remainder lands on the final installment",
			principal:     "1000.00",
			months:        3,
			expectedEach:  "333.33",
			expectedFinal: "333.34",
		},
		{
			name:          "Single installment",
			principal:     "500.00",
			months:        1,
			expectedEach:  "500",
			expectedFinal: "500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			principal := decimal.RequireFromString(tt.principal)
			installment := CalculateInstallmentAmount(principal, tt.months)
			final := CalculateFinalInstallment(principal, installment, tt.months)

			assert.True(t, installment.Equal(decimal.RequireFromString(tt.expectedEach)),
				"installment = %s", installment)
			assert.True(t, final.Equal(decimal.RequireFromString(tt.expectedFinal)),
				"final = %s", final)

			// The schedule must always sum exactly to the principal.
			total := installment.Mul(decimal.NewFromInt(int64(tt.months - 1))).Add(final)
			assert.True(t, total.Equal(principal), "total = %s", total)
		})
	}
}

func TestCalculateDueDate(t *testing.T) {
	origination := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), CalculateDueDate(origination, 1))
	assert.Equal(t, time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC), CalculateDueDate(origination, 2))
	assert.Equal(t, origination.AddDate(0, 0, 360), CalculateDueDate(origination, 12))
}

func TestGenerateLoanReference(t *testing.T) {
	now := time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^LN-20250610-[0-9A-F]{5}$`)

	ref := GenerateLoanReference(now)
	assert.Regexp(t, pattern, ref)

	// References must differ across calls.
	assert.NotEqual(t, ref, GenerateLoanReference(now))
}

func TestGenerateTransactionReference(t *testing.T) {
	pattern := regexp.MustCompile(`^TX-[0-9A-F]{12}$`)
	assert.Regexp(t, pattern, GenerateTransactionReference())
	assert.NotEqual(t, GenerateTransactionReference(), GenerateTransactionReference())
}

func TestIsDateOverdue(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	assert.True(t, IsDateOverdue(now.AddDate(0, 0, -1), now))
	assert.False(t, IsDateOverdue(now.AddDate(0, 0, 1), now))
	assert.False(t, IsDateOverdue(now, now))
}
