package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CalculateInstallmentAmount splits a principal evenly across N installments.
// Rounded to 2 decimal places; the remainder left by rounding belongs on the
// final installment (see CalculateFinalInstallment).
func CalculateInstallmentAmount(principal decimal.Decimal, months int) decimal.Decimal {
	return principal.Div(decimal.NewFromInt(int64(months))).Round(2)
}

// CalculateFinalInstallment returns the last installment's amount such that
// the whole schedule sums exactly to the principal.
func CalculateFinalInstallment(principal, installment decimal.Decimal, months int) decimal.Decimal {
	paidByOthers := installment.Mul(decimal.NewFromInt(int64(months - 1)))
	return principal.Sub(paidByOthers)
}

// CalculateDueDate returns the due date for an installment number.
// The first installment is due 30 days after origination, then every 30 days.
// A 30-day month is a deliberate simplification, not calendar-accurate.
func CalculateDueDate(originationDate time.Time, installmentNumber int) time.Time {
	return originationDate.AddDate(0, 0, 30*installmentNumber)
}

// GenerateLoanReference produces a unique loan reference: LN-YYYYMMDD-XXXXX.
func GenerateLoanReference(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:5])
	return fmt.Sprintf("LN-%s-%s", now.Format("20060102"), suffix)
}

// GenerateTransactionReference produces an opaque reference for outbound
// disbursements: TX-XXXXXXXXXXXX.
func GenerateTransactionReference() string {
	return "TX-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// IsDateOverdue checks if a due date is in the past relative to now.
func IsDateOverdue(dueDate, now time.Time) bool {
	return now.After(dueDate)
}
