package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment methods accepted for contributions, repayments and disbursements.
const (
	PaymentMethodCash        = "CASH"
	PaymentMethodTransfer    = "TRANSFER"
	PaymentMethodMobileMoney = "MOBILE_MONEY"
)

// RepaymentWebhookPayload is the body posted by the MFI partner when a
// borrower repays through them. The raw body is HMAC-signed; see
// pkg/signature.
type RepaymentWebhookPayload struct {
	LoanReference        string          `json:"loan_reference" validate:"required"`
	Amount               decimal.Decimal `json:"amount" validate:"required"`
	TransactionReference string          `json:"transaction_reference" validate:"required"`
	PaymentDate          time.Time       `json:"payment_date" validate:"required"`
	PaymentMethod        string          `json:"payment_method" validate:"required,oneof=CASH TRANSFER MOBILE_MONEY"`
}

// RepaymentResult is returned to the webhook caller. Excess carries any
// over-payment beyond the outstanding schedule so the partner can reconcile
// it instead of it being silently dropped.
type RepaymentResult struct {
	Success bool            `json:"success"`
	Balance decimal.Decimal `json:"balance"`
	Excess  decimal.Decimal `json:"excess"`
}
