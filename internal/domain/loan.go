package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	LoanStatusPending       = "pending"
	LoanStatusApproved      = "approved"
	LoanStatusRejected      = "rejected"
	LoanStatusDisbursed     = "disbursed"
	LoanStatusPartiallyPaid = "partially_paid"
	LoanStatusRepaid        = "repaid"
	LoanStatusDefaulted     = "defaulted"
)

// LoanApplication represents a farmer's loan ledger. ReferenceID is the
// external identifier carried on repayment webhooks.
type LoanApplication struct {
	ID                    uuid.UUID       `json:"id" db:"id"`
	FarmerID              uuid.UUID       `json:"farmer_id" db:"farmer_id"`
	ReferenceID           string          `json:"reference_id" db:"reference_id"`
	Amount                decimal.Decimal `json:"amount" db:"amount"`
	AmountPaid            decimal.Decimal `json:"amount_paid" db:"amount_paid"`
	Purpose               string          `json:"purpose" db:"purpose"`
	CollateralDetails     string          `json:"collateral_details,omitempty" db:"collateral_details"`
	RepaymentPeriodMonths int             `json:"repayment_period_months" db:"repayment_period_months"`
	Status                string          `json:"status" db:"status"`
	ApplicationDate       time.Time       `json:"application_date" db:"application_date"`
	ApprovalDate          *time.Time      `json:"approval_date,omitempty" db:"approval_date"`
	CreatedAt             time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at" db:"updated_at"`
}

// Outstanding returns the unpaid balance, floored at zero.
func (l *LoanApplication) Outstanding() decimal.Decimal {
	balance := l.Amount.Sub(l.AmountPaid)
	if balance.IsNegative() {
		return decimal.Zero
	}
	return balance
}

// Repayable reports whether the loan can accept repayments.
func (l *LoanApplication) Repayable() bool {
	return l.Status == LoanStatusApproved || l.Status == LoanStatusPartiallyPaid
}

const (
	InstallmentStatusPending       = "pending"
	InstallmentStatusPartiallyPaid = "partially_paid"
	InstallmentStatusPaid          = "paid"
	InstallmentStatusOverdue       = "overdue"
)

// RepaymentSchedule is a single installment of a loan's amortized schedule.
type RepaymentSchedule struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	LoanID            uuid.UUID       `json:"loan_id" db:"loan_id"`
	InstallmentNumber int             `json:"installment_number" db:"installment_number"`
	DueDate           time.Time       `json:"due_date" db:"due_date"`
	Amount            decimal.Decimal `json:"amount" db:"amount"`
	AmountPaid        decimal.Decimal `json:"amount_paid" db:"amount_paid"`
	Status            string          `json:"status" db:"status"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}

// Remaining returns how much of the installment is still owed.
func (s *RepaymentSchedule) Remaining() decimal.Decimal {
	return s.Amount.Sub(s.AmountPaid)
}

// LoanRepayment is one incoming payment against a loan. TransactionReference
// is globally unique and acts as the idempotency key for webhook ingestion.
type LoanRepayment struct {
	ID                   uuid.UUID       `json:"id" db:"id"`
	LoanID               uuid.UUID       `json:"loan_id" db:"loan_id"`
	Amount               decimal.Decimal `json:"amount" db:"amount"`
	TransactionReference string          `json:"transaction_reference" db:"transaction_reference"`
	PaymentDate          time.Time       `json:"payment_date" db:"payment_date"`
	PaymentMethod        string          `json:"payment_method" db:"payment_method"`
	CreatedAt            time.Time       `json:"created_at" db:"created_at"`
}

// DTOs for requests and responses

type LoanApplicationRequest struct {
	FarmerID              uuid.UUID       `json:"farmer_id" validate:"required"`
	Amount                decimal.Decimal `json:"amount" validate:"required"`
	Purpose               string          `json:"purpose" validate:"required"`
	CollateralDetails     string          `json:"collateral_details"`
	RepaymentPeriodMonths int             `json:"repayment_period_months" validate:"required,gt=0"`
}

type LoanApplicationResponse struct {
	Loan     *LoanApplication     `json:"loan"`
	Schedule []*RepaymentSchedule `json:"schedule"`
}

type OutstandingResponse struct {
	ReferenceID string          `json:"reference_id"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Status      string          `json:"status"`
}
