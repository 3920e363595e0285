package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ThriftGroup is a rotating savings group. Members contribute a fixed amount
// per cycle and take turns receiving the pooled total.
type ThriftGroup struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	Name               string          `json:"name" db:"name"`
	AdminID            uuid.UUID       `json:"admin_id" db:"admin_id"`
	Description        string          `json:"description,omitempty" db:"description"`
	MeetingSchedule    string          `json:"meeting_schedule,omitempty" db:"meeting_schedule"`
	ContributionAmount decimal.Decimal `json:"contribution_amount" db:"contribution_amount"`
	CycleDurationWeeks int             `json:"cycle_duration_weeks" db:"cycle_duration_weeks"`
	CurrentCycle       int             `json:"current_cycle" db:"current_cycle"`
	IsActive           bool            `json:"is_active" db:"is_active"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
}

// ThriftMembership ties a user to a group. RotationOrder is assigned once at
// join time and never changes; within a group the orders form a contiguous
// 1..N sequence.
type ThriftMembership struct {
	ID                   uuid.UUID       `json:"id" db:"id"`
	GroupID              uuid.UUID       `json:"group_id" db:"group_id"`
	UserID               uuid.UUID       `json:"user_id" db:"user_id"`
	RotationOrder        int             `json:"rotation_order" db:"rotation_order"`
	TotalContributions   decimal.Decimal `json:"total_contributions" db:"total_contributions"`
	LastContributionDate *time.Time      `json:"last_contribution_date,omitempty" db:"last_contribution_date"`
	IsActive             bool            `json:"is_active" db:"is_active"`
	JoinDate             time.Time       `json:"join_date" db:"join_date"`
}

// ThriftContribution is one member's payment into a cycle's pot. Verification
// is one-way: once verified it stays verified, and the owning membership's
// totals are credited exactly once.
type ThriftContribution struct {
	ID                   uuid.UUID       `json:"id" db:"id"`
	MembershipID         uuid.UUID       `json:"membership_id" db:"membership_id"`
	Cycle                int             `json:"cycle" db:"cycle"`
	Amount               decimal.Decimal `json:"amount" db:"amount"`
	PaymentMethod        string          `json:"payment_method" db:"payment_method"`
	TransactionReference string          `json:"transaction_reference" db:"transaction_reference"`
	IsVerified           bool            `json:"is_verified" db:"is_verified"`
	VerifiedAt           *time.Time      `json:"verified_at,omitempty" db:"verified_at"`
	DatePaid             time.Time       `json:"date_paid" db:"date_paid"`
}

// ThriftPayout is a disbursement of a cycle's pot to the member whose turn it
// is. (GroupID, Cycle, PayoutOrder) is unique.
type ThriftPayout struct {
	ID                   uuid.UUID       `json:"id" db:"id"`
	GroupID              uuid.UUID       `json:"group_id" db:"group_id"`
	BeneficiaryUserID    uuid.UUID       `json:"beneficiary_user_id" db:"beneficiary_user_id"`
	Cycle                int             `json:"cycle" db:"cycle"`
	Amount               decimal.Decimal `json:"amount" db:"amount"`
	PayoutOrder          int             `json:"payout_order" db:"payout_order"`
	IsDisbursed          bool            `json:"is_disbursed" db:"is_disbursed"`
	DisbursementDate     *time.Time      `json:"disbursement_date,omitempty" db:"disbursement_date"`
	DisbursementMethod   string          `json:"disbursement_method,omitempty" db:"disbursement_method"`
	TransactionReference string          `json:"transaction_reference,omitempty" db:"transaction_reference"`
	CreatedAt            time.Time       `json:"created_at" db:"created_at"`
}

// DTOs for requests and responses

type CreateGroupRequest struct {
	Name               string          `json:"name" validate:"required"`
	AdminID            uuid.UUID       `json:"admin_id" validate:"required"`
	Description        string          `json:"description"`
	MeetingSchedule    string          `json:"meeting_schedule"`
	ContributionAmount decimal.Decimal `json:"contribution_amount" validate:"required"`
	CycleDurationWeeks int             `json:"cycle_duration_weeks" validate:"required,gt=0"`
}

type JoinGroupRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

type ContributionRequest struct {
	UserID               uuid.UUID       `json:"user_id" validate:"required"`
	Amount               decimal.Decimal `json:"amount" validate:"required"`
	PaymentMethod        string          `json:"payment_method" validate:"required"`
	TransactionReference string          `json:"transaction_reference" validate:"required"`
}

type DisbursePayoutRequest struct {
	Method string `json:"method" validate:"required"`
}

type PotResponse struct {
	GroupID uuid.UUID       `json:"group_id"`
	Cycle   int             `json:"cycle"`
	Pot     decimal.Decimal `json:"pot"`
}
