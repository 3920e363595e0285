package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/skillyboy/agrolinker/internal/domain"
)

// Transactor scopes repository calls to a single atomic transaction. Engine
// operations that read-compute-write a group or loan aggregate must run
// inside one WithinTx call.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ThriftRepository defines data operations for thrift groups, memberships,
// contributions and payouts.
type ThriftRepository interface {
	Transactor

	// CreateGroup creates a new thrift group
	CreateGroup(ctx context.Context, group *domain.ThriftGroup) error

	// GetGroup retrieves a group by ID
	GetGroup(ctx context.Context, id uuid.UUID) (*domain.ThriftGroup, error)

	// GetGroupForUpdate retrieves a group with an exclusive row lock. Callers
	// serialize payout creation and membership joins on this lock.
	GetGroupForUpdate(ctx context.Context, id uuid.UUID) (*domain.ThriftGroup, error)

	// UpdateGroupCycle advances the group's current cycle counter
	UpdateGroupCycle(ctx context.Context, id uuid.UUID, cycle int) error

	// CreateMembership creates a membership with its assigned rotation order
	CreateMembership(ctx context.Context, membership *domain.ThriftMembership) error

	// GetMembership retrieves a membership by group and user
	GetMembership(ctx context.Context, groupID, userID uuid.UUID) (*domain.ThriftMembership, error)

	// GetActiveMemberships lists active memberships ordered by rotation order
	GetActiveMemberships(ctx context.Context, groupID uuid.UUID) ([]*domain.ThriftMembership, error)

	// MaxRotationOrder returns the highest rotation order in a group, 0 if empty
	MaxRotationOrder(ctx context.Context, groupID uuid.UUID) (int, error)

	// CreateContribution records a member's contribution for a cycle
	CreateContribution(ctx context.Context, contribution *domain.ThriftContribution) error

	// GetContribution retrieves a contribution by ID
	GetContribution(ctx context.Context, id uuid.UUID) (*domain.ThriftContribution, error)

	// MarkContributionVerified flips is_verified; returns false when the
	// contribution was already verified (no rows updated)
	MarkContributionVerified(ctx context.Context, id uuid.UUID, verifiedAt time.Time) (bool, error)

	// UpdateMembershipTotals credits a verified contribution to its membership
	UpdateMembershipTotals(ctx context.Context, membershipID uuid.UUID, delta decimal.Decimal, date time.Time) error

	// SumVerifiedContributions sums verified contribution amounts for a
	// group's cycle; zero when there are none
	SumVerifiedContributions(ctx context.Context, groupID uuid.UUID, cycle int) (decimal.Decimal, error)

	// GetLastPayout returns the most recent payout for a group, or nil when
	// the group has never paid out
	GetLastPayout(ctx context.Context, groupID uuid.UUID) (*domain.ThriftPayout, error)

	// CreatePayout inserts a payout row; the unique (group, cycle,
	// payout_order) constraint rejects concurrent duplicates
	CreatePayout(ctx context.Context, payout *domain.ThriftPayout) error

	// GetPayout retrieves a payout by ID
	GetPayout(ctx context.Context, id uuid.UUID) (*domain.ThriftPayout, error)

	// MarkPayoutDisbursed records the disbursement of a payout
	MarkPayoutDisbursed(ctx context.Context, id uuid.UUID, method, transactionRef string, at time.Time) error
}

// LoanRepository defines data operations for loan applications, repayment
// schedules and repayments.
type LoanRepository interface {
	Transactor

	// Create creates a new loan application
	Create(ctx context.Context, loan *domain.LoanApplication) error

	// GetByID retrieves a loan by ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.LoanApplication, error)

	// GetByReference retrieves a loan by its external reference
	GetByReference(ctx context.Context, reference string) (*domain.LoanApplication, error)

	// GetByReferenceForUpdate retrieves a loan by reference with an exclusive
	// row lock, serializing concurrent repayments against the same loan
	GetByReferenceForUpdate(ctx context.Context, reference string) (*domain.LoanApplication, error)

	// GetByFarmer lists a farmer's loans, newest first
	GetByFarmer(ctx context.Context, farmerID uuid.UUID) ([]*domain.LoanApplication, error)

	// HasPendingApplication reports whether the farmer already has a pending loan
	HasPendingApplication(ctx context.Context, farmerID uuid.UUID) (bool, error)

	// Update persists amount_paid, status and approval date changes
	Update(ctx context.Context, loan *domain.LoanApplication) error

	// CreateSchedule inserts all installments of a schedule in one batch
	CreateSchedule(ctx context.Context, schedule []*domain.RepaymentSchedule) error

	// GetScheduleByLoanID retrieves the full schedule ordered by installment number
	GetScheduleByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.RepaymentSchedule, error)

	// GetOpenInstallments retrieves installments that are not fully paid,
	// ordered by due date ascending (oldest first)
	GetOpenInstallments(ctx context.Context, loanID uuid.UUID) ([]*domain.RepaymentSchedule, error)

	// UpdateInstallment persists an installment's amount_paid and status
	UpdateInstallment(ctx context.Context, id uuid.UUID, amountPaid decimal.Decimal, status string) error

	// RepaymentReferenceExists reports whether a transaction reference has
	// already been ingested
	RepaymentReferenceExists(ctx context.Context, reference string) (bool, error)

	// CreateRepayment records an incoming repayment
	CreateRepayment(ctx context.Context, repayment *domain.LoanRepayment) error

	// GetRepaymentsByLoanID lists repayments for a loan by payment date
	GetRepaymentsByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.LoanRepayment, error)

	// MarkOverdueInstallments flips open installments past their due date to
	// overdue; returns how many rows changed
	MarkOverdueInstallments(ctx context.Context, asOf time.Time) (int64, error)
}
