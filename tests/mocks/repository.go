package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/skillyboy/agrolinker/internal/domain"
)

// MockThriftRepository mocks repository.ThriftRepository. WithinTx runs the
// callback inline so service logic under test behaves as if transactional.
type MockThriftRepository struct {
	mock.Mock
}

func (m *MockThriftRepository) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *MockThriftRepository) CreateGroup(ctx context.Context, group *domain.ThriftGroup) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

func (m *MockThriftRepository) GetGroup(ctx context.Context, id uuid.UUID) (*domain.ThriftGroup, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ThriftGroup), args.Error(1)
}

func (m *MockThriftRepository) GetGroupForUpdate(ctx context.Context, id uuid.UUID) (*domain.ThriftGroup, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ThriftGroup), args.Error(1)
}

func (m *MockThriftRepository) UpdateGroupCycle(ctx context.Context, id uuid.UUID, cycle int) error {
	args := m.Called(ctx, id, cycle)
	return args.Error(0)
}

func (m *MockThriftRepository) CreateMembership(ctx context.Context, membership *domain.ThriftMembership) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func (m *MockThriftRepository) GetMembership(ctx context.Context, groupID, userID uuid.UUID) (*domain.ThriftMembership, error) {
	args := m.Called(ctx, groupID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ThriftMembership), args.Error(1)
}

func (m *MockThriftRepository) GetActiveMemberships(ctx context.Context, groupID uuid.UUID) ([]*domain.ThriftMembership, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ThriftMembership), args.Error(1)
}

func (m *MockThriftRepository) MaxRotationOrder(ctx context.Context, groupID uuid.UUID) (int, error) {
	args := m.Called(ctx, groupID)
	return args.Int(0), args.Error(1)
}

func (m *MockThriftRepository) CreateContribution(ctx context.Context, contribution *domain.ThriftContribution) error {
	args := m.Called(ctx, contribution)
	return args.Error(0)
}

func (m *MockThriftRepository) GetContribution(ctx context.Context, id uuid.UUID) (*domain.ThriftContribution, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ThriftContribution), args.Error(1)
}

func (m *MockThriftRepository) MarkContributionVerified(ctx context.Context, id uuid.UUID, verifiedAt time.Time) (bool, error) {
	args := m.Called(ctx, id, verifiedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockThriftRepository) UpdateMembershipTotals(ctx context.Context, membershipID uuid.UUID, delta decimal.Decimal, date time.Time) error {
	args := m.Called(ctx, membershipID, delta, date)
	return args.Error(0)
}

func (m *MockThriftRepository) SumVerifiedContributions(ctx context.Context, groupID uuid.UUID, cycle int) (decimal.Decimal, error) {
	args := m.Called(ctx, groupID, cycle)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockThriftRepository) GetLastPayout(ctx context.Context, groupID uuid.UUID) (*domain.ThriftPayout, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ThriftPayout), args.Error(1)
}

func (m *MockThriftRepository) CreatePayout(ctx context.Context, payout *domain.ThriftPayout) error {
	args := m.Called(ctx, payout)
	return args.Error(0)
}

func (m *MockThriftRepository) GetPayout(ctx context.Context, id uuid.UUID) (*domain.ThriftPayout, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ThriftPayout), args.Error(1)
}

func (m *MockThriftRepository) MarkPayoutDisbursed(ctx context.Context, id uuid.UUID, method, transactionRef string, at time.Time) error {
	args := m.Called(ctx, id, method, transactionRef, at)
	return args.Error(0)
}

// MockLoanRepository mocks repository.LoanRepository.
type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *MockLoanRepository) Create(ctx context.Context, loan *domain.LoanApplication) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.LoanApplication, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanApplication), args.Error(1)
}

func (m *MockLoanRepository) GetByReference(ctx context.Context, reference string) (*domain.LoanApplication, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanApplication), args.Error(1)
}

func (m *MockLoanRepository) GetByReferenceForUpdate(ctx context.Context, reference string) (*domain.LoanApplication, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanApplication), args.Error(1)
}

func (m *MockLoanRepository) GetByFarmer(ctx context.Context, farmerID uuid.UUID) ([]*domain.LoanApplication, error) {
	args := m.Called(ctx, farmerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LoanApplication), args.Error(1)
}

func (m *MockLoanRepository) HasPendingApplication(ctx context.Context, farmerID uuid.UUID) (bool, error) {
	args := m.Called(ctx, farmerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLoanRepository) Update(ctx context.Context, loan *domain.LoanApplication) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) CreateSchedule(ctx context.Context, schedule []*domain.RepaymentSchedule) error {
	args := m.Called(ctx, schedule)
	return args.Error(0)
}

func (m *MockLoanRepository) GetScheduleByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.RepaymentSchedule, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RepaymentSchedule), args.Error(1)
}

func (m *MockLoanRepository) GetOpenInstallments(ctx context.Context, loanID uuid.UUID) ([]*domain.RepaymentSchedule, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RepaymentSchedule), args.Error(1)
}

func (m *MockLoanRepository) UpdateInstallment(ctx context.Context, id uuid.UUID, amountPaid decimal.Decimal, status string) error {
	args := m.Called(ctx, id, amountPaid, status)
	return args.Error(0)
}

func (m *MockLoanRepository) RepaymentReferenceExists(ctx context.Context, reference string) (bool, error) {
	args := m.Called(ctx, reference)
	return args.Bool(0), args.Error(1)
}

func (m *MockLoanRepository) CreateRepayment(ctx context.Context, repayment *domain.LoanRepayment) error {
	args := m.Called(ctx, repayment)
	return args.Error(0)
}

func (m *MockLoanRepository) GetRepaymentsByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.LoanRepayment, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LoanRepayment), args.Error(1)
}

func (m *MockLoanRepository) MarkOverdueInstallments(ctx context.Context, asOf time.Time) (int64, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).(int64), args.Error(1)
}
