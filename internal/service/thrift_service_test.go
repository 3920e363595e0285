package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/skillyboy/agrolinker/internal/domain"
	"github.com/skillyboy/agrolinker/internal/payment"
	customError "github.com/skillyboy/agrolinker/pkg/errors"
	"github.com/skillyboy/agrolinker/tests/mocks"
)

func makeMemberships(groupID uuid.UUID, n int) []*domain.ThriftMembership {
	memberships := make([]*domain.ThriftMembership, 0, n)
	for i := 1; i <= n; i++ {
		memberships = append(memberships, &domain.ThriftMembership{
			ID:            uuid.New(),
			GroupID:       groupID,
			UserID:        uuid.New(),
			RotationOrder: i,
			IsActive:      true,
		})
	}
	return memberships
}

func TestNextBeneficiary(t *testing.T) {
	groupID := uuid.New()
	memberships := makeMemberships(groupID, 3)

	tests := []struct {
		name          string
		memberships   []*domain.ThriftMembership
		lastPayout    *domain.ThriftPayout
		expectedOrder int
		expectWrapped bool
		expectedError error
	}{
		{
			name:          "First payout goes to rotation order 1",
			memberships:   memberships,
			lastPayout:    nil,
			expectedOrder: 1,
		},
		{
			name:          "Rotation advances one position",
			memberships:   memberships,
			lastPayout:    &domain.ThriftPayout{PayoutOrder: 1},
			expectedOrder: 2,
		},
		{
			name:          "Last position wraps back to first and starts a new cycle",
			memberships:   memberships,
			lastPayout:    &domain.ThriftPayout{PayoutOrder: 3},
			expectedOrder: 1,
			expectWrapped: true,
		},
		{
			name:          "No active members",
			memberships:   nil,
			lastPayout:    nil,
			expectedError: customError.ErrNoEligibleMember,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			beneficiary, wrapped, err := NextBeneficiary(tt.memberships, tt.lastPayout)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedOrder, beneficiary.RotationOrder)
			assert.Equal(t, tt.expectWrapped, wrapped)
		})
	}
}

func TestNextBeneficiaryCyclesThroughAllMembers(t *testing.T) {
	memberships := makeMemberships(uuid.New(), 3)

	// Issuing N+1 sequential payouts must yield the same beneficiary for
	// payout 1 and payout N+1.
	var lastPayout *domain.ThriftPayout
	var orders []int
	for i := 0; i < 4; i++ {
		beneficiary, _, err := NextBeneficiary(memberships, lastPayout)
		require.NoError(t, err)
		orders = append(orders, beneficiary.RotationOrder)
		lastPayout = &domain.ThriftPayout{PayoutOrder: beneficiary.RotationOrder}
	}

	assert.Equal(t, []int{1, 2, 3, 1}, orders)
}

func TestJoinGroup(t *testing.T) {
	groupID := uuid.New()

	activeGroup := func() *domain.ThriftGroup {
		return &domain.ThriftGroup{
			ID:                 groupID,
			ContributionAmount: decimal.NewFromInt(500),
			CurrentCycle:       1,
			IsActive:           true,
		}
	}

	notMember := customError.NewBusinessError(customError.ErrCodeMembershipNotFound, "membership not found", customError.ErrMembershipNotFound)

	t.Run("First member gets rotation order 1", func(t *testing.T) {
		repo := &mocks.MockThriftRepository{}
		svc := NewThriftService(repo, payment.DefaultRegistry())
		userID := uuid.New()

		repo.On("GetGroupForUpdate", mock.Anything, groupID).Return(activeGroup(), nil)
		repo.On("GetMembership", mock.Anything, groupID, userID).Return(nil, notMember)
		repo.On("MaxRotationOrder", mock.Anything, groupID).Return(0, nil)
		repo.On("CreateMembership", mock.Anything, mock.MatchedBy(func(m *domain.ThriftMembership) bool {
			return m.RotationOrder == 1 && m.UserID == userID
		})).Return(nil)

		membership, err := svc.JoinGroup(context.Background(), groupID, userID)

		require.NoError(t, err)
		assert.Equal(t, 1, membership.RotationOrder)
		assert.True(t, membership.TotalContributions.IsZero())
		repo.AssertExpectations(t)
	})

	t.Run("Successive members get strictly increasing orders", func(t *testing.T) {
		for existing := 1; existing <= 3; existing++ {
			repo := &mocks.MockThriftRepository{}
			svc := NewThriftService(repo, payment.DefaultRegistry())
			userID := uuid.New()

			repo.On("GetGroupForUpdate", mock.Anything, groupID).Return(activeGroup(), nil)
			repo.On("GetMembership", mock.Anything, groupID, userID).Return(nil, notMember)
			repo.On("MaxRotationOrder", mock.Anything, groupID).Return(existing, nil)
			repo.On("CreateMembership", mock.Anything, mock.Anything).Return(nil)

			membership, err := svc.JoinGroup(context.Background(), groupID, userID)

			require.NoError(t, err)
			assert.Equal(t, existing+1, membership.RotationOrder)
		}
	})

	t.Run("Duplicate membership rejected", func(t *testing.T) {
		repo := &mocks.MockThriftRepository{}
		svc := NewThriftService(repo, payment.DefaultRegistry())
		userID := uuid.New()

		repo.On("GetGroupForUpdate", mock.Anything, groupID).Return(activeGroup(), nil)
		repo.On("GetMembership", mock.Anything, groupID, userID).Return(&domain.ThriftMembership{RotationOrder: 2}, nil)

		_, err := svc.JoinGroup(context.Background(), groupID, userID)

		assert.ErrorIs(t, err, customError.ErrInvalidState)
		repo.AssertNotCalled(t, "CreateMembership", mock.Anything, mock.Anything)
	})

	t.Run("Inactive group rejected", func(t *testing.T) {
		repo := &mocks.MockThriftRepository{}
		svc := NewThriftService(repo, payment.DefaultRegistry())

		group := activeGroup()
		group.IsActive = false
		repo.On("GetGroupForUpdate", mock.Anything, groupID).Return(group, nil)

		_, err := svc.JoinGroup(context.Background(), groupID, uuid.New())

		assert.ErrorIs(t, err, customError.ErrInvalidState)
	})
}

func TestRecordContribution(t *testing.T) {
	groupID := uuid.New()
	userID := uuid.New()
	membershipID := uuid.New()

	group := &domain.ThriftGroup{
		ID:                 groupID,
		ContributionAmount: decimal.NewFromInt(500),
		CurrentCycle:       2,
		IsActive:           true,
	}
	membership := &domain.ThriftMembership{
		ID:       membershipID,
		GroupID:  groupID,
		UserID:   userID,
		IsActive: true,
	}

	request := func(amount int64) *domain.ContributionRequest {
		return &domain.ContributionRequest{
			UserID:               userID,
			Amount:               decimal.NewFromInt(amount),
			PaymentMethod:        domain.PaymentMethodCash,
			TransactionReference: "CT-001",
		}
	}

	t.Run("Contribution tagged with current cycle", func(t *testing.T) {
		repo := &mocks.MockThriftRepository{}
		svc := NewThriftService(repo, payment.DefaultRegistry())

		repo.On("GetGroup", mock.Anything, groupID).Return(group, nil)
		repo.On("GetMembership", mock.Anything, groupID, userID).Return(membership, nil)
		repo.On("CreateContribution", mock.Anything, mock.MatchedBy(func(c *domain.ThriftContribution) bool {
			return c.Cycle == 2 && c.MembershipID == membershipID && !c.IsVerified
		})).Return(nil)

		contribution, err := svc.RecordContribution(context.Background(), groupID, request(500))

		require.NoError(t, err)
		assert.Equal(t, 2, contribution.Cycle)
		repo.AssertExpectations(t)
	})

	t.Run("Amount mismatch rejected", func(t *testing.T) {
		repo := &mocks.MockThriftRepository{}
		svc := NewThriftService(repo, payment.DefaultRegistry())

		repo.On("GetGroup", mock.Anything, groupID).Return(group, nil)
		repo.On("GetMembership", mock.Anything, groupID, userID).Return(membership, nil)

		_, err := svc.RecordContribution(context.Background(), groupID, request(450))

		assert.ErrorIs(t, err, customError.ErrValidation)
		repo.AssertNotCalled(t, "CreateContribution", mock.Anything, mock.Anything)
	})
}

func TestVerifyContribution(t *testing.T) {
	contributionID := uuid.New()
	membershipID := uuid.New()
	datePaid := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	unverified := func() *domain.ThriftContribution {
		return &domain.ThriftContribution{
			ID:           contributionID,
			MembershipID: membershipID,
			Cycle:        1,
			Amount:       decimal.NewFromInt(500),
			IsVerified:   false,
			DatePaid:     datePaid,
		}
	}

	t.Run("First verification credits membership exactly once", func(t *testing.T) {
		repo := &mocks.MockThriftRepository{}
		svc := NewThriftService(repo, payment.DefaultRegistry())

		repo.On("GetContribution", mock.Anything, contributionID).Return(unverified(), nil)
		repo.On("MarkContributionVerified", mock.Anything, contributionID, mock.AnythingOfType("time.Time")).Return(true, nil)
		repo.On("UpdateMembershipTotals", mock.Anything, membershipID, decimal.NewFromInt(500), datePaid).Return(nil).Once()

		contribution, err := svc.VerifyContribution(context.Background(), contributionID)

		require.NoError(t, err)
		assert.True(t, contribution.IsVerified)
		repo.AssertExpectations(t)
	})

	t.Run("Re-verifying is a no-op", func(t *testing.T) {
		repo := &mocks.MockThriftRepository{}
		svc := NewThriftService(repo, payment.DefaultRegistry())

		verified := unverified()
		verified.IsVerified = true
		repo.On("GetContribution", mock.Anything, contributionID).Return(verified, nil)

		contribution, err := svc.VerifyContribution(context.Background(), contributionID)

		require.NoError(t, err)
		assert.True(t, contribution.IsVerified)
		repo.AssertNotCalled(t, "MarkContributionVerified", mock.Anything, mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "UpdateMembershipTotals", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Losing the verification race skips the credit", func(t *testing.T) {
		repo := &mocks.MockThriftRepository{}
		svc := NewThriftService(repo, payment.DefaultRegistry())

		repo.On("GetContribution", mock.Anything, contributionID).Return(unverified(), nil)
		repo.On("MarkContributionVerified", mock.Anything, contributionID, mock.AnythingOfType("time.Time")).Return(false, nil)

		_, err := svc.VerifyContribution(context.Background(), contributionID)

		require.NoError(t, err)
		repo.AssertNotCalled(t, "UpdateMembershipTotals", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestComputePot(t *testing.T) {
	groupID := uuid.New()
	group := &domain.ThriftGroup{ID: groupID, CurrentCycle: 3, IsActive: true}

	t.Run("Sums verified contributions of the current cycle", func(t *testing.T) {
		repo := &mocks.MockThriftRepository{}
		svc := NewThriftService(repo, payment.DefaultRegistry())

		repo.On("GetGroup", mock.Anything, groupID).Return(group, nil)
		repo.On("SumVerifiedContributions", mock.Anything, groupID, 3).Return(decimal.NewFromInt(1500), nil)

		pot, err := svc.ComputePot(context.Background(), groupID)

		require.NoError(t, err)
		assert.Equal(t, 3, pot.Cycle)
		assert.True(t, pot.Pot.Equal(decimal.NewFromInt(1500)))
	})

	t.Run("Empty cycle yields a zero pot, not an error", func(t *testing.T) {
		repo := &mocks.MockThriftRepository{}
		svc := NewThriftService(repo, payment.DefaultRegistry())

		repo.On("GetGroup", mock.Anything, groupID).Return(group, nil)
		repo.On("SumVerifiedContributions", mock.Anything, groupID, 3).Return(decimal.Zero, nil)

		pot, err := svc.ComputePot(context.Background(), groupID)

		require.NoError(t, err)
		assert.True(t, pot.Pot.IsZero())
	})
}

func TestExecutePayout(t *testing.T) {
	groupID := uuid.New()

	group := func(cycle int) *domain.ThriftGroup {
		return &domain.ThriftGroup{
			ID:                 groupID,
			ContributionAmount: decimal.NewFromInt(500),
			CurrentCycle:       cycle,
			IsActive:           true,
		}
	}

	t.Run("First payout goes to rotation order 1 with the cycle pot", func(t *testing.T) {
		repo := &mocks.MockThriftRepository{}
		svc := NewThriftService(repo, payment.DefaultRegistry())
		memberships := makeMemberships(groupID, 3)

		repo.On("GetGroupForUpdate", mock.Anything, groupID).Return(group(1), nil)
		repo.On("GetActiveMemberships", mock.Anything, groupID).Return(memberships, nil)
		repo.On("GetLastPayout", mock.Anything, groupID).Return(nil, nil)
		repo.On("SumVerifiedContributions", mock.Anything, groupID, 1).Return(decimal.NewFromInt(1500), nil)
		repo.On("CreatePayout", mock.Anything, mock.MatchedBy(func(p *domain.ThriftPayout) bool {
			return p.PayoutOrder == 1 && p.Cycle == 1 &&
				p.BeneficiaryUserID == memberships[0].UserID &&
				p.Amount.Equal(decimal.NewFromInt(1500))
		})).Return(nil)

		payout, err := svc.ExecutePayout(context.Background(), groupID)

		require.NoError(t, err)
		assert.Equal(t, 1, payout.PayoutOrder)
		assert.False(t, payout.IsDisbursed)
		repo.AssertNotCalled(t, "UpdateGroupCycle", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Payout after last position wraps to 1 and advances the cycle", func(t *testing.T) {
		repo := &mocks.MockThriftRepository{}
		svc := NewThriftService(repo, payment.DefaultRegistry())
		memberships := makeMemberships(groupID, 3)

		repo.On("GetGroupForUpdate", mock.Anything, groupID).Return(group(1), nil)
		repo.On("GetActiveMemberships", mock.Anything, groupID).Return(memberships, nil)
		repo.On("GetLastPayout", mock.Anything, groupID).Return(&domain.ThriftPayout{PayoutOrder: 3, Cycle: 1}, nil)
		repo.On("UpdateGroupCycle", mock.Anything, groupID, 2).Return(nil)
		repo.On("SumVerifiedContributions", mock.Anything, groupID, 2).Return(decimal.NewFromInt(1000), nil)
		repo.On("CreatePayout", mock.Anything, mock.MatchedBy(func(p *domain.ThriftPayout) bool {
			return p.PayoutOrder == 1 && p.Cycle == 2 && p.BeneficiaryUserID == memberships[0].UserID
		})).Return(nil)

		payout, err := svc.ExecutePayout(context.Background(), groupID)

		require.NoError(t, err)
		assert.Equal(t, 1, payout.PayoutOrder)
		assert.Equal(t, 2, payout.Cycle)
		repo.AssertExpectations(t)
	})

	t.Run("Group with no active members", func(t *testing.T) {
		repo := &mocks.MockThriftRepository{}
		svc := NewThriftService(repo, payment.DefaultRegistry())

		repo.On("GetGroupForUpdate", mock.Anything, groupID).Return(group(1), nil)
		repo.On("GetActiveMemberships", mock.Anything, groupID).Return([]*domain.ThriftMembership{}, nil)
		repo.On("GetLastPayout", mock.Anything, groupID).Return(nil, nil)

		_, err := svc.ExecutePayout(context.Background(), groupID)

		assert.ErrorIs(t, err, customError.ErrNoEligibleMember)
		repo.AssertNotCalled(t, "CreatePayout", mock.Anything, mock.Anything)
	})
}

func TestDisbursePayout(t *testing.T) {
	payoutID := uuid.New()

	pending := func() *domain.ThriftPayout {
		return &domain.ThriftPayout{
			ID:                payoutID,
			GroupID:           uuid.New(),
			BeneficiaryUserID: uuid.New(),
			Cycle:             1,
			Amount:            decimal.NewFromInt(1500),
			PayoutOrder:       1,
		}
	}

	t.Run("Disburses through the registered provider", func(t *testing.T) {
		repo := &mocks.MockThriftRepository{}
		svc := NewThriftService(repo, payment.DefaultRegistry())

		repo.On("GetPayout", mock.Anything, payoutID).Return(pending(), nil)
		repo.On("MarkPayoutDisbursed", mock.Anything, payoutID, domain.PaymentMethodTransfer, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)

		payout, err := svc.DisbursePayout(context.Background(), payoutID, domain.PaymentMethodTransfer)

		require.NoError(t, err)
		assert.True(t, payout.IsDisbursed)
		assert.NotEmpty(t, payout.TransactionReference)
	})

	t.Run("Unknown method rejected", func(t *testing.T) {
		repo := &mocks.MockThriftRepository{}
		svc := NewThriftService(repo, payment.DefaultRegistry())

		repo.On("GetPayout", mock.Anything, payoutID).Return(pending(), nil)

		_, err := svc.DisbursePayout(context.Background(), payoutID, "CHEQUE")

		assert.ErrorIs(t, err, customError.ErrValidation)
		repo.AssertNotCalled(t, "MarkPayoutDisbursed", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Double disbursement rejected", func(t *testing.T) {
		repo := &mocks.MockThriftRepository{}
		svc := NewThriftService(repo, payment.DefaultRegistry())

		disbursed := pending()
		disbursed.IsDisbursed = true
		repo.On("GetPayout", mock.Anything, payoutID).Return(disbursed, nil)

		_, err := svc.DisbursePayout(context.Background(), payoutID, domain.PaymentMethodCash)

		assert.ErrorIs(t, err, customError.ErrInvalidState)
	})
}
