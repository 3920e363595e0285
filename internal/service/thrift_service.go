package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/skillyboy/agrolinker/internal/domain"
	"github.com/skillyboy/agrolinker/internal/payment"
	"github.com/skillyboy/agrolinker/internal/repository"
	customError "github.com/skillyboy/agrolinker/pkg/errors"
)

// ThriftService manages rotating savings groups: membership rotation order,
// contribution verification and beneficiary payouts.
type ThriftService struct {
	ThriftRepo repository.ThriftRepository
	providers  *payment.Registry
}

func NewThriftService(thriftRepo repository.ThriftRepository, providers *payment.Registry) *ThriftService {
	return &ThriftService{
		ThriftRepo: thriftRepo,
		providers:  providers,
	}
}

// CreateGroup creates a new thrift group starting at cycle 1.
func (s *ThriftService) CreateGroup(ctx context.Context, request *domain.CreateGroupRequest) (*domain.ThriftGroup, error) {
	if !request.ContributionAmount.IsPositive() {
		return nil, customError.WrapValidation("contribution amount must be positive")
	}
	if request.CycleDurationWeeks <= 0 {
		return nil, customError.WrapValidation("cycle duration must be positive")
	}

	group := &domain.ThriftGroup{
		ID:                 uuid.New(),
		Name:               request.Name,
		AdminID:            request.AdminID,
		Description:        request.Description,
		MeetingSchedule:    request.MeetingSchedule,
		ContributionAmount: request.ContributionAmount,
		CycleDurationWeeks: request.CycleDurationWeeks,
		CurrentCycle:       1,
		IsActive:           true,
		CreatedAt:          time.Now(),
	}

	if err := s.ThriftRepo.CreateGroup(ctx, group); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return group, nil
}

// JoinGroup adds a user to a group, assigning the next rotation order in
// sequence. The group row is locked so two concurrent joins cannot take the
// same order. Rotation order is assigned exactly once and never changes.
func (s *ThriftService) JoinGroup(ctx context.Context, groupID, userID uuid.UUID) (*domain.ThriftMembership, error) {
	var membership *domain.ThriftMembership

	err := s.ThriftRepo.WithinTx(ctx, func(ctx context.Context) error {
		group, err := s.ThriftRepo.GetGroupForUpdate(ctx, groupID)
		if err != nil {
			return err
		}

		if !group.IsActive {
			return customError.WrapInvalidState("group is not active")
		}

		if existing, err := s.ThriftRepo.GetMembership(ctx, groupID, userID); err == nil && existing != nil {
			return customError.WrapInvalidState("user is already a member of this group")
		}

		maxOrder, err := s.ThriftRepo.MaxRotationOrder(ctx, groupID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}

		membership = &domain.ThriftMembership{
			ID:                 uuid.New(),
			GroupID:            groupID,
			UserID:             userID,
			RotationOrder:      maxOrder + 1,
			TotalContributions: decimal.Zero,
			IsActive:           true,
			JoinDate:           time.Now(),
		}

		if err := s.ThriftRepo.CreateMembership(ctx, membership); err != nil {
			return customError.WrapDatabaseError(err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return membership, nil
}

// RecordContribution records an unverified contribution for the group's
// current cycle. The amount must match the group's fixed contribution amount.
func (s *ThriftService) RecordContribution(ctx context.Context, groupID uuid.UUID, request *domain.ContributionRequest) (*domain.ThriftContribution, error) {
	group, err := s.ThriftRepo.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	membership, err := s.ThriftRepo.GetMembership(ctx, groupID, request.UserID)
	if err != nil {
		return nil, err
	}

	if !membership.IsActive {
		return nil, customError.WrapInvalidState("membership is not active")
	}

	if !request.Amount.Equal(group.ContributionAmount) {
		return nil, customError.WrapValidation("contribution amount must match group's set amount")
	}

	contribution := &domain.ThriftContribution{
		ID:                   uuid.New(),
		MembershipID:         membership.ID,
		Cycle:                group.CurrentCycle,
		Amount:               request.Amount,
		PaymentMethod:        request.PaymentMethod,
		TransactionReference: request.TransactionReference,
		IsVerified:           false,
		DatePaid:             time.Now(),
	}

	if err := s.ThriftRepo.CreateContribution(ctx, contribution); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return contribution, nil
}

// VerifyContribution transitions a contribution to verified and credits the
// owning membership's running totals. The transition is one-way and
// idempotent: verifying an already-verified contribution is a no-op, so a
// retried verification call can never double-credit the member.
func (s *ThriftService) VerifyContribution(ctx context.Context, contributionID uuid.UUID) (*domain.ThriftContribution, error) {
	var contribution *domain.ThriftContribution

	err := s.ThriftRepo.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		contribution, err = s.ThriftRepo.GetContribution(ctx, contributionID)
		if err != nil {
			return err
		}

		if contribution.IsVerified {
			return nil
		}

		now := time.Now()
		updated, err := s.ThriftRepo.MarkContributionVerified(ctx, contributionID, now)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		if !updated {
			// Another verifier won the race; the credit already happened.
			return nil
		}

		if err := s.ThriftRepo.UpdateMembershipTotals(ctx, contribution.MembershipID, contribution.Amount, contribution.DatePaid); err != nil {
			return customError.WrapDatabaseError(err)
		}

		contribution.IsVerified = true
		contribution.VerifiedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	return contribution, nil
}

// NextBeneficiary resolves which membership receives the next payout. The
// rotation advances one position past the last payout and wraps back to the
// first member after the final position; the wrap starts a new cycle.
// Memberships must be the group's active members ordered by rotation order.
func NextBeneficiary(memberships []*domain.ThriftMembership, lastPayout *domain.ThriftPayout) (*domain.ThriftMembership, bool, error) {
	if len(memberships) == 0 {
		return nil, false, customError.ErrNoEligibleMember
	}

	nextOrder := 1
	wrapped := false
	if lastPayout != nil {
		nextOrder = lastPayout.PayoutOrder + 1
		if nextOrder > memberships[len(memberships)-1].RotationOrder {
			nextOrder = 1
			wrapped = true
		}
	}

	// Rotation orders are contiguous for a group that never loses members;
	// when a member has gone inactive the next higher order takes the turn.
	for _, m := range memberships {
		if m.RotationOrder >= nextOrder {
			return m, wrapped, nil
		}
	}

	return memberships[0], true, nil
}

// ComputePot sums verified contributions for the group's current cycle.
// Contributions from earlier cycles were consumed by earlier payouts and are
// excluded. A cycle with no verified contributions has a zero pot.
func (s *ThriftService) ComputePot(ctx context.Context, groupID uuid.UUID) (*domain.PotResponse, error) {
	group, err := s.ThriftRepo.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	pot, err := s.ThriftRepo.SumVerifiedContributions(ctx, groupID, group.CurrentCycle)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return &domain.PotResponse{
		GroupID: groupID,
		Cycle:   group.CurrentCycle,
		Pot:     pot,
	}, nil
}

// ExecutePayout resolves the next beneficiary, snapshots the verified pot and
// creates the payout record. The whole read-compute-write cycle runs inside
// one transaction holding the group's row lock, so no two payouts can be
// created concurrently for the same position; the unique (group, cycle,
// payout_order) constraint backs this up.
func (s *ThriftService) ExecutePayout(ctx context.Context, groupID uuid.UUID) (*domain.ThriftPayout, error) {
	var payout *domain.ThriftPayout

	err := s.ThriftRepo.WithinTx(ctx, func(ctx context.Context) error {
		group, err := s.ThriftRepo.GetGroupForUpdate(ctx, groupID)
		if err != nil {
			return err
		}

		memberships, err := s.ThriftRepo.GetActiveMemberships(ctx, groupID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}

		lastPayout, err := s.ThriftRepo.GetLastPayout(ctx, groupID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}

		beneficiary, wrapped, err := NextBeneficiary(memberships, lastPayout)
		if err != nil {
			return customError.WrapNoEligibleMember(groupID.String())
		}

		cycle := group.CurrentCycle
		if wrapped {
			cycle++
			if err := s.ThriftRepo.UpdateGroupCycle(ctx, groupID, cycle); err != nil {
				return customError.WrapDatabaseError(err)
			}
		}

		pot, err := s.ThriftRepo.SumVerifiedContributions(ctx, groupID, cycle)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}

		payout = &domain.ThriftPayout{
			ID:                uuid.New(),
			GroupID:           groupID,
			BeneficiaryUserID: beneficiary.UserID,
			Cycle:             cycle,
			Amount:            pot,
			PayoutOrder:       beneficiary.RotationOrder,
			IsDisbursed:       false,
			CreatedAt:         time.Now(),
		}

		if err := s.ThriftRepo.CreatePayout(ctx, payout); err != nil {
			return customError.WrapDatabaseError(err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return payout, nil
}

// DisbursePayout pushes a created payout through the payment provider for the
// requested method and records the resulting transaction reference.
func (s *ThriftService) DisbursePayout(ctx context.Context, payoutID uuid.UUID, method string) (*domain.ThriftPayout, error) {
	var payout *domain.ThriftPayout

	err := s.ThriftRepo.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		payout, err = s.ThriftRepo.GetPayout(ctx, payoutID)
		if err != nil {
			return err
		}

		if payout.IsDisbursed {
			return customError.WrapInvalidState("payout has already been disbursed")
		}

		provider, err := s.providers.Get(method)
		if err != nil {
			return customError.WrapValidation(err.Error())
		}

		transactionRef, err := provider.Disburse(ctx, payout.BeneficiaryUserID.String(), payout.Amount)
		if err != nil {
			return err
		}

		now := time.Now()
		if err := s.ThriftRepo.MarkPayoutDisbursed(ctx, payoutID, method, transactionRef, now); err != nil {
			return customError.WrapDatabaseError(err)
		}

		payout.IsDisbursed = true
		payout.DisbursementMethod = method
		payout.TransactionReference = transactionRef
		payout.DisbursementDate = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	return payout, nil
}

// GetGroup returns a group by ID.
func (s *ThriftService) GetGroup(ctx context.Context, groupID uuid.UUID) (*domain.ThriftGroup, error) {
	return s.ThriftRepo.GetGroup(ctx, groupID)
}

// GetMemberships returns a group's active memberships in rotation order.
func (s *ThriftService) GetMemberships(ctx context.Context, groupID uuid.UUID) ([]*domain.ThriftMembership, error) {
	return s.ThriftRepo.GetActiveMemberships(ctx, groupID)
}
