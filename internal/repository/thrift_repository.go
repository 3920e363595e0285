package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/skillyboy/agrolinker/internal/domain"
	customError "github.com/skillyboy/agrolinker/pkg/errors"
)

type thriftRepository struct {
	store
}

func NewThriftRepository(db *sqlx.DB) ThriftRepository {
	return &thriftRepository{store{db: db}}
}

func (r *thriftRepository) CreateGroup(ctx context.Context, group *domain.ThriftGroup) error {
	query := `
		INSERT INTO thrift_groups (id, name, admin_id, description, meeting_schedule, contribution_amount, cycle_duration_weeks, current_cycle, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.q(ctx).ExecContext(ctx, query,
		group.ID,
		group.Name,
		group.AdminID,
		group.Description,
		group.MeetingSchedule,
		group.ContributionAmount,
		group.CycleDurationWeeks,
		group.CurrentCycle,
		group.IsActive,
		group.CreatedAt,
	)

	return err
}

func (r *thriftRepository) GetGroup(ctx context.Context, id uuid.UUID) (*domain.ThriftGroup, error) {
	return r.getGroup(ctx, id, false)
}

func (r *thriftRepository) GetGroupForUpdate(ctx context.Context, id uuid.UUID) (*domain.ThriftGroup, error) {
	return r.getGroup(ctx, id, true)
}

func (r *thriftRepository) getGroup(ctx context.Context, id uuid.UUID, forUpdate bool) (*domain.ThriftGroup, error) {
	query := `
		SELECT id, name, admin_id, description, meeting_schedule, contribution_amount, cycle_duration_weeks, current_cycle, is_active, created_at
		FROM thrift_groups
		WHERE id = $1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var group domain.ThriftGroup
	err := r.q(ctx).GetContext(ctx, &group, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapGroupNotFound(id.String())
	}
	if err != nil {
		return nil, err
	}

	return &group, nil
}

func (r *thriftRepository) UpdateGroupCycle(ctx context.Context, id uuid.UUID, cycle int) error {
	query := `UPDATE thrift_groups SET current_cycle = $2 WHERE id = $1`

	_, err := r.q(ctx).ExecContext(ctx, query, id, cycle)
	return err
}

func (r *thriftRepository) CreateMembership(ctx context.Context, membership *domain.ThriftMembership) error {
	query := `
		INSERT INTO thrift_memberships (id, group_id, user_id, rotation_order, total_contributions, last_contribution_date, is_active, join_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q(ctx).ExecContext(ctx, query,
		membership.ID,
		membership.GroupID,
		membership.UserID,
		membership.RotationOrder,
		membership.TotalContributions,
		membership.LastContributionDate,
		membership.IsActive,
		membership.JoinDate,
	)

	return err
}

func (r *thriftRepository) GetMembership(ctx context.Context, groupID, userID uuid.UUID) (*domain.ThriftMembership, error) {
	query := `
		SELECT id, group_id, user_id, rotation_order, total_contributions, last_contribution_date, is_active, join_date
		FROM thrift_memberships
		WHERE group_id = $1 AND user_id = $2
	`

	var membership domain.ThriftMembership
	err := r.q(ctx).GetContext(ctx, &membership, query, groupID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.NewBusinessError(customError.ErrCodeMembershipNotFound, "membership not found", customError.ErrMembershipNotFound)
	}
	if err != nil {
		return nil, err
	}

	return &membership, nil
}

func (r *thriftRepository) GetActiveMemberships(ctx context.Context, groupID uuid.UUID) ([]*domain.ThriftMembership, error) {
	query := `
		SELECT id, group_id, user_id, rotation_order, total_contributions, last_contribution_date, is_active, join_date
		FROM thrift_memberships
		WHERE group_id = $1 AND is_active = true
		ORDER BY rotation_order
	`

	var memberships []*domain.ThriftMembership
	err := r.q(ctx).SelectContext(ctx, &memberships, query, groupID)
	if err != nil {
		return nil, err
	}

	return memberships, nil
}

func (r *thriftRepository) MaxRotationOrder(ctx context.Context, groupID uuid.UUID) (int, error) {
	query := `
		SELECT COALESCE(MAX(rotation_order), 0)
		FROM thrift_memberships
		WHERE group_id = $1
	`

	var max int
	err := r.q(ctx).GetContext(ctx, &max, query, groupID)
	if err != nil {
		return 0, err
	}

	return max, nil
}

func (r *thriftRepository) CreateContribution(ctx context.Context, contribution *domain.ThriftContribution) error {
	query := `
		INSERT INTO thrift_contributions (id, membership_id, cycle, amount, payment_method, transaction_reference, is_verified, verified_at, date_paid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.q(ctx).ExecContext(ctx, query,
		contribution.ID,
		contribution.MembershipID,
		contribution.Cycle,
		contribution.Amount,
		contribution.PaymentMethod,
		contribution.TransactionReference,
		contribution.IsVerified,
		contribution.VerifiedAt,
		contribution.DatePaid,
	)

	return err
}

func (r *thriftRepository) GetContribution(ctx context.Context, id uuid.UUID) (*domain.ThriftContribution, error) {
	query := `
		SELECT id, membership_id, cycle, amount, payment_method, transaction_reference, is_verified, verified_at, date_paid
		FROM thrift_contributions
		WHERE id = $1
	`

	var contribution domain.ThriftContribution
	err := r.q(ctx).GetContext(ctx, &contribution, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.NewBusinessError(customError.ErrCodeContributionNotFound, "contribution not found", customError.ErrContributionNotFound)
	}
	if err != nil {
		return nil, err
	}

	return &contribution, nil
}

// MarkContributionVerified only touches unverified rows, so verifying twice
// is a no-op at the database level and the caller can skip the membership
// credit when no row changed.
func (r *thriftRepository) MarkContributionVerified(ctx context.Context, id uuid.UUID, verifiedAt time.Time) (bool, error) {
	query := `
		UPDATE thrift_contributions
		SET is_verified = true, verified_at = $2
		WHERE id = $1 AND is_verified = false
	`

	result, err := r.q(ctx).ExecContext(ctx, query, id, verifiedAt)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

func (r *thriftRepository) UpdateMembershipTotals(ctx context.Context, membershipID uuid.UUID, delta decimal.Decimal, date time.Time) error {
	query := `
		UPDATE thrift_memberships
		SET total_contributions = total_contributions + $2, last_contribution_date = $3
		WHERE id = $1
	`

	_, err := r.q(ctx).ExecContext(ctx, query, membershipID, delta, date)
	return err
}

func (r *thriftRepository) SumVerifiedContributions(ctx context.Context, groupID uuid.UUID, cycle int) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(c.amount), 0)
		FROM thrift_contributions c
		JOIN thrift_memberships m ON m.id = c.membership_id
		WHERE m.group_id = $1 AND c.cycle = $2 AND c.is_verified = true
	`

	var total decimal.Decimal
	err := r.q(ctx).GetContext(ctx, &total, query, groupID, cycle)
	if err != nil {
		return decimal.Zero, err
	}

	return total, nil
}

// GetLastPayout returns (nil, nil) when the group has never paid out, so
// callers branch on the missing value instead of matching driver errors.
func (r *thriftRepository) GetLastPayout(ctx context.Context, groupID uuid.UUID) (*domain.ThriftPayout, error) {
	query := `
		SELECT id, group_id, beneficiary_user_id, cycle, amount, payout_order, is_disbursed, disbursement_date, disbursement_method, transaction_reference, created_at
		FROM thrift_payouts
		WHERE group_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var payout domain.ThriftPayout
	err := r.q(ctx).GetContext(ctx, &payout, query, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &payout, nil
}

func (r *thriftRepository) CreatePayout(ctx context.Context, payout *domain.ThriftPayout) error {
	query := `
		INSERT INTO thrift_payouts (id, group_id, beneficiary_user_id, cycle, amount, payout_order, is_disbursed, disbursement_date, disbursement_method, transaction_reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.q(ctx).ExecContext(ctx, query,
		payout.ID,
		payout.GroupID,
		payout.BeneficiaryUserID,
		payout.Cycle,
		payout.Amount,
		payout.PayoutOrder,
		payout.IsDisbursed,
		payout.DisbursementDate,
		payout.DisbursementMethod,
		payout.TransactionReference,
		payout.CreatedAt,
	)

	return err
}

func (r *thriftRepository) GetPayout(ctx context.Context, id uuid.UUID) (*domain.ThriftPayout, error) {
	query := `
		SELECT id, group_id, beneficiary_user_id, cycle, amount, payout_order, is_disbursed, disbursement_date, disbursement_method, transaction_reference, created_at
		FROM thrift_payouts
		WHERE id = $1
	`

	var payout domain.ThriftPayout
	err := r.q(ctx).GetContext(ctx, &payout, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.NewBusinessError(customError.ErrCodePayoutNotFound, "payout not found", customError.ErrPayoutNotFound)
	}
	if err != nil {
		return nil, err
	}

	return &payout, nil
}

func (r *thriftRepository) MarkPayoutDisbursed(ctx context.Context, id uuid.UUID, method, transactionRef string, at time.Time) error {
	query := `
		UPDATE thrift_payouts
		SET is_disbursed = true, disbursement_method = $2, transaction_reference = $3, disbursement_date = $4
		WHERE id = $1
	`

	_, err := r.q(ctx).ExecContext(ctx, query, id, method, transactionRef, at)
	return err
}
