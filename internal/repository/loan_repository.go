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

type loanRepository struct {
	store
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{store{db: db}}
}

func (r *loanRepository) Create(ctx context.Context, loan *domain.LoanApplication) error {
	query := `
		INSERT INTO loan_applications (id, farmer_id, reference_id, amount, amount_paid, purpose, collateral_details, repayment_period_months, status, application_date, approval_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.q(ctx).ExecContext(ctx, query,
		loan.ID,
		loan.FarmerID,
		loan.ReferenceID,
		loan.Amount,
		loan.AmountPaid,
		loan.Purpose,
		loan.CollateralDetails,
		loan.RepaymentPeriodMonths,
		loan.Status,
		loan.ApplicationDate,
		loan.ApprovalDate,
		loan.CreatedAt,
		loan.UpdatedAt,
	)

	return err
}

const loanColumns = `id, farmer_id, reference_id, amount, amount_paid, purpose, collateral_details, repayment_period_months, status, application_date, approval_date, created_at, updated_at`

func (r *loanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.LoanApplication, error) {
	query := `SELECT ` + loanColumns + ` FROM loan_applications WHERE id = $1`

	var loan domain.LoanApplication
	err := r.q(ctx).GetContext(ctx, &loan, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapLoanNotFound(id.String())
	}
	if err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) GetByReference(ctx context.Context, reference string) (*domain.LoanApplication, error) {
	return r.getByReference(ctx, reference, false)
}

func (r *loanRepository) GetByReferenceForUpdate(ctx context.Context, reference string) (*domain.LoanApplication, error) {
	return r.getByReference(ctx, reference, true)
}

func (r *loanRepository) getByReference(ctx context.Context, reference string, forUpdate bool) (*domain.LoanApplication, error) {
	query := `SELECT ` + loanColumns + ` FROM loan_applications WHERE reference_id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var loan domain.LoanApplication
	err := r.q(ctx).GetContext(ctx, &loan, query, reference)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapLoanNotFound(reference)
	}
	if err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) GetByFarmer(ctx context.Context, farmerID uuid.UUID) ([]*domain.LoanApplication, error) {
	query := `SELECT ` + loanColumns + ` FROM loan_applications WHERE farmer_id = $1 ORDER BY application_date DESC`

	var loans []*domain.LoanApplication
	err := r.q(ctx).SelectContext(ctx, &loans, query, farmerID)
	if err != nil {
		return nil, err
	}

	return loans, nil
}

func (r *loanRepository) HasPendingApplication(ctx context.Context, farmerID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM loan_applications WHERE farmer_id = $1 AND status = $2)`

	var exists bool
	err := r.q(ctx).GetContext(ctx, &exists, query, farmerID, domain.LoanStatusPending)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (r *loanRepository) Update(ctx context.Context, loan *domain.LoanApplication) error {
	query := `
		UPDATE loan_applications
		SET amount_paid = $2, status = $3, approval_date = $4, updated_at = $5
		WHERE id = $1
	`

	_, err := r.q(ctx).ExecContext(ctx, query,
		loan.ID,
		loan.AmountPaid,
		loan.Status,
		loan.ApprovalDate,
		time.Now(),
	)

	return err
}

func (r *loanRepository) CreateSchedule(ctx context.Context, schedule []*domain.RepaymentSchedule) error {
	query := `
		INSERT INTO repayment_schedules (id, loan_id, installment_number, due_date, amount, amount_paid, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	// All-or-nothing: the batch joins the caller's transaction when there is
	// one, otherwise it gets its own.
	return r.WithinTx(ctx, func(ctx context.Context) error {
		for _, installment := range schedule {
			_, err := r.q(ctx).ExecContext(ctx, query,
				installment.ID,
				installment.LoanID,
				installment.InstallmentNumber,
				installment.DueDate,
				installment.Amount,
				installment.AmountPaid,
				installment.Status,
				installment.CreatedAt,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

const installmentColumns = `id, loan_id, installment_number, due_date, amount, amount_paid, status, created_at`

func (r *loanRepository) GetScheduleByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.RepaymentSchedule, error) {
	query := `SELECT ` + installmentColumns + ` FROM repayment_schedules WHERE loan_id = $1 ORDER BY installment_number`

	var schedule []*domain.RepaymentSchedule
	err := r.q(ctx).SelectContext(ctx, &schedule, query, loanID)
	if err != nil {
		return nil, err
	}

	return schedule, nil
}

func (r *loanRepository) GetOpenInstallments(ctx context.Context, loanID uuid.UUID) ([]*domain.RepaymentSchedule, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM repayment_schedules
		WHERE loan_id = $1 AND status != $2
		ORDER BY due_date
	`

	var schedule []*domain.RepaymentSchedule
	err := r.q(ctx).SelectContext(ctx, &schedule, query, loanID, domain.InstallmentStatusPaid)
	if err != nil {
		return nil, err
	}

	return schedule, nil
}

func (r *loanRepository) UpdateInstallment(ctx context.Context, id uuid.UUID, amountPaid decimal.Decimal, status string) error {
	query := `
		UPDATE repayment_schedules
		SET amount_paid = $2, status = $3
		WHERE id = $1
	`

	_, err := r.q(ctx).ExecContext(ctx, query, id, amountPaid, status)
	return err
}

func (r *loanRepository) RepaymentReferenceExists(ctx context.Context, reference string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM loan_repayments WHERE transaction_reference = $1)`

	var exists bool
	err := r.q(ctx).GetContext(ctx, &exists, query, reference)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (r *loanRepository) CreateRepayment(ctx context.Context, repayment *domain.LoanRepayment) error {
	query := `
		INSERT INTO loan_repayments (id, loan_id, amount, transaction_reference, payment_date, payment_method, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q(ctx).ExecContext(ctx, query,
		repayment.ID,
		repayment.LoanID,
		repayment.Amount,
		repayment.TransactionReference,
		repayment.PaymentDate,
		repayment.PaymentMethod,
		repayment.CreatedAt,
	)

	return err
}

func (r *loanRepository) GetRepaymentsByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.LoanRepayment, error) {
	query := `
		SELECT id, loan_id, amount, transaction_reference, payment_date, payment_method, created_at
		FROM loan_repayments
		WHERE loan_id = $1
		ORDER BY payment_date
	`

	var repayments []*domain.LoanRepayment
	err := r.q(ctx).SelectContext(ctx, &repayments, query, loanID)
	if err != nil {
		return nil, err
	}

	return repayments, nil
}

func (r *loanRepository) MarkOverdueInstallments(ctx context.Context, asOf time.Time) (int64, error) {
	query := `
		UPDATE repayment_schedules
		SET status = $1
		WHERE status IN ($2, $3) AND due_date < $4
	`

	result, err := r.q(ctx).ExecContext(ctx, query,
		domain.InstallmentStatusOverdue,
		domain.InstallmentStatusPending,
		domain.InstallmentStatusPartiallyPaid,
		asOf,
	)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
