package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/skillyboy/agrolinker/internal/domain"
	"github.com/skillyboy/agrolinker/internal/repository"
	customError "github.com/skillyboy/agrolinker/pkg/errors"
	"github.com/skillyboy/agrolinker/pkg/utils"
)

const balanceCacheTTL = 24 * time.Hour

// LoanService manages the individual credit ledger: amortized schedule
// generation at origination and allocation of incoming repayments across
// outstanding installments.
type LoanService struct {
	LoanRepo repository.LoanRepository
	redis    *redis.Client
}

func NewLoanService(loanRepo repository.LoanRepository, redisClient *redis.Client) *LoanService {
	return &LoanService{
		LoanRepo: loanRepo,
		redis:    redisClient,
	}
}

// ApplyForLoan creates a loan application and its full repayment schedule in
// one transaction; either both exist afterwards or neither does.
func (s *LoanService) ApplyForLoan(ctx context.Context, request *domain.LoanApplicationRequest) (*domain.LoanApplicationResponse, error) {
	if !request.Amount.IsPositive() {
		return nil, customError.WrapValidation("loan amount must be positive")
	}
	if request.RepaymentPeriodMonths <= 0 {
		return nil, customError.WrapInvalidLoanTerm(request.RepaymentPeriodMonths)
	}

	pending, err := s.LoanRepo.HasPendingApplication(ctx, request.FarmerID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if pending {
		return nil, customError.WrapInvalidState("farmer already has a pending application")
	}

	now := time.Now()
	loan := &domain.LoanApplication{
		ID:                    uuid.New(),
		FarmerID:              request.FarmerID,
		ReferenceID:           utils.GenerateLoanReference(now),
		Amount:                request.Amount,
		AmountPaid:            decimal.Zero,
		Purpose:               request.Purpose,
		CollateralDetails:     request.CollateralDetails,
		RepaymentPeriodMonths: request.RepaymentPeriodMonths,
		Status:                domain.LoanStatusPending,
		ApplicationDate:       now,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	schedule, err := GenerateSchedule(loan, now)
	if err != nil {
		return nil, err
	}

	err = s.LoanRepo.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.LoanRepo.Create(ctx, loan); err != nil {
			return customError.WrapDatabaseError(err)
		}
		if err := s.LoanRepo.CreateSchedule(ctx, schedule); err != nil {
			return customError.WrapDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &domain.LoanApplicationResponse{Loan: loan, Schedule: schedule}, nil
}

// GenerateSchedule splits the principal evenly across the loan's term. Each
// installment is rounded to 2 decimal places and the final installment
// absorbs the rounding remainder, so the schedule sums exactly to the
// principal. The first installment falls due 30 days after origination and
// every 30 days after that; the 30-day month is a deliberate simplification.
func GenerateSchedule(loan *domain.LoanApplication, originationDate time.Time) ([]*domain.RepaymentSchedule, error) {
	months := loan.RepaymentPeriodMonths
	if months <= 0 {
		return nil, customError.WrapInvalidLoanTerm(months)
	}

	installmentAmount := utils.CalculateInstallmentAmount(loan.Amount, months)
	finalAmount := utils.CalculateFinalInstallment(loan.Amount, installmentAmount, months)

	schedule := make([]*domain.RepaymentSchedule, 0, months)
	for i := 1; i <= months; i++ {
		amount := installmentAmount
		if i == months {
			amount = finalAmount
		}

		schedule = append(schedule, &domain.RepaymentSchedule{
			ID:                uuid.New(),
			LoanID:            loan.ID,
			InstallmentNumber: i,
			DueDate:           utils.CalculateDueDate(originationDate, i),
			Amount:            amount,
			AmountPaid:        decimal.Zero,
			Status:            domain.InstallmentStatusPending,
			CreatedAt:         originationDate,
		})
	}

	return schedule, nil
}

// AllocateRepayment distributes an incoming amount across open installments,
// oldest due date first. Installments fully covered are marked paid, a
// partially covered one is marked partially_paid, and whatever cannot be
// applied is returned as excess rather than dropped.
func AllocateRepayment(installments []*domain.RepaymentSchedule, amount decimal.Decimal) (touched []*domain.RepaymentSchedule, excess decimal.Decimal) {
	remaining := amount

	for _, installment := range installments {
		if !remaining.IsPositive() {
			break
		}

		applied := decimal.Min(installment.Remaining(), remaining)
		if !applied.IsPositive() {
			continue
		}

		installment.AmountPaid = installment.AmountPaid.Add(applied)
		if installment.AmountPaid.GreaterThanOrEqual(installment.Amount) {
			installment.Status = domain.InstallmentStatusPaid
		} else {
			installment.Status = domain.InstallmentStatusPartiallyPaid
		}

		touched = append(touched, installment)
		remaining = remaining.Sub(applied)
	}

	return touched, remaining
}

// ApplyRepayment ingests one repayment webhook. The transaction reference is
// the idempotency key: a reference seen before is rejected outright, never
// re-applied. The loan row is locked for the whole read-compute-write cycle
// so two concurrent repayments cannot double-allocate against the same
// installments.
func (s *LoanService) ApplyRepayment(ctx context.Context, payload *domain.RepaymentWebhookPayload) (*domain.RepaymentResult, error) {
	if !payload.Amount.IsPositive() {
		return nil, customError.WrapValidation("repayment amount must be positive")
	}

	// Fast-path duplicate rejection; the database check inside the
	// transaction remains authoritative.
	if s.seenTransaction(ctx, payload.TransactionReference) {
		return nil, customError.WrapDuplicateTransaction(payload.TransactionReference)
	}

	var result *domain.RepaymentResult

	err := s.LoanRepo.WithinTx(ctx, func(ctx context.Context) error {
		loan, err := s.LoanRepo.GetByReferenceForUpdate(ctx, payload.LoanReference)
		if err != nil {
			return err
		}

		if !loan.Repayable() {
			return customError.WrapInvalidLoanState(loan.ReferenceID, loan.Status)
		}

		exists, err := s.LoanRepo.RepaymentReferenceExists(ctx, payload.TransactionReference)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		if exists {
			return customError.WrapDuplicateTransaction(payload.TransactionReference)
		}

		repayment := &domain.LoanRepayment{
			ID:                   uuid.New(),
			LoanID:               loan.ID,
			Amount:               payload.Amount,
			TransactionReference: payload.TransactionReference,
			PaymentDate:          payload.PaymentDate,
			PaymentMethod:        payload.PaymentMethod,
			CreatedAt:            time.Now(),
		}
		if err := s.LoanRepo.CreateRepayment(ctx, repayment); err != nil {
			return customError.WrapDatabaseError(err)
		}

		installments, err := s.LoanRepo.GetOpenInstallments(ctx, loan.ID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}

		touched, excess := AllocateRepayment(installments, payload.Amount)
		for _, installment := range touched {
			if err := s.LoanRepo.UpdateInstallment(ctx, installment.ID, installment.AmountPaid, installment.Status); err != nil {
				return customError.WrapDatabaseError(err)
			}
		}

		loan.AmountPaid = loan.AmountPaid.Add(payload.Amount)
		if loan.AmountPaid.GreaterThanOrEqual(loan.Amount) {
			loan.Status = domain.LoanStatusRepaid
		} else {
			loan.Status = domain.LoanStatusPartiallyPaid
		}
		if err := s.LoanRepo.Update(ctx, loan); err != nil {
			return customError.WrapDatabaseError(err)
		}

		result = &domain.RepaymentResult{
			Success: true,
			Balance: loan.Outstanding(),
			Excess:  excess,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cacheBalance(ctx, payload.LoanReference, result.Balance)
	s.rememberTransaction(ctx, payload.TransactionReference)

	return result, nil
}

// GetOutstanding returns the loan's unpaid balance, floored at zero.
func (s *LoanService) GetOutstanding(ctx context.Context, reference string) (*domain.OutstandingResponse, error) {
	loan, err := s.LoanRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	balance := loan.Outstanding()
	s.cacheBalance(ctx, reference, balance)

	return &domain.OutstandingResponse{
		ReferenceID: reference,
		Outstanding: balance,
		Status:      loan.Status,
	}, nil
}

// ApproveLoan transitions a pending application to approved.
func (s *LoanService) ApproveLoan(ctx context.Context, reference string) (*domain.LoanApplication, error) {
	return s.transition(ctx, reference, domain.LoanStatusPending, domain.LoanStatusApproved)
}

// RejectLoan transitions a pending application to rejected.
func (s *LoanService) RejectLoan(ctx context.Context, reference string) (*domain.LoanApplication, error) {
	return s.transition(ctx, reference, domain.LoanStatusPending, domain.LoanStatusRejected)
}

// DisburseLoan transitions an approved loan to disbursed.
func (s *LoanService) DisburseLoan(ctx context.Context, reference string) (*domain.LoanApplication, error) {
	return s.transition(ctx, reference, domain.LoanStatusApproved, domain.LoanStatusDisbursed)
}

// MarkDefaulted moves an active loan to the terminal defaulted state.
func (s *LoanService) MarkDefaulted(ctx context.Context, reference string) (*domain.LoanApplication, error) {
	var loan *domain.LoanApplication

	err := s.LoanRepo.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		loan, err = s.LoanRepo.GetByReferenceForUpdate(ctx, reference)
		if err != nil {
			return err
		}

		switch loan.Status {
		case domain.LoanStatusRejected, domain.LoanStatusRepaid, domain.LoanStatusDefaulted:
			return customError.WrapInvalidState(fmt.Sprintf("loan %s cannot default from status %s", reference, loan.Status))
		}

		loan.Status = domain.LoanStatusDefaulted
		if err := s.LoanRepo.Update(ctx, loan); err != nil {
			return customError.WrapDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return loan, nil
}

func (s *LoanService) transition(ctx context.Context, reference, from, to string) (*domain.LoanApplication, error) {
	var loan *domain.LoanApplication

	err := s.LoanRepo.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		loan, err = s.LoanRepo.GetByReferenceForUpdate(ctx, reference)
		if err != nil {
			return err
		}

		if loan.Status != from {
			return customError.WrapInvalidState(fmt.Sprintf("loan %s is %s, expected %s", reference, loan.Status, from))
		}

		loan.Status = to
		if to == domain.LoanStatusApproved {
			now := time.Now()
			loan.ApprovalDate = &now
		}

		if err := s.LoanRepo.Update(ctx, loan); err != nil {
			return customError.WrapDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return loan, nil
}

// GetSchedule returns a loan's full schedule.
func (s *LoanService) GetSchedule(ctx context.Context, reference string) ([]*domain.RepaymentSchedule, error) {
	loan, err := s.LoanRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	return s.LoanRepo.GetScheduleByLoanID(ctx, loan.ID)
}

// GetRepayments returns a loan's repayment history.
func (s *LoanService) GetRepayments(ctx context.Context, reference string) ([]*domain.LoanRepayment, error) {
	loan, err := s.LoanRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	return s.LoanRepo.GetRepaymentsByLoanID(ctx, loan.ID)
}

// GetLoanHistory returns all of a farmer's loans.
func (s *LoanService) GetLoanHistory(ctx context.Context, farmerID uuid.UUID) ([]*domain.LoanApplication, error) {
	return s.LoanRepo.GetByFarmer(ctx, farmerID)
}

// MarkOverdueInstallments flips open installments past their due date to
// overdue. Invoked by the scheduler binary.
func (s *LoanService) MarkOverdueInstallments(ctx context.Context) (int64, error) {
	return s.LoanRepo.MarkOverdueInstallments(ctx, time.Now())
}

func (s *LoanService) cacheBalance(ctx context.Context, reference string, balance decimal.Decimal) {
	if s.redis == nil {
		return
	}
	key := "loan:balance:" + reference
	if err := s.redis.Set(ctx, key, balance.String(), balanceCacheTTL).Err(); err != nil {
		log.Printf("failed to cache balance for %s: %v", reference, err)
	}
}

func (s *LoanService) seenTransaction(ctx context.Context, reference string) bool {
	if s.redis == nil {
		return false
	}
	n, err := s.redis.Exists(ctx, "loan:tx:"+reference).Result()
	return err == nil && n > 0
}

func (s *LoanService) rememberTransaction(ctx context.Context, reference string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Set(ctx, "loan:tx:"+reference, 1, balanceCacheTTL).Err(); err != nil {
		log.Printf("failed to record transaction %s: %v", reference, err)
	}
}
