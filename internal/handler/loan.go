package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/skillyboy/agrolinker/internal/domain"
	"github.com/skillyboy/agrolinker/internal/service"
	"github.com/skillyboy/agrolinker/pkg/response"
)

type LoanHandler struct {
	service   *service.LoanService
	validator *validator.Validate
}

func NewLoanHandler(service *service.LoanService) *LoanHandler {
	return &LoanHandler{
		service:   service,
		validator: validator.New(),
	}
}

// Apply handles POST /loans/apply
func (h *LoanHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req domain.LoanApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	result, err := h.service.ApplyForLoan(r.Context(), &req)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Created(w, result)
}

// GetOutstanding handles GET /loans/{reference}/outstanding
func (h *LoanHandler) GetOutstanding(w http.ResponseWriter, r *http.Request) {
	reference := mux.Vars(r)["reference"]

	result, err := h.service.GetOutstanding(r.Context(), reference)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, result)
}

// GetSchedule handles GET /loans/{reference}/schedule
func (h *LoanHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	reference := mux.Vars(r)["reference"]

	schedule, err := h.service.GetSchedule(r.Context(), reference)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, schedule)
}

// GetRepayments handles GET /loans/{reference}/repayments
func (h *LoanHandler) GetRepayments(w http.ResponseWriter, r *http.Request) {
	reference := mux.Vars(r)["reference"]

	repayments, err := h.service.GetRepayments(r.Context(), reference)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, repayments)
}

// GetHistory handles GET /farmers/{farmerId}/loans
func (h *LoanHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	farmerID, ok := pathUUID(w, r, "farmerId")
	if !ok {
		return
	}

	loans, err := h.service.GetLoanHistory(r.Context(), farmerID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, loans)
}

// Approve handles POST /loans/{reference}/approve
func (h *LoanHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.ApproveLoan)
}

// Reject handles POST /loans/{reference}/reject
func (h *LoanHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.RejectLoan)
}

// Disburse handles POST /loans/{reference}/disburse
func (h *LoanHandler) Disburse(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.DisburseLoan)
}

// MarkDefaulted handles POST /loans/{reference}/default
func (h *LoanHandler) MarkDefaulted(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.MarkDefaulted)
}

func (h *LoanHandler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, reference string) (*domain.LoanApplication, error)) {
	reference := mux.Vars(r)["reference"]

	loan, err := fn(r.Context(), reference)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, loan)
}
