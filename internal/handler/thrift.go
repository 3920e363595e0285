package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/skillyboy/agrolinker/internal/domain"
	"github.com/skillyboy/agrolinker/internal/service"
	"github.com/skillyboy/agrolinker/pkg/response"
)

type ThriftHandler struct {
	service   *service.ThriftService
	validator *validator.Validate
}

func NewThriftHandler(service *service.ThriftService) *ThriftHandler {
	return &ThriftHandler{
		service:   service,
		validator: validator.New(),
	}
}

// CreateGroup handles POST /thrift/groups
func (h *ThriftHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	group, err := h.service.CreateGroup(r.Context(), &req)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Created(w, group)
}

// JoinGroup handles POST /thrift/groups/{groupId}/join
func (h *ThriftHandler) JoinGroup(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathUUID(w, r, "groupId")
	if !ok {
		return
	}

	var req domain.JoinGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	membership, err := h.service.JoinGroup(r.Context(), groupID, req.UserID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Created(w, membership)
}

// GetMembers handles GET /thrift/groups/{groupId}/members
func (h *ThriftHandler) GetMembers(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathUUID(w, r, "groupId")
	if !ok {
		return
	}

	memberships, err := h.service.GetMemberships(r.Context(), groupID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, memberships)
}

// RecordContribution handles POST /thrift/groups/{groupId}/contributions
func (h *ThriftHandler) RecordContribution(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathUUID(w, r, "groupId")
	if !ok {
		return
	}

	var req domain.ContributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	contribution, err := h.service.RecordContribution(r.Context(), groupID, &req)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Created(w, contribution)
}

// VerifyContribution handles POST /thrift/contributions/{contributionId}/verify
func (h *ThriftHandler) VerifyContribution(w http.ResponseWriter, r *http.Request) {
	contributionID, ok := pathUUID(w, r, "contributionId")
	if !ok {
		return
	}

	contribution, err := h.service.VerifyContribution(r.Context(), contributionID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, contribution)
}

// GetPot handles GET /thrift/groups/{groupId}/pot
func (h *ThriftHandler) GetPot(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathUUID(w, r, "groupId")
	if !ok {
		return
	}

	pot, err := h.service.ComputePot(r.Context(), groupID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, pot)
}

// ExecutePayout handles POST /thrift/groups/{groupId}/payouts
func (h *ThriftHandler) ExecutePayout(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathUUID(w, r, "groupId")
	if !ok {
		return
	}

	payout, err := h.service.ExecutePayout(r.Context(), groupID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Created(w, payout)
}

// DisbursePayout handles POST /thrift/payouts/{payoutId}/disburse
func (h *ThriftHandler) DisbursePayout(w http.ResponseWriter, r *http.Request) {
	payoutID, ok := pathUUID(w, r, "payoutId")
	if !ok {
		return
	}

	var req domain.DisbursePayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	payout, err := h.service.DisbursePayout(r.Context(), payoutID, req.Method)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, payout)
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		response.BadRequest(w, "invalid "+name, err)
		return uuid.Nil, false
	}
	return id, true
}
