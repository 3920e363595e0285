package handler

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/skillyboy/agrolinker/internal/config"
	"github.com/skillyboy/agrolinker/internal/domain"
	"github.com/skillyboy/agrolinker/internal/service"
	"github.com/skillyboy/agrolinker/pkg/response"
	"github.com/skillyboy/agrolinker/pkg/signature"
)

// WebhookHandler ingests MFI repayment webhooks. The endpoint is
// unauthenticated; the HMAC signature over the raw body is the sole
// authorization mechanism and is checked before anything else.
type WebhookHandler struct {
	service   *service.LoanService
	config    *config.Config
	validator *validator.Validate
}

func NewWebhookHandler(service *service.LoanService, cfg *config.Config) *WebhookHandler {
	return &WebhookHandler{
		service:   service,
		config:    cfg,
		validator: validator.New(),
	}
}

// RecordRepayment handles POST /loans/repay
func (h *WebhookHandler) RecordRepayment(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		response.BadRequest(w, "unable to read request body", err)
		return
	}

	if !signature.Verify(body, r.Header.Get(signature.Header), h.config.Webhook.Secret) {
		log.Printf("rejected repayment webhook: signature verification failed")
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var payload domain.RepaymentWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		response.BadRequest(w, "invalid payload", err)
		return
	}
	if err := h.validator.Struct(&payload); err != nil {
		response.BadRequest(w, "invalid payload", err)
		return
	}

	result, err := h.service.ApplyRepayment(r.Context(), &payload)
	if err != nil {
		log.Printf("repayment %s for loan %s failed: %v", payload.TransactionReference, payload.LoanReference, err)
		writeBusinessError(w, err)
		return
	}

	response.Success(w, result)
}
