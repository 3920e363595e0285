package handler

import (
	"errors"
	"net/http"

	customError "github.com/skillyboy/agrolinker/pkg/errors"
	"github.com/skillyboy/agrolinker/pkg/response"
)

// writeBusinessError maps business error codes onto HTTP statuses. Duplicate
// transactions get 409 so callers can tell a hard rejection from a transient
// failure and stop retrying.
func writeBusinessError(w http.ResponseWriter, err error) {
	var bizErr *customError.BusinessError
	if !errors.As(err, &bizErr) {
		response.InternalServerError(w, "internal error", err)
		return
	}

	switch bizErr.Code {
	case customError.ErrCodeValidation, customError.ErrCodeInvalidLoanTerm:
		response.BadRequest(w, bizErr.Message, bizErr.Err)
	case customError.ErrCodeSignatureInvalid:
		response.Unauthorized(w, bizErr.Message)
	case customError.ErrCodeLoanNotFound, customError.ErrCodeGroupNotFound,
		customError.ErrCodeMembershipNotFound, customError.ErrCodeContributionNotFound,
		customError.ErrCodePayoutNotFound:
		response.NotFound(w, bizErr.Message)
	case customError.ErrCodeDuplicateTransaction, customError.ErrCodeInvalidLoanState,
		customError.ErrCodeInvalidState:
		response.Conflict(w, bizErr.Message, bizErr.Err)
	case customError.ErrCodeNoEligibleMember:
		response.UnprocessableEntity(w, bizErr.Message, bizErr.Err)
	default:
		response.InternalServerError(w, bizErr.Message, bizErr.Err)
	}
}
