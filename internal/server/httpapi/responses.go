package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bbelderbos/codeimages/internal/common"
	"github.com/bbelderbos/codeimages/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(c *gin.Context, status int, code, message string) {
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(status, errorEnvelope{Error: apiError{Code: code, Message: message}})
}

// writeDomainError maps service errors onto status codes. Unknown errors are
// logged and reported as a bare 500.
func writeDomainError(c *gin.Context, logger logging.Logger, err error) {
	var ve *common.ValidationError
	var qe *common.QuotaExceededError

	switch {
	case errors.As(err, &ve):
		writeError(c, http.StatusBadRequest, "validation_error", ve.Error())
	case errors.Is(err, common.ErrValidation):
		writeError(c, http.StatusBadRequest, "validation_error", "invalid request")
	case errors.Is(err, common.ErrDuplicateUsername):
		writeError(c, http.StatusBadRequest, "username_taken", "User already exists")
	case errors.Is(err, common.ErrDuplicateEmail):
		writeError(c, http.StatusBadRequest, "email_taken", "Email already in use")
	case errors.Is(err, common.ErrPasswordMismatch):
		writeError(c, http.StatusBadRequest, "password_mismatch", "The two passwords should match")
	case errors.Is(err, common.ErrKeyNotFound):
		writeError(c, http.StatusBadRequest, "activation_key_not_found", "Activation key not found")
	case errors.Is(err, common.ErrAccountInactive):
		writeError(c, http.StatusBadRequest, "account_inactive", "Account is inactive")
	case errors.Is(err, common.ErrAlreadyVerified):
		writeError(c, http.StatusBadRequest, "already_verified", "Account already verified")
	case errors.Is(err, common.ErrKeyExpired):
		writeError(c, http.StatusBadRequest, "activation_key_expired", "Activation key expired")
	case errors.Is(err, common.ErrInvalidCredentials):
		writeError(c, http.StatusUnauthorized, "invalid_credentials", "Incorrect username or password")
	case errors.Is(err, common.ErrInactiveAccount):
		writeError(c, http.StatusUnauthorized, "inactive_account", "Inactive account")
	case errors.Is(err, common.ErrUnverifiedAccount):
		writeError(c, http.StatusUnauthorized, "unverified_account", "Account not verified, check your email")
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		writeError(c, http.StatusUnauthorized, "invalid_token", "Could not validate credentials")
	case errors.As(err, &qe):
		writeError(c, http.StatusBadRequest, "quota_exceeded", qe.Error())
	case errors.Is(err, common.ErrDuplicateTitle):
		writeError(c, http.StatusBadRequest, "duplicate_title", "You already have a snippet with this title")
	case errors.Is(err, common.ErrNotFound), errors.Is(err, common.ErrNotOwned):
		writeError(c, http.StatusNotFound, "not_found", "Snippet not found")
	case errors.Is(err, common.ErrRenderFailed):
		writeError(c, http.StatusBadGateway, "render_failed", "Could not render snippet")
	case errors.Is(err, common.ErrUploadFailed):
		writeError(c, http.StatusBadGateway, "upload_failed", "Could not store snippet image")
	case errors.Is(err, common.ErrRateLimited):
		writeError(c, http.StatusTooManyRequests, "rate_limited", "Too many requests, try again later")
	default:
		logger.Error(c.Request.Context(), "request failed",
			"method", c.Request.Method, "path", c.FullPath(), "request_id", requestID(c), "error", err)
		writeError(c, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// bindError turns a gin binding failure into a ValidationError keyed by
// field name.
func bindError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		ve := &common.ValidationError{Fields: map[string]string{}}
		for _, fe := range fieldErrs {
			ve.Fields[strings.ToLower(fe.Field())] = fe.Tag()
		}
		return ve
	}
	return common.NewValidationError("body", err.Error())
}
