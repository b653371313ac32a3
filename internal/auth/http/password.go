package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/smartlegal/internal/auth/domain"
	"github.com/aussiebroadwan/smartlegal/internal/auth/metrics"
	"github.com/aussiebroadwan/smartlegal/internal/auth/service"
	"github.com/aussiebroadwan/smartlegal/pkg/authsdk"
	"github.com/aussiebroadwan/smartlegal/pkg/httpx"
)

// PasswordHandler serves password change and the forgot/reset flow.
type PasswordHandler struct {
	PasswordService *service.PasswordService
	Observer        Observer
}

// HandleChange godoc
//
//	@Summary		Change password
//	@Description	New passwords need at least 8 characters with a letter and a digit.
//	@Tags			Password
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.ChangePasswordRequest	true	"Current and new password"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Failure		401		{object}	authsdk.APIError	"Not authenticated or wrong current password"
//	@Failure		422		{object}	authsdk.APIError	"Validation or password policy failure"
//	@Router			/api/auth/alterar-senha [post].
func (h *PasswordHandler) HandleChange(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		authsdk.ErrUnauthorized.WriteError(w)
		return
	}

	var req authsdk.ChangePasswordRequest
	if !decodeRequest(w, r, &req, validateChange) {
		return
	}

	err := h.PasswordService.ChangePassword(r.Context(), id.UserID, req.CurrentPassword, req.NewPassword, req.ConfirmNewPassword)
	if err != nil {
		h.Observer.observe(r, metrics.OpPasswordChange, domain.EventPasswordChange, id.UserID, domain.OutcomeFailure, failureReason(err))
		writeServiceError(w, r, err)
		return
	}
	h.Observer.observe(r, metrics.OpPasswordChange, domain.EventPasswordChange, id.UserID, domain.OutcomeSuccess, "")

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: service.MessagePasswordSaved})
}

// HandleForgot godoc
//
//	@Summary		Request a password reset
//	@Description	Issues a one hour reset token and sends it by email. The token is only echoed in "dados" when the server exposes reset tokens.
//	@Tags			Password
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.ForgotPasswordRequest	true	"Account email"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Failure		404		{object}	authsdk.APIError	"Unknown email"
//	@Failure		422		{object}	authsdk.APIError	"Validation failure"
//	@Router			/api/auth/esqueceu-senha [post].
func (h *PasswordHandler) HandleForgot(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ForgotPasswordRequest
	if !decodeRequest(w, r, &req, validateForgot) {
		return
	}

	res, err := h.PasswordService.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		h.Observer.observe(r, metrics.OpPasswordForgot, domain.EventPasswordForgot, 0, domain.OutcomeFailure, domain.NormalizeEmail(req.Email))
		writeServiceError(w, r, err)
		return
	}
	h.Observer.observe(r, metrics.OpPasswordForgot, domain.EventPasswordForgot, 0, domain.OutcomeSuccess, domain.NormalizeEmail(req.Email))

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: res.Message, Data: res.Token})
}

// HandleReset godoc
//
//	@Summary		Reset password with a token
//	@Description	The token stays valid if the new password is rejected.
//	@Tags			Password
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.ResetPasswordRequest	true	"Token and new password"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Failure		401		{object}	authsdk.APIError	"Unknown, used or expired token"
//	@Failure		422		{object}	authsdk.APIError	"Validation or password policy failure"
//	@Router			/api/auth/resetar-senha [post].
func (h *PasswordHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ResetPasswordRequest
	if !decodeRequest(w, r, &req, validateReset) {
		return
	}

	err := h.PasswordService.ResetPassword(r.Context(), req.Token, req.NewPassword, req.ConfirmNewPassword)
	if err != nil {
		h.Observer.observe(r, metrics.OpPasswordReset, domain.EventPasswordReset, 0, domain.OutcomeFailure, failureReason(err))
		writeServiceError(w, r, err)
		return
	}
	h.Observer.observe(r, metrics.OpPasswordReset, domain.EventPasswordReset, 0, domain.OutcomeSuccess, "")

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: service.MessagePasswordReset})
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, service.ErrPolicyViolation):
		return "policy_violation"
	case errors.Is(err, service.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, service.ErrInvalidToken):
		return "invalid_token"
	default:
		return ""
	}
}
