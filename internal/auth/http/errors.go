package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/smartlegal/internal/auth/service"
	"github.com/aussiebroadwan/smartlegal/pkg/authsdk"
	"github.com/aussiebroadwan/smartlegal/pkg/cryptox"
	"github.com/aussiebroadwan/smartlegal/pkg/slogx"
)

// writeServiceError maps service errors onto API errors. Anything it does
// not recognise is logged and reported as a server error.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var pe *cryptox.PolicyError

	switch {
	case errors.As(err, &pe):
		authsdk.NewPolicyError(pe.Reason).WriteError(w)
	case errors.Is(err, service.ErrInvalidCredentials):
		authsdk.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrInvalidToken):
		authsdk.ErrInvalidToken.WriteError(w)
	case errors.Is(err, service.ErrNotFound):
		authsdk.ErrNotFound.WriteError(w)
	case errors.Is(err, service.ErrEmailTaken):
		authsdk.ErrEmailTaken.WriteError(w)
	case errors.Is(err, service.ErrInvalidEmail):
		authsdk.NewValidationError(map[string]string{"email": "Email inválido"}).WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
	}
}
