package http

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/aussiebroadwan/smartlegal/pkg/authsdk"
	"github.com/aussiebroadwan/smartlegal/pkg/httpx"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

var (
	phonePattern = regexp.MustCompile(`^\d{10,11}$`)

	required = validation.Required.Error("campo obrigatório")
	email    = is.Email.Error("Email inválido")
)

// decodeRequest reads a JSON body into dst and runs validate over it. It
// writes the error response itself and reports whether the caller should
// continue.
func decodeRequest[T any](w http.ResponseWriter, r *http.Request, dst *T, validate func(T) error) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return false
	}
	if validate == nil {
		return true
	}

	if err := validate(*dst); err != nil {
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for name, fe := range verrs {
				fields[name] = fe.Error()
			}
			authsdk.NewValidationError(fields).WriteError(w)
			return false
		}
		authsdk.ErrInvalidRequest.WriteError(w)
		return false
	}
	return true
}

func validateRegister(req authsdk.RegisterRequest) error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Name, required, validation.Length(3, 100).Error("Nome deve ter entre 3 e 100 caracteres")),
		validation.Field(&req.Email, required, email),
		validation.Field(&req.Password, required),
		validation.Field(&req.OAB, required),
		validation.Field(&req.Phone, validation.Match(phonePattern).Error("Telefone deve ter 10 ou 11 dígitos")),
	)
}

func validateLogin(req authsdk.LoginRequest) error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Email, required, email),
		validation.Field(&req.Password, required),
	)
}

func validateRefresh(req authsdk.RefreshRequest) error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.RefreshToken, required),
	)
}

func validateForgot(req authsdk.ForgotPasswordRequest) error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Email, required, email),
	)
}

func validateReset(req authsdk.ResetPasswordRequest) error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Token, required),
		validation.Field(&req.NewPassword, required),
		validation.Field(&req.ConfirmNewPassword, required),
	)
}

func validateChange(req authsdk.ChangePasswordRequest) error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.CurrentPassword, required),
		validation.Field(&req.NewPassword, required),
		validation.Field(&req.ConfirmNewPassword, required),
	)
}
