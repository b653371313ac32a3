package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/smartlegal/internal/auth/domain"
	"github.com/aussiebroadwan/smartlegal/internal/auth/metrics"
	"github.com/aussiebroadwan/smartlegal/internal/auth/service"
	"github.com/aussiebroadwan/smartlegal/pkg/authsdk"
	"github.com/aussiebroadwan/smartlegal/pkg/httpx"
	"github.com/aussiebroadwan/smartlegal/pkg/slogx"
)

const (
	messageRegistered = "Advogado registrado com sucesso. Faça login para acessar o sistema."
	messageLoggedOut  = "Logout realizado com sucesso. Remova o token do cliente."
)

// AuthHandler serves the session endpoints under /api/auth.
type AuthHandler struct {
	AuthService *service.AuthService
	UserService *service.UserService
	Authn       httpx.AuthnConfig
	Observer    Observer
}

// HandleRegister godoc
//
//	@Summary		Register a lawyer
//	@Description	Creates an active account with the ADVOGADO role. The password must have 6 to 100 characters.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.RegisterRequest		true	"Registration data"
//	@Success		201		{object}	authsdk.RegisterResponse
//	@Failure		400		{object}	authsdk.APIError	"Malformed body"
//	@Failure		409		{object}	authsdk.APIError	"Email already registered"
//	@Failure		422		{object}	authsdk.APIError	"Validation or password policy failure"
//	@Router			/api/auth/registro [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if !decodeRequest(w, r, &req, validateRegister) {
		return
	}

	p, err := h.UserService.Register(r.Context(), service.Registration{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		OAB:      req.OAB,
		Phone:    req.Phone,
	})
	if err != nil {
		h.Observer.observe(r, metrics.OpRegister, domain.EventRegister, 0, domain.OutcomeFailure, domain.NormalizeEmail(req.Email))
		writeServiceError(w, r, err)
		return
	}
	h.Observer.observe(r, metrics.OpRegister, domain.EventRegister, p.ID, domain.OutcomeSuccess, "")

	httpx.WriteJSON(w, http.StatusCreated, authsdk.RegisterResponse{
		ID:      p.ID,
		Email:   p.Email,
		Name:    p.DisplayName,
		OAB:     p.OAB,
		Message: messageRegistered,
	})
}

// HandleLogin godoc
//
//	@Summary		Log in
//	@Description	Exchanges email and password for an access and a refresh token.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.LoginResponse
//	@Failure		401		{object}	authsdk.APIError	"Unknown email, inactive account or wrong password"
//	@Failure		422		{object}	authsdk.APIError	"Validation failure"
//	@Header			200		{string}	Cache-Control	"no-store"
//	@Router			/api/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if !decodeRequest(w, r, &req, validateLogin) {
		return
	}

	res, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.Observer.observe(r, metrics.OpLogin, domain.EventLogin, 0, domain.OutcomeFailure, domain.NormalizeEmail(req.Email))
		writeServiceError(w, r, err)
		return
	}
	h.Observer.observe(r, metrics.OpLogin, domain.EventLogin, res.Principal.ID, domain.OutcomeSuccess, "")

	httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
		TokenResponse: tokenResponse(res.Tokens),
		UserID:        res.Principal.ID,
		Email:         res.Principal.Email,
		Name:          res.Principal.DisplayName,
		Role:          res.Principal.Role,
	})
}

// HandleRefresh godoc
//
//	@Summary		Refresh the access token
//	@Description	Issues a new access token. The refresh token is returned unchanged.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.RefreshRequest	true	"Refresh token"
//	@Success		200		{object}	authsdk.TokenResponse
//	@Failure		401		{object}	authsdk.APIError	"Invalid, expired or non-refresh token"
//	@Router			/api/auth/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RefreshRequest
	if !decodeRequest(w, r, &req, validateRefresh) {
		return
	}

	pair, err := h.AuthService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.Observer.observe(r, metrics.OpRefresh, domain.EventRefresh, 0, domain.OutcomeFailure, "")
		writeServiceError(w, r, err)
		return
	}

	var actor int64
	if v := h.AuthService.Validate(r.Context(), pair.AccessToken); v.Valid {
		actor = v.UserID
	}
	h.Observer.observe(r, metrics.OpRefresh, domain.EventRefresh, actor, domain.OutcomeSuccess, "")

	httpx.WriteJSON(w, http.StatusOK, tokenResponse(pair))
}

// HandleValidate godoc
//
//	@Summary		Validate an access token
//	@Description	Reports whether a token is a live access token. The token is read from the "token" query parameter, or from the bearer header when absent. Always answers 200.
//	@Tags			Auth
//	@Produce		json
//	@Param			token	query		string	false	"Access token"
//	@Success		200		{object}	authsdk.ValidationResponse
//	@Router			/api/auth/validate [get].
func (h *AuthHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		token, _ = httpx.BearerToken(r, h.Authn)
	}

	v := h.AuthService.Validate(r.Context(), token)
	httpx.WriteJSON(w, http.StatusOK, authsdk.ValidationResponse{
		Valid:  v.Valid,
		UserID: v.UserID,
		Email:  v.Email,
		Role:   v.Role,
	})
}

// HandleMe godoc
//
//	@Summary		Current user
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.UserInfoResponse
//	@Failure		401	{object}	authsdk.APIError	"Missing or invalid access token"
//	@Router			/api/auth/me [get].
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := httpx.IdentityFromContext(ctx)
	if !ok {
		authsdk.ErrUnauthorized.WriteError(w)
		return
	}

	p, err := h.UserService.GetUserByID(ctx, id.UserID)
	if err != nil {
		slogx.FromContext(ctx).Warn("failed to load principal", "user_id", id.UserID, "err", err)
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.UserInfoResponse{
		ID:    p.ID,
		Email: p.Email,
		Name:  p.DisplayName,
		Role:  p.Role,
		OAB:   p.OAB,
		Phone: p.Phone,
	})
}

// HandleLogout godoc
//
//	@Summary		Log out
//	@Description	Tokens are stateless; the client discards them. The logout is audited.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MessageResponse
//	@Failure		401	{object}	authsdk.APIError	"Missing or invalid access token"
//	@Router			/api/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		authsdk.ErrUnauthorized.WriteError(w)
		return
	}

	h.Observer.observe(r, "", domain.EventLogout, id.UserID, domain.OutcomeSuccess, "")

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: messageLoggedOut})
}

func tokenResponse(p domain.TokenPair) authsdk.TokenResponse {
	return authsdk.TokenResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    p.TokenType,
		ExpiresIn:    int64(p.ExpiresIn.Seconds()),
	}
}
