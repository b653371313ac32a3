package authsdk

// ============================================================================
// Requests
// ============================================================================

type RegisterRequest struct {
	Name     string `json:"nome" example:"Ana Lima"`
	Email    string `json:"email" example:"ana@example.com"`
	Password string `json:"senha" example:"senha123"`
	OAB      string `json:"oab" example:"SP123456"`
	Phone    string `json:"telefone,omitempty" example:"11999990000"`
}

type LoginRequest struct {
	Email    string `json:"email" example:"ana@example.com"`
	Password string `json:"senha" example:"senha123"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" example:"ana@example.com"`
}

type ResetPasswordRequest struct {
	Token              string `json:"token"`
	NewPassword        string `json:"novaSenha" example:"novaSenha1"`
	ConfirmNewPassword string `json:"confirmarNovaSenha" example:"novaSenha1"`
}

type ChangePasswordRequest struct {
	CurrentPassword    string `json:"senhaAtual" example:"senha123"`
	NewPassword        string `json:"novaSenha" example:"novaSenha1"`
	ConfirmNewPassword string `json:"confirmarNovaSenha" example:"novaSenha1"`
}

// ============================================================================
// Responses
// ============================================================================

// TokenResponse is returned by refresh. ExpiresIn is the access token
// lifetime in seconds.
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType" example:"Bearer"`
	ExpiresIn    int64  `json:"expiresIn" example:"86400"`
}

// LoginResponse is a token pair plus the principal that logged in.
type LoginResponse struct {
	TokenResponse

	UserID int64  `json:"userId" example:"1"`
	Email  string `json:"email" example:"ana@example.com"`
	Name   string `json:"nome" example:"Ana Lima"`
	Role   string `json:"role" example:"ADVOGADO"`
}

// ValidationResponse is the result of validating an access token. Only
// Valid is set for invalid tokens.
type ValidationResponse struct {
	Valid  bool   `json:"valid"`
	UserID int64  `json:"userId,omitempty"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
}

type RegisterResponse struct {
	ID      int64  `json:"id" example:"1"`
	Email   string `json:"email" example:"ana@example.com"`
	Name    string `json:"nome" example:"Ana Lima"`
	OAB     string `json:"oab" example:"SP123456"`
	Message string `json:"mensagem"`
}

type UserInfoResponse struct {
	ID    int64  `json:"id" example:"1"`
	Email string `json:"email" example:"ana@example.com"`
	Name  string `json:"nome" example:"Ana Lima"`
	Role  string `json:"role" example:"ADVOGADO"`
	OAB   string `json:"oab,omitempty" example:"SP123456"`
	Phone string `json:"telefone,omitempty"`
}

// MessageResponse carries a user-facing message. Data holds the reset token
// in development setups that expose it.
type MessageResponse struct {
	Message string `json:"mensagem"`
	Data    string `json:"dados,omitempty"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned by /livez and /readyz (which also sets Checks).
type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Uptime  string `json:"uptime,omitempty"`
	Version string `json:"version,omitempty"`

	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks is the status of each dependency checked by /readyz.
type HealthChecks struct {
	Database   string `json:"database"`
	ResetStore string `json:"reset_store"`
}
