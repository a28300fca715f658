package transport

import (
	"errors"
	"net/http"

	"serene/internal/domain"
	"serene/internal/middleware"
	"serene/internal/oauth"
	"serene/internal/repository"
	"serene/internal/service"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Username string `json:"username" validate:"required,min=3,max=20"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateMeRequest carries optional account field changes
type UpdateMeRequest struct {
	Name     string `json:"name" validate:"omitempty,min=2"`
	Username string `json:"username" validate:"omitempty,min=3,max=20"`
}

// SetPasswordRequest carries the first password for an OAuth-only account
type SetPasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest carries a password rotation
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

// UserProfile represents account data returned to clients
type UserProfile struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	GoogleLinked  bool   `json:"googleLinked"`
	EmailVerified bool   `json:"emailVerified"`
	HasPassword   bool   `json:"hasPassword"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    UserProfile `json:"user"`
}

func toUserProfile(u *domain.User) UserProfile {
	return UserProfile{
		ID:            u.ID.Hex(),
		Name:          u.Name,
		Username:      u.Username,
		Email:         u.Email,
		GoogleLinked:  u.GoogleID != "",
		EmailVerified: u.EmailVerified,
		HasPassword:   u.HasPassword(),
	}
}

// AuthHandler handles HTTP requests for account operations
type AuthHandler struct {
	accounts  service.AccountService
	google    *oauth.Google
	clientURL string
	logger    *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(accounts service.AccountService, google *oauth.Google, clientURL string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		accounts:  accounts,
		google:    google,
		clientURL: clientURL,
		logger:    logger,
	}
}

// RegisterRoutes registers all auth routes
func (h *AuthHandler) RegisterRoutes(r chi.Router, authMiddleware, authRateLimit func(http.Handler) http.Handler) {
	r.Route("/api/auth", func(r chi.Router) {
		// Public routes; login and register sit behind the tighter limiter.
		r.Group(func(r chi.Router) {
			if authRateLimit != nil {
				r.Use(authRateLimit)
			}
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
		})
		r.Post("/logout", h.Logout)
		r.Get("/google", h.GoogleRedirect)
		r.Get("/google/callback", h.GoogleCallback)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Get("/me", h.Me)
			r.Put("/me", h.UpdateMe)
			r.Delete("/me", h.DeleteMe)
			r.Post("/set-password", h.SetPassword)
			r.Post("/change-password", h.ChangePassword)
			r.Post("/unlink-google", h.UnlinkGoogle)
		})
	})
}

// Register handles account registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Registration validation failed", zap.Error(err))
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.accounts.Register(r.Context(), req.Name, req.Username, req.Email, req.Password)
	if err != nil {
		h.respondAccountError(w, err, "failed to register")
		return
	}

	h.logger.Info("User registered", zap.String("user_id", user.ID.Hex()))
	middleware.RespondWithJSON(w, http.StatusCreated, AuthResponse{
		Message: "User registered successfully",
		Token:   token,
		User:    toUserProfile(user),
	})
}

// Login handles credential authentication
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Login validation failed", zap.Error(err))
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondAccountError(w, err, "failed to login")
		return
	}

	h.logger.Info("User logged in", zap.String("user_id", user.ID.Hex()))
	middleware.RespondWithJSON(w, http.StatusOK, AuthResponse{
		Message: "Login successful",
		Token:   token,
		User:    toUserProfile(user),
	})
}

// Logout acknowledges the request. Tokens are stateless, so there is nothing
// to revoke server-side; they stay valid until expiry.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// Me returns the authenticated account
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUserID(w, r)
	if !ok {
		return
	}

	user, err := h.accounts.GetUser(r.Context(), userID)
	if err != nil {
		h.respondAccountError(w, err, "failed to get user")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]UserProfile{"user": toUserProfile(user)})
}

// UpdateMe changes the display name and/or username
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUserID(w, r)
	if !ok {
		return
	}

	var req UpdateMeRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.accounts.UpdateUser(r.Context(), userID, req.Name, req.Username)
	if err != nil {
		h.respondAccountError(w, err, "failed to update user")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Profile updated",
		"user":    toUserProfile(user),
	})
}

// DeleteMe removes the account along with its skincare profile
func (h *AuthHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.accounts.DeleteAccount(r.Context(), userID); err != nil {
		h.respondAccountError(w, err, "failed to delete account")
		return
	}

	h.logger.Info("Account deleted", zap.String("user_id", userID.Hex()))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Account deleted successfully"})
}

// SetPassword gives an OAuth-only account its first password
func (h *AuthHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUserID(w, r)
	if !ok {
		return
	}

	var req SetPasswordRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.accounts.SetPassword(r.Context(), userID, req.Password); err != nil {
		h.respondAccountError(w, err, "failed to set password")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Password set successfully"})
}

// ChangePassword rotates an existing password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUserID(w, r)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.accounts.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.respondAccountError(w, err, "failed to change password")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

// UnlinkGoogle removes the Google linkage from a password-backed account
func (h *AuthHandler) UnlinkGoogle(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.accounts.UnlinkGoogle(r.Context(), userID); err != nil {
		h.respondAccountError(w, err, "failed to unlink google")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Google account unlinked"})
}

// GoogleRedirect starts the OAuth handshake
func (h *AuthHandler) GoogleRedirect(w http.ResponseWriter, r *http.Request) {
	if !h.google.Enabled() {
		middleware.RespondWithError(w, http.StatusServiceUnavailable, "google sign-in is not configured")
		return
	}
	http.Redirect(w, r, h.google.AuthURL(h.google.NewState()), http.StatusFound)
}

// GoogleCallback completes the OAuth handshake and redirects back to the
// client carrying the issued token, or to the login page on failure.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	failure := h.clientURL + "/login?error=oauth_failed"

	if !h.google.Enabled() || r.URL.Query().Get("error") != "" {
		http.Redirect(w, r, failure, http.StatusFound)
		return
	}

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if code == "" || !h.google.VerifyState(state) {
		h.logger.Warn("OAuth callback with bad state or missing code")
		http.Redirect(w, r, failure, http.StatusFound)
		return
	}

	identity, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("OAuth exchange failed", zap.Error(err))
		http.Redirect(w, r, failure, http.StatusFound)
		return
	}

	user, token, err := h.accounts.LoginWithGoogle(r.Context(), *identity)
	if err != nil {
		h.logger.Error("Google login failed", zap.Error(err))
		http.Redirect(w, r, failure, http.StatusFound)
		return
	}

	h.logger.Info("User logged in via Google", zap.String("user_id", user.ID.Hex()))
	http.Redirect(w, r, h.clientURL+"/oauth-callback?token="+token, http.StatusFound)
}

func (h *AuthHandler) requireUserID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Error("User ID not found in context")
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return primitive.NilObjectID, false
	}
	return userID, true
}

// respondAccountError translates service errors into HTTP status codes with
// short messages. Internal detail never reaches the caller on a 500.
func (h *AuthHandler) respondAccountError(w http.ResponseWriter, err error, fallback string) {
	var policyErr *service.PasswordPolicyError

	switch {
	case errors.Is(err, repository.ErrEmailTaken):
		middleware.RespondWithError(w, http.StatusBadRequest, "Email already registered")
	case errors.Is(err, repository.ErrUsernameTaken):
		middleware.RespondWithError(w, http.StatusBadRequest, "Username already taken")
	case errors.Is(err, service.ErrInvalidUsername):
		middleware.RespondWithError(w, http.StatusBadRequest, service.ErrInvalidUsername.Error())
	case errors.As(err, &policyErr):
		middleware.RespondWithError(w, http.StatusBadRequest, "Password "+policyErr.Reason)
	case errors.Is(err, service.ErrPasswordAlreadySet),
		errors.Is(err, service.ErrNoPasswordSet),
		errors.Is(err, service.ErrGoogleNotUnlinked):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, service.ErrGoogleOnlyAccount):
		middleware.RespondWithError(w, http.StatusUnauthorized, "Please sign in with Google")
	case errors.Is(err, repository.ErrUserNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "User not found")
	default:
		h.logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
