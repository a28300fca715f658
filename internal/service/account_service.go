package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"serene/internal/domain"
	"serene/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 12

	// TokenExpiration is the fixed validity of issued bearer tokens
	TokenExpiration = 24 * time.Hour
)

var (
	// ErrInvalidCredentials deliberately covers both "no such account" and
	// "wrong password" to avoid account enumeration.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrGoogleOnlyAccount is returned when a password login hits an account
	// that only has Google sign-in.
	ErrGoogleOnlyAccount = errors.New("please sign in with Google")

	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidUsername    = errors.New("username must be 3-20 characters: lowercase letters, digits, underscores")
	ErrPasswordAlreadySet = errors.New("password already set, use change password instead")
	ErrNoPasswordSet      = errors.New("no password set, use set password instead")
	ErrGoogleNotUnlinked  = errors.New("cannot unlink Google without setting a password first")
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,20}$`)

// PasswordPolicyError reports which strength rule a candidate password broke.
type PasswordPolicyError struct {
	Reason string
}

func (e *PasswordPolicyError) Error() string {
	return "weak password: " + e.Reason
}

// Claims represents the JWT claims carried by a bearer token
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// ExternalIdentity is the verified profile handed back by the identity
// provider after the OAuth exchange.
type ExternalIdentity struct {
	Sub           string
	Email         string
	Name          string
	EmailVerified bool
}

// AccountService defines the interface for account business logic
type AccountService interface {
	Register(ctx context.Context, name, username, email, password string) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	LoginWithGoogle(ctx context.Context, identity ExternalIdentity) (*domain.User, string, error)
	ValidateToken(tokenString string) (*Claims, error)
	GetUser(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	UpdateUser(ctx context.Context, id primitive.ObjectID, name, username string) (*domain.User, error)
	SetPassword(ctx context.Context, id primitive.ObjectID, password string) error
	ChangePassword(ctx context.Context, id primitive.ObjectID, currentPassword, newPassword string) error
	UnlinkGoogle(ctx context.Context, id primitive.ObjectID) error
	DeleteAccount(ctx context.Context, id primitive.ObjectID) error
}

type accountService struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	jwtSecret   string
}

// NewAccountService creates a new instance of AccountService
func NewAccountService(
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	jwtSecret string,
) AccountService {
	return &accountService{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		jwtSecret:   jwtSecret,
	}
}

// Register creates a new credential-based account and issues its first token.
// Email and username are case-folded before uniqueness checks and storage.
func (s *accountService) Register(ctx context.Context, name, username, email, password string) (*domain.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.ToLower(strings.TrimSpace(username))

	if !usernamePattern.MatchString(username) {
		return nil, "", ErrInvalidUsername
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, "", repository.ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, "", fmt.Errorf("failed to check existing email: %w", err)
	}

	if _, err := s.userRepo.FindByUsername(ctx, username); err == nil {
		return nil, "", repository.ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, "", fmt.Errorf("failed to check existing username: %w", err)
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		Name:         strings.TrimSpace(name),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	return user, token, nil
}

// Login authenticates by email and password and issues a bearer token.
func (s *accountService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to find user: %w", err)
	}

	if !user.HasPassword() {
		return nil, "", ErrGoogleOnlyAccount
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	return user, token, nil
}

// LoginWithGoogle signs in via a verified Google identity: an existing
// account matched by email gets its Google id backfilled when unset,
// otherwise a new password-less account is created.
func (s *accountService) LoginWithGoogle(ctx context.Context, identity ExternalIdentity) (*domain.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if email == "" || identity.Sub == "" {
		return nil, "", ErrInvalidCredentials
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if user.GoogleID == "" {
			user.GoogleID = identity.Sub
			if err := s.userRepo.Update(ctx, user); err != nil {
				return nil, "", fmt.Errorf("failed to link google account: %w", err)
			}
		}
	case errors.Is(err, repository.ErrUserNotFound):
		user, err = s.createGoogleUser(ctx, email, identity)
		if err != nil {
			return nil, "", err
		}
	default:
		return nil, "", fmt.Errorf("failed to find user: %w", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	return user, token, nil
}

func (s *accountService) createGoogleUser(ctx context.Context, email string, identity ExternalIdentity) (*domain.User, error) {
	name := strings.TrimSpace(identity.Name)
	local := email
	if at := strings.Index(email, "@"); at > 0 {
		local = email[:at]
	}
	if name == "" {
		name = local
	}

	now := time.Now().UTC()
	user := &domain.User{
		Name:          name,
		Username:      generatedUsername(local, now),
		Email:         email,
		GoogleID:      identity.Sub,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.userRepo.Create(ctx, user)
	if errors.Is(err, repository.ErrUsernameTaken) {
		// Rare suffix collision: retry once with a different suffix.
		user.Username = generatedUsername(local, now.Add(time.Millisecond))
		err = s.userRepo.Create(ctx, user)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create google user: %w", err)
	}
	return user, nil
}

// generatedUsername derives a username from the email local part plus a
// timestamp suffix, folded into the allowed charset and length.
func generatedUsername(local string, now time.Time) string {
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return unicode.ToLower(r)
		default:
			return -1
		}
	}, local)
	if base == "" {
		base = "user"
	}
	if len(base) > 15 {
		base = base[:15]
	}
	millis := fmt.Sprintf("%d", now.UnixMilli())
	return base + "_" + millis[len(millis)-4:]
}

// ValidateToken parses and verifies a bearer token and returns its claims.
func (s *accountService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GetUser retrieves an account by ID
func (s *accountService) GetUser(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

// UpdateUser changes the display name and/or username. A username change
// re-checks uniqueness against everyone but the owner.
func (s *accountService) UpdateUser(ctx context.Context, id primitive.ObjectID, name, username string) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if username != "" {
		username = strings.ToLower(strings.TrimSpace(username))
		if !usernamePattern.MatchString(username) {
			return nil, ErrInvalidUsername
		}
		if username != user.Username {
			existing, err := s.userRepo.FindByUsername(ctx, username)
			if err == nil && existing.ID != user.ID {
				return nil, repository.ErrUsernameTaken
			}
			if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
				return nil, fmt.Errorf("failed to check existing username: %w", err)
			}
			user.Username = username
		}
	}

	if name != "" {
		user.Name = strings.TrimSpace(name)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetPassword gives a password-less (Google-only) account its first password.
func (s *accountService) SetPassword(ctx context.Context, id primitive.ObjectID, password string) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if user.HasPassword() {
		return ErrPasswordAlreadySet
	}
	if err := checkPasswordStrength(password); err != nil {
		return err
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = hash

	return s.userRepo.Update(ctx, user)
}

// ChangePassword replaces an existing password after verifying the current
// one. A mismatch is an authentication failure, not a validation failure.
func (s *accountService) ChangePassword(ctx context.Context, id primitive.ObjectID, currentPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !user.HasPassword() {
		return ErrNoPasswordSet
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return ErrInvalidCredentials
	}
	if err := checkPasswordStrength(newPassword); err != nil {
		return err
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = hash

	return s.userRepo.Update(ctx, user)
}

// UnlinkGoogle removes the Google linkage. Only allowed once a password
// exists, otherwise the account would be locked out.
func (s *accountService) UnlinkGoogle(ctx context.Context, id primitive.ObjectID) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !user.HasPassword() {
		return ErrGoogleNotUnlinked
	}

	user.GoogleID = ""
	return s.userRepo.Update(ctx, user)
}

// DeleteAccount removes the account and cascades to its profile.
func (s *accountService) DeleteAccount(ctx context.Context, id primitive.ObjectID) error {
	if err := s.profileRepo.DeleteByUserID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return s.userRepo.Delete(ctx, id)
}

func (s *accountService) hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// issueToken signs an HS256 bearer token bound to the account identity.
func (s *accountService) issueToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenExpiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// checkPasswordStrength enforces the password policy: at least 8 characters
// with one uppercase letter, one lowercase letter, and one digit.
func checkPasswordStrength(password string) error {
	if len(password) < 8 {
		return &PasswordPolicyError{Reason: "must be at least 8 characters"}
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper {
		return &PasswordPolicyError{Reason: "must contain at least one uppercase letter"}
	}
	if !lower {
		return &PasswordPolicyError{Reason: "must contain at least one lowercase letter"}
	}
	if !digit {
		return &PasswordPolicyError{Reason: "must contain at least one digit"}
	}
	return nil
}
