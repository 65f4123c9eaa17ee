package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nimbuscrm/backend/internal/domain/models"
	"github.com/nimbuscrm/backend/internal/infrastructure/persistence"
	"github.com/nimbuscrm/backend/pkg/auth"
	"github.com/nimbuscrm/backend/pkg/errors"
	"github.com/nimbuscrm/backend/pkg/utils"
)

// AuthService handles signup, login, session management, and password
// operations.
type AuthService struct {
	users   *persistence.UserRepository
	tenants *persistence.TenantRepository
}

func NewAuthService(users *persistence.UserRepository, tenants *persistence.TenantRepository) *AuthService {
	return &AuthService{users: users, tenants: tenants}
}

// Signup creates a new user account.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*models.User, error) {
	if name == "" {
		return nil, errors.NewValidationError("name", "name is required")
	}
	if !auth.IsValidEmail(email) {
		return nil, errors.NewValidationError("email", "invalid email format")
	}
	if err := auth.ValidatePasswordStrength(password); err != nil {
		return nil, errors.NewValidationError("password", err.Error())
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if exists {
		return nil, errors.NewConflictError("user", "email", email)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:        utils.GenerateID(),
		Name:      name,
		Email:     email,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	if err := s.users.Create(ctx, user, hash); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Printf("New user signed up: %s", email)
	return user, nil
}

// LoginResult contains the result of a successful login.
type LoginResult struct {
	Token     string
	User      auth.UserSession
	ExpiresAt time.Time
}

// Login authenticates a user and persists a session row keyed by the
// token's jti.
func (s *AuthService) Login(ctx context.Context, email, password, ip, userAgent string) (*LoginResult, error) {
	user, err := s.users.FindByEmailWithPassword(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if user == nil {
		log.Printf("Login failed for %s: user not found", email)
		return nil, errors.NewUnauthorizedError("invalid email or password")
	}
	if !user.IsActive {
		return nil, errors.NewUnauthorizedError("account is disabled")
	}
	if user.PasswordHash == "" || !auth.VerifyPassword(password, user.PasswordHash) {
		log.Printf("Login failed for %s: invalid password", email)
		return nil, errors.NewUnauthorizedError("invalid email or password")
	}

	session := auth.UserSession{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		SuperUser: user.SuperUser,
	}

	token, err := auth.GenerateToken(session)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	claims, err := auth.DecodeToken(token)
	if err != nil {
		return nil, fmt.Errorf("failed to decode issued token: %w", err)
	}
	expiresAt := claims.ExpiresAt.Time

	row := &models.Session{
		ID:           claims.RegisteredClaims.ID,
		UserID:       user.ID,
		Token:        token,
		ExpiresAt:    expiresAt,
		IPAddress:    ip,
		UserAgent:    userAgent,
		LastActivity: time.Now(),
	}
	if err := s.users.CreateSession(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	_ = s.users.TouchLastLogin(ctx, user.ID)

	return &LoginResult{Token: token, User: session, ExpiresAt: expiresAt}, nil
}

// ValidateSession checks the JWT signature and the session row's
// revocation flag.
func (s *AuthService) ValidateSession(ctx context.Context, tokenString string) (*auth.Claims, error) {
	claims, err := auth.ValidateToken(tokenString)
	if err != nil {
		return nil, errors.NewUnauthorizedError("invalid token")
	}

	found, revoked, err := s.users.SessionRevoked(ctx, claims.RegisteredClaims.ID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !found {
		return nil, errors.NewUnauthorizedError("session not found")
	}
	if revoked {
		return nil, errors.NewUnauthorizedError("session has been revoked")
	}

	return claims, nil
}

// TouchSession updates the session's last-activity timestamp. Fire and
// forget; a missed touch is not worth failing a request over.
func (s *AuthService) TouchSession(sessionID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.users.TouchSession(ctx, sessionID, time.Now())
	}()
}

// Logout revokes the session behind a token.
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	claims, err := auth.DecodeToken(tokenString)
	if err != nil {
		return errors.NewValidationError("token", "invalid token")
	}

	if err := s.users.RevokeSession(ctx, claims.RegisteredClaims.ID); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	log.Printf("User logged out: %s (session %s)", claims.RegisteredClaims.Subject, claims.RegisteredClaims.ID)
	return nil
}

// Me returns the current user with their tenant memberships.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, []*models.Membership, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("database error: %w", err)
	}
	if user == nil {
		return nil, nil, errors.NewNotFoundError("user", userID)
	}

	memberships, err := s.tenants.ListForUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("database error: %w", err)
	}
	return user, memberships, nil
}

// ChangePassword verifies the current password and stores a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if err := auth.ValidatePasswordStrength(newPassword); err != nil {
		return errors.NewValidationError("new_password", err.Error())
	}

	user, err := s.users.FindByIDWithPassword(ctx, userID)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if user == nil {
		return errors.NewNotFoundError("user", userID)
	}
	if !auth.VerifyPassword(currentPassword, user.PasswordHash) {
		return errors.NewUnauthorizedError("current password is incorrect")
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}
