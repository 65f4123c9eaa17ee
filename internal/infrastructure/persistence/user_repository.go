package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nimbuscrm/backend/internal/domain/models"
	"github.com/nimbuscrm/backend/internal/infrastructure/database"
	"github.com/nimbuscrm/backend/pkg/constants"
)

// UserRepository owns the users and sessions tables.
type UserRepository struct {
	db *database.Connection
}

func NewUserRepository(db *database.Connection) *UserRepository {
	return &UserRepository{db: db}
}

// UserWithPassword extends User with the stored bcrypt hash for auth checks.
type UserWithPassword struct {
	models.User
	PasswordHash string
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s = ?)", constants.TableUser, constants.FieldEmail)
	err := r.db.QueryRowContext(ctx, query, email).Scan(&exists)
	return exists, err
}

// Create inserts a new user row.
func (r *UserRepository) Create(ctx context.Context, u *models.User, passwordHash string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, email, password, super_user, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, constants.TableUser)
	_, err := r.db.ExecContext(ctx, query, u.ID, u.Name, u.Email, passwordHash, u.SuperUser, u.IsActive, u.CreatedAt)
	return err
}

// FindByEmailWithPassword retrieves a user and their password hash by email.
// Returns (nil, nil) when no such user exists.
func (r *UserRepository) FindByEmailWithPassword(ctx context.Context, email string) (*UserWithPassword, error) {
	query := fmt.Sprintf(`
		SELECT id, name, email, password, super_user, is_active
		FROM %s WHERE email = ? LIMIT 1`, constants.TableUser)

	var u UserWithPassword
	var password sql.NullString
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&u.ID, &u.Name, &u.Email, &password, &u.SuperUser, &u.IsActive)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if password.Valid {
		u.PasswordHash = password.String
	}
	return &u, nil
}

// FindByIDWithPassword retrieves a user and their password hash by ID.
func (r *UserRepository) FindByIDWithPassword(ctx context.Context, userID string) (*UserWithPassword, error) {
	query := fmt.Sprintf(`
		SELECT id, name, email, password, super_user, is_active
		FROM %s WHERE id = ? LIMIT 1`, constants.TableUser)

	var u UserWithPassword
	var password sql.NullString
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&u.ID, &u.Name, &u.Email, &password, &u.SuperUser, &u.IsActive)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if password.Valid {
		u.PasswordHash = password.String
	}
	return &u, nil
}

// GetByID fetches basic user info.
func (r *UserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	query := fmt.Sprintf(`
		SELECT id, name, email, super_user, is_active, created_at
		FROM %s WHERE id = ? LIMIT 1`, constants.TableUser)

	var u models.User
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&u.ID, &u.Name, &u.Email, &u.SuperUser, &u.IsActive, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdatePassword updates the user's password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	query := fmt.Sprintf("UPDATE %s SET password = ? WHERE id = ?", constants.TableUser)
	_, err := r.db.ExecContext(ctx, query, passwordHash, userID)
	return err
}

// TouchLastLogin records a successful login timestamp.
func (r *UserRepository) TouchLastLogin(ctx context.Context, userID string) error {
	query := fmt.Sprintf("UPDATE %s SET last_login = NOW() WHERE id = ?", constants.TableUser)
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

// --- Sessions ---

// CreateSession persists a session row keyed by the JWT jti.
func (r *UserRepository) CreateSession(ctx context.Context, s *models.Session) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, token, expires_at, ip_address, user_agent, is_revoked, last_activity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, constants.TableSession)
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.UserID, s.Token, s.ExpiresAt, s.IPAddress, s.UserAgent, s.IsRevoked, s.LastActivity)
	return err
}

// SessionRevoked reports whether the session exists and whether it was revoked.
func (r *UserRepository) SessionRevoked(ctx context.Context, sessionID string) (found, revoked bool, err error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? LIMIT 1",
		constants.FieldIsRevoked, constants.TableSession, constants.FieldID)
	err = r.db.QueryRowContext(ctx, query, sessionID).Scan(&revoked)
	if err == sql.ErrNoRows {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return true, revoked, nil
}

// RevokeSession marks a session revoked (logout).
func (r *UserRepository) RevokeSession(ctx context.Context, sessionID string) error {
	query := fmt.Sprintf("UPDATE %s SET %s = 1 WHERE %s = ?",
		constants.TableSession, constants.FieldIsRevoked, constants.FieldID)
	_, err := r.db.ExecContext(ctx, query, sessionID)
	return err
}

// TouchSession updates the last-activity timestamp.
func (r *UserRepository) TouchSession(ctx context.Context, sessionID string, at time.Time) error {
	query := fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s = ?",
		constants.TableSession, constants.FieldLastActive, constants.FieldID)
	_, err := r.db.ExecContext(ctx, query, at, sessionID)
	return err
}
