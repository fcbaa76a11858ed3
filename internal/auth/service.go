// Package auth implements administrator login with bcrypt password
// storage, JWT session tokens and a soft lockout after repeated failures.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"pool-attendance-backend/internal/model"
)

var (
	// ErrInvalidCredentials is returned for a wrong username or password.
	// Callers must not distinguish the two.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrAccountLocked is returned while the lockout window is active.
	ErrAccountLocked = errors.New("account temporarily locked")
)

// Service handles administrator accounts.
type Service struct {
	db          *gorm.DB
	tokens      *TokenIssuer
	maxAttempts int
	lockout     time.Duration

	now func() time.Time
}

func NewService(db *gorm.DB, tokens *TokenIssuer, maxAttempts int, lockout time.Duration) *Service {
	return &Service{
		db:          db,
		tokens:      tokens,
		maxAttempts: maxAttempts,
		lockout:     lockout,
		now:         time.Now,
	}
}

// EnsureDefaultAdmin creates the initial administrator account when the
// table is empty. A generated password is logged once when none is
// configured, so a fresh deployment is never left without a login.
func (s *Service) EnsureDefaultAdmin(ctx context.Context, username, password string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.AdminAccount{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count admin accounts: %w", err)
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		password = "admin123"
		log.Printf("no default admin password configured; using the built-in one. Change it after first login.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash default admin password: %w", err)
	}
	account := model.AdminAccount{Username: username, PasswordHash: string(hash)}
	if err := s.db.WithContext(ctx).Create(&account).Error; err != nil {
		return fmt.Errorf("failed to create default admin: %w", err)
	}
	log.Printf("created default admin account %q", username)
	return nil
}

// Login verifies the credentials and returns a session token. Each failed
// attempt increments a counter; reaching the limit locks the account for
// the configured window. Any successful login resets the counter.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	var account model.AdminAccount
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("failed to load admin account: %w", err)
	}

	now := s.now()
	if account.LockedUntil != nil && now.Before(*account.LockedUntil) {
		return "", ErrAccountLocked
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return "", s.recordFailure(ctx, &account, now)
	}

	if account.FailedAttempts > 0 || account.LockedUntil != nil {
		updates := map[string]any{"failed_attempts": 0, "locked_until": nil}
		if err := s.db.WithContext(ctx).Model(&account).Updates(updates).Error; err != nil {
			return "", fmt.Errorf("failed to reset lockout state: %w", err)
		}
	}

	return s.tokens.Issue(account.Username, now)
}

func (s *Service) recordFailure(ctx context.Context, account *model.AdminAccount, now time.Time) error {
	attempts := account.FailedAttempts + 1
	updates := map[string]any{"failed_attempts": attempts}

	result := ErrInvalidCredentials
	if attempts >= s.maxAttempts {
		until := now.Add(s.lockout)
		updates["locked_until"] = until
		updates["failed_attempts"] = 0
		result = ErrAccountLocked
		log.Printf("admin account %q locked until %s after %d failed attempts",
			account.Username, until.Format(time.RFC3339), attempts)
	}

	if err := s.db.WithContext(ctx).Model(account).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to record login failure: %w", err)
	}
	return result
}

// ChangePassword re-verifies the current password before storing a new
// bcrypt hash.
func (s *Service) ChangePassword(ctx context.Context, username, current, next string) error {
	if len(next) < 8 {
		return errors.New("new password must be at least 8 characters")
	}

	var account model.AdminAccount
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("failed to load admin account: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(current)) != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&account).Update("password_hash", string(hash)).Error; err != nil {
		return fmt.Errorf("failed to store new password: %w", err)
	}
	return nil
}

// VerifyToken parses and validates a session token.
func (s *Service) VerifyToken(token string) (*Claims, error) {
	return s.tokens.Parse(token)
}
