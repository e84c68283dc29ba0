package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"focustache/internal/models"
	"focustache/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is the longest input bcrypt hashes without truncation.
const maxPasswordBytes = 72

// AuthOptions tunes AuthService.
type AuthOptions struct {
	// BcryptCost is the hashing cost factor; zero selects 10.
	BcryptCost int
	// CascadeOnDelete removes the user's tasks when the account is deleted.
	// When false the tasks stay behind, owned by an account that no longer exists.
	CascadeOnDelete bool
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expiresAt"`
	User      models.UserSummary `json:"user"`
}

// ProfileUpdate lists the profile fields a caller wants to change.
// Nil or blank fields are ignored.
type ProfileUpdate struct {
	Name     *string
	Email    *string
	Password *string
}

// AuthService handles registration, login and the caller's own profile.
type AuthService struct {
	userRepo  repositories.UserRepository
	taskRepo  repositories.TaskRepository
	tokens    *TokenService
	publisher EventPublisher
	cost      int
	cascade   bool
	now       func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService creates a new AuthService. publisher may be nil.
func NewAuthService(userRepo repositories.UserRepository, taskRepo repositories.TaskRepository, tokens *TokenService, publisher EventPublisher, opts AuthOptions) *AuthService {
	cost := opts.BcryptCost
	if cost == 0 {
		cost = 10
	}
	return &AuthService{
		userRepo:  userRepo,
		taskRepo:  taskRepo,
		tokens:    tokens,
		publisher: publisher,
		cost:      cost,
		cascade:   opts.CascadeOnDelete,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and signs the user in.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)

	verr := NewValidationError()
	if name == "" {
		verr.Fields["name"] = "name is required"
	}
	if email == "" {
		verr.Fields["email"] = "email is required"
	}
	if password == "" {
		verr.Fields["password"] = "password is required"
	} else if len(password) > maxPasswordBytes {
		verr.Fields["password"] = fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes)
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("register %s: %w", email, ErrDuplicateEmail)
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, storeError("find user by email", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			return nil, fmt.Errorf("register %s: %w", email, ErrDuplicateEmail)
		}
		return nil, storeError("create user", err)
	}

	slog.InfoContext(ctx, "user registered", "user_id", user.ID)
	publish(ctx, s.publisher, EventUserRegistered, map[string]interface{}{
		"userId": user.ID,
		"email":  user.Email,
	})
	return s.signIn(user)
}

// Login authenticates by email and password. An unknown email and a wrong
// password produce the same ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = NormalizeEmail(email)

	verr := NewValidationError()
	if email == "" {
		verr.Fields["email"] = "email is required"
	}
	if password == "" {
		verr.Fields["password"] = "password is required"
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return nil, storeError("find user by email", err)
		}
		// Spend the same hashing time as a real comparison.
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.signIn(user)
}

// GetProfile returns the caller's profile.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, s.userLookupError("get user", userID, err)
	}
	profile := user.Profile()
	return &profile, nil
}

// Verify confirms that the account behind a verified token still exists
// and returns its profile.
func (s *AuthService) Verify(ctx context.Context, userID string) (*models.Profile, error) {
	return s.GetProfile(ctx, userID)
}

// UpdateProfile changes the fields present in in and returns the new profile.
// A new password is re-hashed before it is stored.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (*models.Profile, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	var changes models.UserChanges
	if in.Name != nil {
		if name := strings.TrimSpace(*in.Name); name != "" {
			changes.Name = &name
		}
	}
	if in.Email != nil {
		if email := NormalizeEmail(*in.Email); email != "" {
			changes.Email = &email
		}
	}
	if in.Password != nil && *in.Password != "" {
		if len(*in.Password) > maxPasswordBytes {
			return nil, NewValidationError("password", fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes))
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.cost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		hashed := string(hash)
		changes.PasswordHash = &hashed
	}

	if changes.Empty() {
		return s.GetProfile(ctx, userID)
	}

	user, err := s.userRepo.Update(ctx, userID, changes)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			return nil, fmt.Errorf("update profile: %w", ErrDuplicateEmail)
		}
		return nil, s.userLookupError("update user", userID, err)
	}
	profile := user.Profile()
	return &profile, nil
}

// DeleteProfile removes the caller's account. Tasks are removed as well only
// when the service was built with CascadeOnDelete; they go before the account
// so a failed cleanup leaves the account in place and the call can be retried.
func (s *AuthService) DeleteProfile(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrUnauthenticated
	}

	var removed int64
	if s.cascade {
		if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
			return s.userLookupError("get user", userID, err)
		}
		n, err := s.taskRepo.DeleteByOwner(ctx, userID)
		if err != nil {
			return storeError("delete tasks of user", err)
		}
		removed = n
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return s.userLookupError("delete user", userID, err)
	}

	slog.InfoContext(ctx, "user deleted", "user_id", userID, "tasks_removed", removed, "cascade", s.cascade)
	publish(ctx, s.publisher, EventUserDeleted, map[string]interface{}{
		"userId":       userID,
		"cascade":      s.cascade,
		"tasksRemoved": removed,
	})
	return nil
}

func (s *AuthService) signIn(user *models.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user.Summary(),
	}, nil
}

func (s *AuthService) userLookupError(op, userID string, err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return storeError(op, err)
}

func (s *AuthService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("focustache-timing-guard"), s.cost)
	})
	return s.dummyHash
}
