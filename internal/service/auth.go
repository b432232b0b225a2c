package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/todoapp/todoapp-go/internal/crypto"
	"github.com/todoapp/todoapp-go/internal/model"
	"github.com/todoapp/todoapp-go/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserExists         = errors.New("username or email already exists")
)

// AuthService handles registration, credential checks and token issuance.
type AuthService struct {
	repo   *repository.UserRepository
	tokens *crypto.TokenService

	hashPassword func(string) (string, error)

	dummyMu   sync.Mutex
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo *repository.UserRepository, tokens *crypto.TokenService) *AuthService {
	return &AuthService{
		repo:         repo,
		tokens:       tokens,
		hashPassword: crypto.HashPassword,
	}
}

// Register creates a new active account with the user role.
func (s *AuthService) Register(ctx context.Context, req model.CreateUserRequest) (model.UserResponse, error) {
	return s.register(ctx, req, model.RoleUser)
}

// CreateAdmin creates a new active account with the admin role.
func (s *AuthService) CreateAdmin(ctx context.Context, req model.CreateUserRequest) (model.UserResponse, error) {
	return s.register(ctx, req, model.RoleAdmin)
}

func (s *AuthService) register(ctx context.Context, req model.CreateUserRequest, role model.Role) (model.UserResponse, error) {
	req, err := validateRegistration(req)
	if err != nil {
		return model.UserResponse{}, err
	}

	exists, err := s.repo.ExistsByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		return model.UserResponse{}, err
	}
	if exists {
		return model.UserResponse{}, ErrUserExists
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return model.UserResponse{}, err
	}

	user := &model.User{
		Username:       req.Username,
		Email:          req.Email,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		PhoneNumber:    req.PhoneNumber,
		HashedPassword: hash,
		IsActive:       true,
		Role:           role,
	}

	// The unique indexes still catch a concurrent registration that slipped
	// past the existence check.
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return model.UserResponse{}, ErrUserExists
		}
		return model.UserResponse{}, err
	}

	slog.Info("user registered", "user_id", user.ID, "role", role)
	return user.ToResponse(), nil
}

// AuthenticateCredentials returns the user when username and password match
// an active account. Every failure is reported as ErrInvalidCredentials.
func (s *AuthService) AuthenticateCredentials(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Spend the same hashing work as a real check.
			_, _ = crypto.VerifyPassword(password, s.placeholderHash())
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	match, err := crypto.VerifyPassword(password, user.HashedPassword)
	if err != nil {
		slog.Error("stored password digest unreadable", "user_id", user.ID, "error", err)
		return nil, ErrInvalidCredentials
	}
	if !match || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if crypto.NeedsRehash(user.HashedPassword) {
		s.upgradeHash(ctx, user, password)
	}

	return user, nil
}

// Login checks credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.TokenResponse, error) {
	user, err := s.AuthenticateCredentials(ctx, req.Username, req.Password)
	if err != nil {
		return model.TokenResponse{}, err
	}

	token, err := s.tokens.Issue(user.ID, user.Username, string(user.Role), s.tokens.TTL())
	if err != nil {
		return model.TokenResponse{}, err
	}

	return model.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
	}, nil
}

func (s *AuthService) upgradeHash(ctx context.Context, user *model.User, password string) {
	hash, err := s.hashPassword(password)
	if err != nil {
		slog.Warn("password rehash failed", "user_id", user.ID, "error", err)
		return
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		slog.Warn("password rehash failed", "user_id", user.ID, "error", err)
		return
	}
	user.HashedPassword = hash
}

// placeholderHash returns the digest verified for unknown usernames. A failed
// build is retried on the next call rather than cached.
func (s *AuthService) placeholderHash() string {
	s.dummyMu.Lock()
	defer s.dummyMu.Unlock()

	if s.dummyHash != "" {
		return s.dummyHash
	}

	hash, err := s.hashPassword("placeholder-password")
	if err != nil {
		slog.Warn("could not build placeholder hash", "error", err)
		return ""
	}
	s.dummyHash = hash
	return s.dummyHash
}
