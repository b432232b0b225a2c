package service

import (
	"context"
	"errors"

	"github.com/todoapp/todoapp-go/internal/crypto"
	"github.com/todoapp/todoapp-go/internal/model"
	"github.com/todoapp/todoapp-go/internal/repository"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already taken")
	ErrForbidden    = errors.New("not allowed to modify this user")
)

// UserService handles profile and password management for existing users.
type UserService struct {
	repo *repository.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(repo *repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// GetProfile returns the public view of a user.
func (s *UserService) GetProfile(ctx context.Context, userID int64) (model.UserResponse, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return model.UserResponse{}, err
	}
	return user.ToResponse(), nil
}

// UpdateProfile applies the non-nil fields of req to the user's profile.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req model.UpdateProfileRequest) (model.UserResponse, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return model.UserResponse{}, err
	}

	if req.Email != nil {
		email, err := normalizeEmail(*req.Email)
		if err != nil {
			return model.UserResponse{}, err
		}
		user.Email = email
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = *req.PhoneNumber
	}

	if err := validateProfileLengths(user.FirstName, user.LastName, user.PhoneNumber); err != nil {
		return model.UserResponse{}, err
	}

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return model.UserResponse{}, ErrEmailTaken
		}
		return model.UserResponse{}, err
	}

	return user.ToResponse(), nil
}

// UpdateUser lets a caller edit their own profile, or any profile when the
// caller is an admin.
func (s *UserService) UpdateUser(ctx context.Context, caller model.Identity, userID int64, req model.UpdateProfileRequest) (model.UserResponse, error) {
	if caller.UserID != userID && !caller.IsAdmin() {
		return model.UserResponse{}, ErrForbidden
	}
	return s.UpdateProfile(ctx, userID, req)
}

// ChangePassword replaces the password after verifying the old one.
func (s *UserService) ChangePassword(ctx context.Context, userID int64, req model.ChangePasswordRequest) error {
	if req.NewPassword == "" {
		return ErrPasswordRequired
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	match, err := crypto.VerifyPassword(req.OldPassword, user.HashedPassword)
	if err != nil || !match {
		return ErrInvalidCredentials
	}

	hash, err := crypto.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	return s.repo.UpdatePassword(ctx, userID, hash)
}

func (s *UserService) getUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
