package service

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/todoapp/todoapp-go/internal/model"
)

// ErrValidation is wrapped by every field constraint error.
var ErrValidation = errors.New("validation failed")

var (
	ErrUsernameRequired    = fmt.Errorf("%w: username is required", ErrValidation)
	ErrUsernameTooLong     = fmt.Errorf("%w: username must be at most 64 characters", ErrValidation)
	ErrEmailInvalid        = fmt.Errorf("%w: email must be a valid address", ErrValidation)
	ErrPasswordRequired    = fmt.Errorf("%w: password is required", ErrValidation)
	ErrProfileFieldTooLong = fmt.Errorf("%w: profile field is too long", ErrValidation)
	ErrTitleLength         = fmt.Errorf("%w: title must be between 3 and 128 characters", ErrValidation)
	ErrDescriptionLength   = fmt.Errorf("%w: description must be between 3 and 100 characters", ErrValidation)
	ErrPriorityRange       = fmt.Errorf("%w: priority must be between 1 and 5", ErrValidation)
)

const (
	maxUsernameLength = 64
	maxEmailLength    = 256
	maxNameLength     = 64
	maxPhoneLength    = 32

	minTitleLength       = 3
	maxTitleLength       = 128
	minDescriptionLength = 3
	maxDescriptionLength = 100
	minPriority          = 1
	maxPriority          = 5
)

func validateTodo(req model.TodoRequest) error {
	if n := utf8.RuneCountInString(req.Title); n < minTitleLength || n > maxTitleLength {
		return ErrTitleLength
	}
	if n := utf8.RuneCountInString(req.Description); n < minDescriptionLength || n > maxDescriptionLength {
		return ErrDescriptionLength
	}
	if req.Priority < minPriority || req.Priority > maxPriority {
		return ErrPriorityRange
	}
	return nil
}

func validateRegistration(req model.CreateUserRequest) (model.CreateUserRequest, error) {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		return req, ErrUsernameRequired
	}
	if utf8.RuneCountInString(req.Username) > maxUsernameLength {
		return req, ErrUsernameTooLong
	}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return req, err
	}
	req.Email = email

	if req.Password == "" {
		return req, ErrPasswordRequired
	}

	if err := validateProfileLengths(req.FirstName, req.LastName, req.PhoneNumber); err != nil {
		return req, err
	}
	return req, nil
}

// normalizeEmail accepts a bare address and lower-cases it so uniqueness is
// case-insensitive.
func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || utf8.RuneCountInString(raw) > maxEmailLength {
		return "", ErrEmailInvalid
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", ErrEmailInvalid
	}
	return strings.ToLower(addr.Address), nil
}

func validateProfileLengths(firstName, lastName, phone string) error {
	if utf8.RuneCountInString(firstName) > maxNameLength ||
		utf8.RuneCountInString(lastName) > maxNameLength ||
		utf8.RuneCountInString(phone) > maxPhoneLength {
		return ErrProfileFieldTooLong
	}
	return nil
}
