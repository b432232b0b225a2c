package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/todoapp/todoapp-go/internal/model"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("username or email already exists")
)

const userColumns = `id, username, email, first_name, last_name, phone_number,
	hashed_password, is_active, role, created_at`

// UserRepository handles user persistence operations.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user and sets the generated ID on the user struct.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users
		(username, email, first_name, last_name, phone_number, hashed_password, is_active, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	result, err := r.db.ExecContext(ctx, query,
		user.Username, user.Email, user.FirstName, user.LastName, user.PhoneNumber,
		user.HashedPassword, user.IsActive, string(user.Role), user.CreatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDuplicateUser
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	user.ID = id
	return nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetByUsername retrieves a user by their username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

// ExistsByUsernameOrEmail reports whether any user already holds username or email.
func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE username = ? OR email = ?`, username, email,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateProfile writes the profile fields of user. Credentials, role and
// username are not touched.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	query := `UPDATE users SET email = ?, first_name = ?, last_name = ?, phone_number = ? WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query,
		user.Email, user.FirstName, user.LastName, user.PhoneNumber, user.ID,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDuplicateUser
		}
		return err
	}
	return nil
}

// UpdatePassword replaces the stored password digest for a user.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hashedPassword string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET hashed_password = ? WHERE id = ?`, hashedPassword, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func scanUser(row rowScanner) (*model.User, error) {
	user := &model.User{}
	var role string
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.FirstName, &user.LastName, &user.PhoneNumber,
		&user.HashedPassword, &user.IsActive, &role, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	user.Role = model.Role(role)
	return user, nil
}
