package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/todoapp/todoapp-go/internal/crypto"
	"github.com/todoapp/todoapp-go/internal/model"
	"github.com/todoapp/todoapp-go/internal/repository"
)

type testServices struct {
	db     *sql.DB
	users  *repository.UserRepository
	tokens *crypto.TokenService
	auth   *AuthService
	user   *UserService
	todo   *TodoService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()
	ctx := context.Background()

	db, err := repository.NewDB(ctx, repository.DriverSQLite, filepath.Join(t.TempDir(), "todos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repository.Migrate(ctx, db, repository.DriverSQLite))

	tokens, err := crypto.NewTokenService(crypto.TokenConfig{Secret: "test-secret", TTL: 20 * time.Minute})
	require.NoError(t, err)

	users := repository.NewUserRepository(db)
	return &testServices{
		db:     db,
		users:  users,
		tokens: tokens,
		auth:   NewAuthService(users, tokens),
		user:   NewUserService(users),
		todo:   NewTodoService(repository.NewTodoRepository(db)),
	}
}

func registerRequest(username string) model.CreateUserRequest {
	return model.CreateUserRequest{
		Username:    username,
		Email:       username + "@example.com",
		FirstName:   "First",
		LastName:    "Last",
		Password:    "pw123",
		PhoneNumber: "555-0100",
	}
}

func mustRegister(t *testing.T, s *testServices, username string) model.UserResponse {
	t.Helper()
	user, err := s.auth.Register(context.Background(), registerRequest(username))
	require.NoError(t, err)
	return user
}
