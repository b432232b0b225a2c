package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/todoapp/todoapp-go/internal/model"
)

var ErrTodoNotFound = errors.New("todo not found")

const todoColumns = `id, title, description, priority, complete, owner_id, created_at`

// TodoRepository handles todo persistence. Every owner-scoped method filters
// on owner_id in SQL, so a foreign todo is indistinguishable from a missing one.
type TodoRepository struct {
	db *sql.DB
}

// NewTodoRepository creates a new TodoRepository.
func NewTodoRepository(db *sql.DB) *TodoRepository {
	return &TodoRepository{db: db}
}

// Create inserts a new todo and sets the generated ID on the todo struct.
func (r *TodoRepository) Create(ctx context.Context, todo *model.Todo) error {
	query := `INSERT INTO todos (title, description, priority, complete, owner_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	if todo.CreatedAt.IsZero() {
		todo.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	result, err := r.db.ExecContext(ctx, query,
		todo.Title, todo.Description, todo.Priority, todo.Complete, todo.OwnerID, todo.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	todo.ID = id
	return nil
}

// GetForOwner retrieves a todo by ID if it belongs to ownerID.
func (r *TodoRepository) GetForOwner(ctx context.Context, id, ownerID int64) (*model.Todo, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE id = ? AND owner_id = ?`, id, ownerID)
	return scanTodo(row)
}

// ListByOwner retrieves all todos belonging to ownerID, ordered by ID.
func (r *TodoRepository) ListByOwner(ctx context.Context, ownerID int64) ([]model.Todo, error) {
	return r.list(ctx, `SELECT `+todoColumns+` FROM todos WHERE owner_id = ? ORDER BY id ASC`, ownerID)
}

// ListAll retrieves every todo regardless of owner, ordered by ID.
func (r *TodoRepository) ListAll(ctx context.Context) ([]model.Todo, error) {
	return r.list(ctx, `SELECT `+todoColumns+` FROM todos ORDER BY id ASC`)
}

// UpdateForOwner replaces the mutable fields of a todo owned by todo.OwnerID.
func (r *TodoRepository) UpdateForOwner(ctx context.Context, todo *model.Todo) error {
	query := `UPDATE todos SET title = ?, description = ?, priority = ?, complete = ?
		WHERE id = ? AND owner_id = ?`

	result, err := r.db.ExecContext(ctx, query,
		todo.Title, todo.Description, todo.Priority, todo.Complete, todo.ID, todo.OwnerID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected > 0 {
		return nil
	}

	// MySQL reports zero affected rows when the values are unchanged, so
	// confirm the row really is missing before reporting it.
	var exists int
	err = r.db.QueryRowContext(ctx,
		`SELECT 1 FROM todos WHERE id = ? AND owner_id = ?`, todo.ID, todo.OwnerID,
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTodoNotFound
	}
	return err
}

// DeleteForOwner removes a todo if it belongs to ownerID.
func (r *TodoRepository) DeleteForOwner(ctx context.Context, id, ownerID int64) error {
	return r.delete(ctx, `DELETE FROM todos WHERE id = ? AND owner_id = ?`, id, ownerID)
}

// Delete removes a todo regardless of owner.
func (r *TodoRepository) Delete(ctx context.Context, id int64) error {
	return r.delete(ctx, `DELETE FROM todos WHERE id = ?`, id)
}

func (r *TodoRepository) delete(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrTodoNotFound
	}
	return nil
}

func (r *TodoRepository) list(ctx context.Context, query string, args ...any) ([]model.Todo, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	todos := []model.Todo{}
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, *todo)
	}

	return todos, rows.Err()
}

func scanTodo(row rowScanner) (*model.Todo, error) {
	todo := &model.Todo{}
	err := row.Scan(
		&todo.ID, &todo.Title, &todo.Description, &todo.Priority,
		&todo.Complete, &todo.OwnerID, &todo.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTodoNotFound
		}
		return nil, err
	}
	return todo, nil
}
