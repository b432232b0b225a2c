package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/lo"

	"github.com/todoapp/todoapp-go/internal/model"
	"github.com/todoapp/todoapp-go/internal/repository"
)

// ErrTodoNotFound covers both missing todos and todos owned by someone else.
var ErrTodoNotFound = errors.New("todo not found")

// TodoService handles todo business logic. Ownership always comes from the
// authenticated caller, never from the request body.
type TodoService struct {
	repo *repository.TodoRepository
}

// NewTodoService creates a new TodoService.
func NewTodoService(repo *repository.TodoRepository) *TodoService {
	return &TodoService{repo: repo}
}

// ListTodos returns the owner's todos ordered by ID.
func (s *TodoService) ListTodos(ctx context.Context, ownerID int64) ([]model.TodoResponse, error) {
	todos, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return todosToResponse(todos), nil
}

// ListAllTodos returns every todo ordered by ID. Callers must restrict this to admins.
func (s *TodoService) ListAllTodos(ctx context.Context) ([]model.TodoResponse, error) {
	todos, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return todosToResponse(todos), nil
}

// GetTodo returns a single todo owned by ownerID.
func (s *TodoService) GetTodo(ctx context.Context, ownerID, todoID int64) (model.TodoResponse, error) {
	todo, err := s.repo.GetForOwner(ctx, todoID, ownerID)
	if err != nil {
		return model.TodoResponse{}, translateTodoError(err)
	}
	return todoToResponse(*todo), nil
}

// CreateTodo validates req and stores a new todo owned by ownerID.
func (s *TodoService) CreateTodo(ctx context.Context, ownerID int64, req model.TodoRequest) (model.TodoResponse, error) {
	if err := validateTodo(req); err != nil {
		return model.TodoResponse{}, err
	}

	todo := model.Todo{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Complete:    req.Complete,
		OwnerID:     ownerID,
	}
	if err := s.repo.Create(ctx, &todo); err != nil {
		return model.TodoResponse{}, err
	}

	return todoToResponse(todo), nil
}

// UpdateTodo replaces every mutable field of a todo owned by ownerID.
func (s *TodoService) UpdateTodo(ctx context.Context, ownerID, todoID int64, req model.TodoRequest) (model.TodoResponse, error) {
	if err := validateTodo(req); err != nil {
		return model.TodoResponse{}, err
	}

	todo := model.Todo{
		ID:          todoID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Complete:    req.Complete,
		OwnerID:     ownerID,
	}
	if err := s.repo.UpdateForOwner(ctx, &todo); err != nil {
		return model.TodoResponse{}, translateTodoError(err)
	}

	return todoToResponse(todo), nil
}

// DeleteTodo removes a todo owned by ownerID.
func (s *TodoService) DeleteTodo(ctx context.Context, ownerID, todoID int64) error {
	return translateTodoError(s.repo.DeleteForOwner(ctx, todoID, ownerID))
}

// DeleteAnyTodo removes a todo regardless of owner. Callers must restrict this to admins.
func (s *TodoService) DeleteAnyTodo(ctx context.Context, todoID int64) error {
	if err := s.repo.Delete(ctx, todoID); err != nil {
		return translateTodoError(err)
	}
	slog.Info("todo deleted by admin", "todo_id", todoID)
	return nil
}

func translateTodoError(err error) error {
	if errors.Is(err, repository.ErrTodoNotFound) {
		return ErrTodoNotFound
	}
	return err
}

func todoToResponse(t model.Todo) model.TodoResponse {
	return model.TodoResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Complete:    t.Complete,
		OwnerID:     t.OwnerID,
	}
}

// todosToResponse never returns nil so empty lists encode as [].
func todosToResponse(todos []model.Todo) []model.TodoResponse {
	if len(todos) == 0 {
		return []model.TodoResponse{}
	}
	return lo.Map(todos, func(t model.Todo, _ int) model.TodoResponse {
		return todoToResponse(t)
	})
}
