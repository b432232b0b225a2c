package handler

import (
	"net/http"

	"github.com/todoapp/todoapp-go/internal/middleware"
	"github.com/todoapp/todoapp-go/internal/model"
	"github.com/todoapp/todoapp-go/internal/service"
)

// TodoHandler handles HTTP requests for the caller's todos and the admin views.
type TodoHandler struct {
	service *service.TodoService
}

// NewTodoHandler creates a new TodoHandler.
func NewTodoHandler(svc *service.TodoService) *TodoHandler {
	return &TodoHandler{service: svc}
}

// HandleListTodos handles GET /api/v1/todos requests.
func (h *TodoHandler) HandleListTodos(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	todos, err := h.service.ListTodos(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, todos)
}

// HandleGetTodo handles GET /api/v1/todos/{todo_id} requests.
func (h *TodoHandler) HandleGetTodo(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	todoID, ok := pathID(w, r, "todo_id")
	if !ok {
		return
	}

	todo, err := h.service.GetTodo(r.Context(), identity.UserID, todoID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, todo)
}

// HandleCreateTodo handles POST /api/v1/todos requests.
func (h *TodoHandler) HandleCreateTodo(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	var req model.TodoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	todo, err := h.service.CreateTodo(r.Context(), identity.UserID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, todo)
}

// HandleUpdateTodo handles PUT /api/v1/todos/{todo_id} requests.
func (h *TodoHandler) HandleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	todoID, ok := pathID(w, r, "todo_id")
	if !ok {
		return
	}

	var req model.TodoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	todo, err := h.service.UpdateTodo(r.Context(), identity.UserID, todoID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, todo)
}

// HandleDeleteTodo handles DELETE /api/v1/todos/{todo_id} requests.
func (h *TodoHandler) HandleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	todoID, ok := pathID(w, r, "todo_id")
	if !ok {
		return
	}

	if err := h.service.DeleteTodo(r.Context(), identity.UserID, todoID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleListAllTodos handles GET /api/v1/admin/todos requests.
func (h *TodoHandler) HandleListAllTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := h.service.ListAllTodos(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, todos)
}

// HandleAdminDeleteTodo handles DELETE /api/v1/admin/todos/{todo_id} requests.
func (h *TodoHandler) HandleAdminDeleteTodo(w http.ResponseWriter, r *http.Request) {
	todoID, ok := pathID(w, r, "todo_id")
	if !ok {
		return
	}

	if err := h.service.DeleteAnyTodo(r.Context(), todoID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
