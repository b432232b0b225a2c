package server

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/todoapp/todoapp-go/internal/crypto"
	"github.com/todoapp/todoapp-go/internal/handler"
	"github.com/todoapp/todoapp-go/internal/middleware"
	"github.com/todoapp/todoapp-go/internal/repository"
	"github.com/todoapp/todoapp-go/internal/service"
)

// NewRouter wires repositories, services and handlers onto a chi router.
func NewRouter(db *sql.DB, tokens *crypto.TokenService) http.Handler {
	userRepo := repository.NewUserRepository(db)
	todoRepo := repository.NewTodoRepository(db)

	authHandler := handler.NewAuthHandler(service.NewAuthService(userRepo, tokens))
	userHandler := handler.NewUserHandler(service.NewUserService(userRepo))
	todoHandler := handler.NewTodoHandler(service.NewTodoService(todoRepo))

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/healthy", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/token", authHandler.HandleToken)

		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(tokens))

			r.Get("/users/me", userHandler.HandleMe)
			r.Patch("/users/me", userHandler.HandleUpdateMe)
			r.Put("/users/me/password", userHandler.HandleChangePassword)
			r.Patch("/users/{user_id}", userHandler.HandleUpdateUser)

			r.Get("/todos", todoHandler.HandleListTodos)
			r.Post("/todos", todoHandler.HandleCreateTodo)
			r.Get("/todos/{todo_id}", todoHandler.HandleGetTodo)
			r.Put("/todos/{todo_id}", todoHandler.HandleUpdateTodo)
			r.Delete("/todos/{todo_id}", todoHandler.HandleDeleteTodo)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/admin/todos", todoHandler.HandleListAllTodos)
				r.Delete("/admin/todos/{todo_id}", todoHandler.HandleAdminDeleteTodo)
			})
		})
	})

	return r
}
