package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/servertask/internal/api/middleware"
	"github.com/phrazzld/servertask/internal/api/shared"
)

// routeNotFound answers every unmatched path and every unsupported method on
// a known path.
func routeNotFound(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithError(w, r, http.StatusNotFound, "Route not found")
}

// RegisterRoutes mounts the task and attachment endpoints on r. Identity is
// resolved only for matched task routes.
func RegisterRoutes(
	r chi.Router,
	tasks *TaskHandler,
	attachments *AttachmentHandler,
	identity *middleware.IdentityMiddleware,
) {
	r.NotFound(routeNotFound)
	r.MethodNotAllowed(routeNotFound)

	r.Get("/health", Handle(func(*http.Request) (int, interface{}, error) {
		return http.StatusOK, HealthResponse{Status: "ok"}, nil
	}))

	r.Group(func(r chi.Router) {
		r.Use(identity.Resolve)

		r.Get("/tasks", Handle(tasks.ListTasks))
		r.Post("/tasks", Handle(tasks.CreateTask))

		// Keeps GET/PUT/DELETE /tasks/presign from being read as a task id.
		r.HandleFunc("/tasks/presign", routeNotFound)
		r.Post("/tasks/presign", Handle(attachments.Presign))

		r.Get("/tasks/{taskId}", Handle(tasks.GetTask))
		r.Put("/tasks/{taskId}", Handle(tasks.UpdateTask))
		r.Delete("/tasks/{taskId}", Handle(tasks.DeleteTask))

		r.Post("/tasks/{taskId}/process-image", Handle(attachments.ProcessImage))
	})
}
