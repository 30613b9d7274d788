package handlers

import "github.com/go-chi/chi/v5"

func (h *TaskHandler) Register(r chi.Router) {
	r.Route("/tasks", func(r chi.Router) {
		r.MethodNotAllowed(h.MethodNotAllowed)

		r.Get("/", h.ListTasks)
		r.Post("/", h.CreateTask)
		r.Patch("/", h.UpdateTask)  // PATCH /tasks?id=
		r.Delete("/", h.DeleteTask) // DELETE /tasks?id=

		r.Get("/all", h.FetchAll)
		r.Get("/page", h.ListPage)
		r.Post("/move", h.MoveTask)

		r.Route("/{id}", func(r chi.Router) {
			r.MethodNotAllowed(h.ItemMethodNotAllowed)
			r.Get("/", h.GetTask)
			r.Patch("/", h.UpdateTask)
			r.Delete("/", h.DeleteTask)
		})
	})

	r.Get("/columns", h.Columns)
	r.Get("/health", h.HealthCheck)
}
