package tasks

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/taskmanager/internal/models"
	"github.com/ayush/taskmanager/internal/web"
)

// Handler holds task HTTP handlers. The caller's user id (or "" when
// anonymous) scopes every operation.
type Handler struct {
	svc *Service
	rn  *web.Renderer
}

func NewHandler(svc *Service, rn *web.Renderer) *Handler {
	return &Handler{svc: svc, rn: rn}
}

// Routes mounts the handlers under /tasks.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/search", h.Search)
	r.Get("/add", h.AddForm)
	r.Post("/add", h.Create)
	r.Get("/single-task/{id}", h.Show)
	r.Get("/edit/{id}", h.EditForm)
	r.Put("/edit/{id}", h.Update)
	r.Post("/toggle/{id}", h.Toggle)
	r.Delete("/delete/{id}", h.Delete)
	r.Post("/delete/{id}", h.Delete)
}

type listPage struct {
	Tasks     []models.Task
	Query     string
	Searching bool
}

func taskInput(r *http.Request) models.TaskInput {
	return models.TaskInput{
		Text:      r.PostFormValue("task"),
		Completed: r.PostFormValue("check") == "on",
		Alarm:     r.PostFormValue("alarm"),
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.svc.List(r.Context(), web.UserID(r.Context()))
	if err != nil {
		h.rn.Fail(w, r, err, "/tasks")
		return
	}
	h.rn.Render(w, r, http.StatusOK, "tasks_list.html", listPage{Tasks: tasks})
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	tasks, err := h.svc.Search(r.Context(), web.UserID(r.Context()), query)
	if err != nil {
		h.rn.Fail(w, r, err, "/tasks")
		return
	}
	h.rn.Render(w, r, http.StatusOK, "tasks_list.html", listPage{Tasks: tasks, Query: query, Searching: true})
}

func (h *Handler) AddForm(w http.ResponseWriter, r *http.Request) {
	h.rn.Render(w, r, http.StatusOK, "task_add.html", nil)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	in := taskInput(r)
	if err := web.Validate(in); err != nil {
		h.rn.Fail(w, r, err, "/tasks/add")
		return
	}
	if _, err := h.svc.Create(r.Context(), web.UserID(r.Context()), in); err != nil {
		h.rn.Fail(w, r, err, "/tasks/add")
		return
	}
	h.rn.Redirect(w, r, "/tasks", "Task added.")
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	task, err := h.svc.Get(r.Context(), web.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.rn.Fail(w, r, err, "/tasks")
		return
	}
	h.rn.Render(w, r, http.StatusOK, "task_single.html", task)
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	task, err := h.svc.Get(r.Context(), web.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.rn.Fail(w, r, err, "/tasks")
		return
	}
	h.rn.Render(w, r, http.StatusOK, "task_edit.html", task)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	back := "/tasks/edit/" + id

	if _, err := h.svc.Get(r.Context(), web.UserID(r.Context()), id); err != nil {
		h.rn.Fail(w, r, err, "/tasks")
		return
	}
	in := taskInput(r)
	if err := web.Validate(in); err != nil {
		h.rn.Fail(w, r, err, back)
		return
	}
	if _, err := h.svc.Update(r.Context(), web.UserID(r.Context()), id, in); err != nil {
		h.rn.Fail(w, r, err, back)
		return
	}
	h.rn.Redirect(w, r, "/tasks", "Task updated.")
}

func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.Toggle(r.Context(), web.UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.rn.Fail(w, r, err, "/tasks")
		return
	}
	h.rn.Redirect(w, r, "/tasks", "")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), web.UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.rn.Fail(w, r, err, "/tasks")
		return
	}
	h.rn.Redirect(w, r, "/tasks", "Task deleted.")
}
