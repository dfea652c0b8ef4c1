package timetable

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/taskmanager/internal/models"
	"github.com/ayush/taskmanager/internal/web"
)

// Handler holds timetable HTTP handlers.
type Handler struct {
	svc *Service
	rn  *web.Renderer
}

func NewHandler(svc *Service, rn *web.Renderer) *Handler {
	return &Handler{svc: svc, rn: rn}
}

// Routes mounts the handlers under /timetable.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.Week)
	r.Get("/add", h.AddForm)
	r.Post("/add", h.Create)
	r.Get("/edit/{id}", h.EditForm)
	r.Put("/edit/{id}", h.Update)
	r.Delete("/delete/{id}", h.Delete)
	r.Post("/delete/{id}", h.Delete)
}

func classInput(r *http.Request) models.ClassInput {
	return models.ClassInput{
		Subject:   r.PostFormValue("subject"),
		Day:       r.PostFormValue("day"),
		StartTime: r.PostFormValue("startTime"),
		EndTime:   r.PostFormValue("endTime"),
		Alarm:     r.PostFormValue("alarm"),
	}
}

func (h *Handler) Week(w http.ResponseWriter, r *http.Request) {
	week, err := h.svc.Week(r.Context())
	if err != nil {
		h.rn.Fail(w, r, err, "/")
		return
	}
	h.rn.Render(w, r, http.StatusOK, "timetable.html", week)
}

func (h *Handler) AddForm(w http.ResponseWriter, r *http.Request) {
	h.rn.Render(w, r, http.StatusOK, "class_form.html", &models.Class{Day: models.Weekdays[0]})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	in := classInput(r)
	if err := web.Validate(in); err != nil {
		h.rn.Fail(w, r, err, "/timetable/add")
		return
	}
	if _, err := h.svc.Create(r.Context(), in); err != nil {
		h.rn.Fail(w, r, err, "/timetable/add")
		return
	}
	h.rn.Redirect(w, r, "/timetable", "Class added.")
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.rn.Fail(w, r, err, "/timetable")
		return
	}
	h.rn.Render(w, r, http.StatusOK, "class_form.html", c)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	back := "/timetable/edit/" + id

	if _, err := h.svc.Get(r.Context(), id); err != nil {
		h.rn.Fail(w, r, err, "/timetable")
		return
	}
	in := classInput(r)
	if err := web.Validate(in); err != nil {
		h.rn.Fail(w, r, err, back)
		return
	}
	if _, err := h.svc.Update(r.Context(), id, in); err != nil {
		h.rn.Fail(w, r, err, back)
		return
	}
	h.rn.Redirect(w, r, "/timetable", "Class updated.")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.rn.Fail(w, r, err, "/timetable")
		return
	}
	h.rn.Redirect(w, r, "/timetable", "Class deleted.")
}
