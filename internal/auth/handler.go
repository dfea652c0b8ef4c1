package auth

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/taskmanager/internal/models"
	"github.com/ayush/taskmanager/internal/web"
)

// Handler holds auth-related HTTP handlers.
type Handler struct {
	svc          *Service
	rn           *web.Renderer
	secureCookie bool
}

func NewHandler(svc *Service, rn *web.Renderer, secureCookie bool) *Handler {
	return &Handler{svc: svc, rn: rn, secureCookie: secureCookie}
}

// Routes mounts the public login, register and logout pages.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/login", h.LoginForm)
	r.Post("/login", h.Login)
	r.Get("/register", h.RegisterForm)
	r.Post("/register", h.Register)
	r.Get("/logout", h.Logout)
	r.Post("/logout", h.Logout)
}

// ProfileRoutes mounts the profile pages. They expect an authenticated request.
func (h *Handler) ProfileRoutes(r chi.Router) {
	r.Get("/", h.Profile)
	r.Post("/", h.UpdateProfile)
	r.Get("/picture", h.Picture)
}

func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.rn.Render(w, r, http.StatusOK, "login.html", nil)
}

func (h *Handler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.rn.Render(w, r, http.StatusOK, "register.html", nil)
}

// Register creates a new user and sends them to the login page.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	req := models.RegisterRequest{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	if err := web.Validate(req); err != nil {
		h.rn.Fail(w, r, err, "/register")
		return
	}

	if _, err := h.svc.Register(r.Context(), req.Username, req.Password); err != nil {
		h.rn.Fail(w, r, err, "/register")
		return
	}
	h.rn.Redirect(w, r, "/login", "Account created. Please log in.")
}

// Login authenticates a user and creates a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	req := models.LoginRequest{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	if err := web.Validate(req); err != nil {
		h.rn.Fail(w, r, err, "/login")
		return
	}

	user, err := h.svc.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.rn.Fail(w, r, err, "/login")
		return
	}
	token, err := h.svc.Login(r.Context(), user)
	if err != nil {
		h.rn.Fail(w, r, err, "/login")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionTTL / time.Second),
	})
	h.rn.Redirect(w, r, "/tasks", "Welcome back, "+user.Username+".")
}

// Logout destroys the current session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if err := h.svc.Logout(r.Context(), cookie.Value); err != nil {
			h.rn.Fail(w, r, err, "/tasks")
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		MaxAge:   -1,
	})
	h.rn.Redirect(w, r, "/login", "You have been logged out.")
}

type profilePage struct {
	User           *models.User
	UploadsEnabled bool
}

// Profile shows the current user's profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Profile(r.Context(), web.UserID(r.Context()))
	if err != nil {
		h.rn.Fail(w, r, err, "/tasks")
		return
	}
	h.rn.Render(w, r, http.StatusOK, "profile.html", profilePage{User: user, UploadsEnabled: h.svc.UploadsEnabled()})
}

// UpdateProfile saves name and bio, and the picture when one was uploaded.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := web.UserID(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, maxPictureSize+64<<10)
	if err := r.ParseMultipartForm(maxPictureSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.rn.Redirect(w, r, "/profile", "Upload is too large.")
		return
	}

	p := models.Profile{Name: r.FormValue("name"), Bio: r.FormValue("bio")}
	if err := web.Validate(p); err != nil {
		h.rn.Fail(w, r, err, "/profile")
		return
	}
	if err := h.svc.UpdateProfile(r.Context(), userID, p); err != nil {
		h.rn.Fail(w, r, err, "/profile")
		return
	}

	if r.FormValue("remove_picture") == "on" {
		if err := h.svc.RemoveProfilePicture(r.Context(), userID); err != nil && !errors.Is(err, ErrUploadsDisabled) {
			h.rn.Fail(w, r, err, "/profile")
			return
		}
		h.rn.Redirect(w, r, "/profile", "Profile saved.")
		return
	}

	file, _, err := r.FormFile("picture")
	if err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			h.rn.Fail(w, r, err, "/profile")
			return
		}
		err = h.svc.SetProfilePicture(r.Context(), userID, data)
		if errors.Is(err, ErrUploadsDisabled) {
			h.rn.Redirect(w, r, "/profile", "Profile saved. Picture uploads are disabled.")
			return
		}
		if err != nil {
			h.rn.Fail(w, r, err, "/profile")
			return
		}
	}
	h.rn.Redirect(w, r, "/profile", "Profile saved.")
}

// Picture streams the current user's profile picture.
func (h *Handler) Picture(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := h.svc.ProfilePicture(r.Context(), web.UserID(r.Context()))
	if err != nil {
		h.rn.Fail(w, r, err, "/profile")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=60")
	w.Write(data)
}
