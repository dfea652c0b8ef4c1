package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/taskmanager/internal/apperr"
	"github.com/ayush/taskmanager/internal/models"
)

// maxPictureSize caps profile picture uploads.
const maxPictureSize = 2 << 20

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, username, hashedPassword string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, p models.Profile) error
	SetProfilePicture(ctx context.Context, id, key string) error
}

// FileStore defines the interface for profile picture storage.
type FileStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, string, error)
	Remove(ctx context.Context, key string) error
}

// ErrUploadsDisabled is returned when no object store is configured.
var ErrUploadsDisabled = errors.New("profile picture uploads are disabled")

const maxPasswordBytes = 72

// Service registers and authenticates users and manages their sessions.
// A request is Anonymous until Login succeeds and again after Logout or
// session expiry.
type Service struct {
	users    UserStore
	sessions SessionStore
	files    FileStore
	signer   *tokenSigner
	log      *zap.Logger
	cost     int
	// compared against when the username is unknown
	dummyHash []byte
}

type Option func(*Service)

// WithBcryptCost overrides bcrypt.DefaultCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// WithFileStore enables profile picture uploads.
func WithFileStore(files FileStore) Option {
	return func(s *Service) { s.files = files }
}

func NewService(users UserStore, sessions SessionStore, secret string, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		users:    users,
		sessions: sessions,
		signer:   newTokenSigner(secret, SessionTTL),
		log:      log,
		cost:     bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy password"), s.cost)
	return s
}

// Register creates a user with a hashed password.
func (s *Service) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperr.NewValidationError("username", "this field cannot be blank")
	}
	if password == "" {
		return nil, apperr.NewValidationError("password", "this field is required")
	}
	// bcrypt only looks at the first 72 bytes and refuses longer input.
	if len(password) > maxPasswordBytes {
		return nil, apperr.NewValidationError("password", "must be at most 72 bytes")
	}

	_, err := s.users.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		return nil, apperr.ErrConflict
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, username, string(hashed))
	if err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Authenticate checks a username/password pair. Unknown users and wrong
// passwords both yield apperr.ErrAuthFailure.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, apperr.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		s.log.Warn("login failed", zap.String("username", username))
		return nil, apperr.ErrAuthFailure
	}
	if err != nil {
		return nil, err
	}
	if !user.VerifyPassword(password) {
		s.log.Warn("login failed", zap.String("username", username))
		return nil, apperr.ErrAuthFailure
	}
	return user, nil
}

// Login opens a session for user and returns the signed cookie token.
func (s *Service) Login(ctx context.Context, user *models.User) (string, error) {
	sid, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return "", apperr.Store("create session", err)
	}
	token, err := s.signer.sign(sid, time.Now())
	if err != nil {
		return "", err
	}
	s.log.Info("user logged in", zap.String("user_id", user.ID))
	return token, nil
}

// Resolve returns the user id of the session behind token, or "" when the
// token is invalid or the session is gone.
func (s *Service) Resolve(ctx context.Context, token string) (string, error) {
	sid, err := s.signer.parse(token)
	if err != nil {
		return "", nil
	}
	userID, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return "", apperr.Store("get session", err)
	}
	return userID, nil
}

// Logout ends the session behind token. Invalid tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	sid, err := s.signer.parse(token)
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, sid); err != nil {
		return apperr.Store("delete session", err)
	}
	return nil
}

func (s *Service) Profile(ctx context.Context, userID string) (*models.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, p models.Profile) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Bio = strings.TrimSpace(p.Bio)
	return s.users.UpdateProfile(ctx, userID, p)
}

// UploadsEnabled reports whether a picture store is configured.
func (s *Service) UploadsEnabled() bool { return s.files != nil }

// SetProfilePicture stores an image and points the user's profile at it.
func (s *Service) SetProfilePicture(ctx context.Context, userID string, data []byte) error {
	if s.files == nil {
		return ErrUploadsDisabled
	}
	if len(data) == 0 {
		return apperr.NewValidationError("picture", "no file uploaded")
	}
	if len(data) > maxPictureSize {
		return apperr.NewValidationError("picture", "file is larger than 2MB")
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return apperr.NewValidationError("picture", "file is not an image")
	}

	key := "avatars/" + userID
	if err := s.files.Upload(ctx, key, data, contentType); err != nil {
		return apperr.Store("upload picture", err)
	}
	return s.users.SetProfilePicture(ctx, userID, key)
}

// ProfilePicture returns the user's picture bytes and content type.
func (s *Service) ProfilePicture(ctx context.Context, userID string) ([]byte, string, error) {
	if s.files == nil {
		return nil, "", apperr.ErrNotFound
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if user.ProfilePicture == "" {
		return nil, "", apperr.ErrNotFound
	}
	data, contentType, err := s.files.Download(ctx, user.ProfilePicture)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, "", err
	}
	if err != nil {
		return nil, "", apperr.Store("download picture", err)
	}
	return data, contentType, nil
}

// RemoveProfilePicture deletes the stored picture and clears the reference.
func (s *Service) RemoveProfilePicture(ctx context.Context, userID string) error {
	if s.files == nil {
		return ErrUploadsDisabled
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.ProfilePicture == "" {
		return nil
	}
	if err := s.files.Remove(ctx, user.ProfilePicture); err != nil {
		return apperr.Store("remove picture", err)
	}
	return s.users.SetProfilePicture(ctx, userID, "")
}
