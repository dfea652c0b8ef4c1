package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayush/taskmanager/internal/apperr"
	"github.com/ayush/taskmanager/internal/models"
)

// The in-memory stores back the server when no MONGO_URI is configured and
// stand in for MongoDB in tests. Data lives for the life of the process.

// MemoryTaskStore keeps tasks in insertion order.
type MemoryTaskStore struct {
	mu    sync.RWMutex
	tasks []models.Task
}

func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{}
}

func (s *MemoryTaskStore) Insert(_ context.Context, t *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	t.ID = primitive.NewObjectID()
	t.CreatedAt, t.UpdatedAt = now, now
	s.tasks = append(s.tasks, *t)
	return nil
}

func (s *MemoryTaskStore) List(_ context.Context, owner string) ([]models.Task, error) {
	return s.filter(func(t *models.Task) bool { return t.Owner == owner }), nil
}

func (s *MemoryTaskStore) Search(_ context.Context, owner, query string) ([]models.Task, error) {
	query = strings.ToLower(query)
	return s.filter(func(t *models.Task) bool {
		return t.Owner == owner && strings.Contains(strings.ToLower(t.Text), query)
	}), nil
}

func (s *MemoryTaskStore) filter(keep func(*models.Task) bool) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var res []models.Task
	for i := range s.tasks {
		if keep(&s.tasks[i]) {
			res = append(res, s.tasks[i])
		}
	}
	return res
}

func (s *MemoryTaskStore) GetByID(_ context.Context, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.index(id)
	if i < 0 {
		return nil, apperr.ErrNotFound
	}
	t := s.tasks[i]
	return &t, nil
}

func (s *MemoryTaskStore) Update(_ context.Context, t *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(t.ID.Hex())
	if i < 0 {
		return apperr.ErrNotFound
	}
	t.UpdatedAt = time.Now()
	s.tasks[i].Text = t.Text
	s.tasks[i].Completed = t.Completed
	s.tasks[i].Alarm = t.Alarm
	s.tasks[i].UpdatedAt = t.UpdatedAt
	return nil
}

func (s *MemoryTaskStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return apperr.ErrNotFound
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	return nil
}

func (s *MemoryTaskStore) index(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID.Hex() == id {
			return i
		}
	}
	return -1
}

// MemoryClassStore keeps classes in insertion order.
type MemoryClassStore struct {
	mu      sync.RWMutex
	classes []models.Class
}

func NewMemoryClassStore() *MemoryClassStore {
	return &MemoryClassStore{}
}

func (s *MemoryClassStore) Insert(_ context.Context, c *models.Class) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	c.ID = primitive.NewObjectID()
	c.CreatedAt, c.UpdatedAt = now, now
	s.classes = append(s.classes, *c)
	return nil
}

func (s *MemoryClassStore) List(_ context.Context) ([]models.Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]models.Class(nil), s.classes...), nil
}

func (s *MemoryClassStore) GetByID(_ context.Context, id string) (*models.Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.index(id)
	if i < 0 {
		return nil, apperr.ErrNotFound
	}
	c := s.classes[i]
	return &c, nil
}

func (s *MemoryClassStore) Update(_ context.Context, c *models.Class) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(c.ID.Hex())
	if i < 0 {
		return apperr.ErrNotFound
	}
	c.UpdatedAt = time.Now()
	c.CreatedAt = s.classes[i].CreatedAt
	s.classes[i] = *c
	return nil
}

func (s *MemoryClassStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return apperr.ErrNotFound
	}
	s.classes = append(s.classes[:i], s.classes[i+1:]...)
	return nil
}

func (s *MemoryClassStore) index(id string) int {
	for i := range s.classes {
		if s.classes[i].ID.Hex() == id {
			return i
		}
	}
	return -1
}

// MemoryUserStore keeps accounts keyed by id.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]*models.User)}
}

func (s *MemoryUserStore) CreateUser(_ context.Context, username, hashedPassword string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			return nil, apperr.ErrConflict
		}
	}
	u := &models.User{
		ID:           primitive.NewObjectID().Hex(),
		Username:     username,
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now(),
	}
	s.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (s *MemoryUserStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (s *MemoryUserStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryUserStore) UpdateProfile(_ context.Context, id string, p models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return apperr.ErrNotFound
	}
	u.Name, u.Bio = p.Name, p.Bio
	return nil
}

func (s *MemoryUserStore) SetProfilePicture(_ context.Context, id, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return apperr.ErrNotFound
	}
	u.ProfilePicture = key
	return nil
}

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryFileStore is an object store held in a map.
type MemoryFileStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

func NewMemoryFileStore() *MemoryFileStore {
	return &MemoryFileStore{objects: make(map[string]memoryObject)}
}

func (s *MemoryFileStore) Upload(_ context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects[key] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

func (s *MemoryFileStore) Download(_ context.Context, key string) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, "", apperr.ErrNotFound
	}
	return obj.data, obj.contentType, nil
}

func (s *MemoryFileStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, key)
	return nil
}
