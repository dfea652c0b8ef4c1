package tasks

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/ayush/taskmanager/internal/apperr"
	"github.com/ayush/taskmanager/internal/models"
)

// Store defines the interface for task persistence. Owner "" selects the
// tasks that have no owner.
type Store interface {
	Insert(ctx context.Context, t *models.Task) error
	List(ctx context.Context, owner string) ([]models.Task, error)
	Search(ctx context.Context, owner, query string) ([]models.Task, error)
	GetByID(ctx context.Context, id string) (*models.Task, error)
	Update(ctx context.Context, t *models.Task) error
	Delete(ctx context.Context, id string) error
}

var positionQuery = regexp.MustCompile(`^\d+$`)

// Service implements task CRUD scoped to an owner. Anonymous callers use
// owner "" and only see ownerless tasks.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// List returns the owner's tasks in insertion order.
func (s *Service) List(ctx context.Context, owner string) ([]models.Task, error) {
	return s.store.List(ctx, owner)
}

// Search treats an all-digit query as a 1-based position in the owner's
// listing and anything else as a case-insensitive substring of the text.
func (s *Service) Search(ctx context.Context, owner, query string) ([]models.Task, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.store.List(ctx, owner)
	}
	if !positionQuery.MatchString(query) {
		return s.store.Search(ctx, owner, query)
	}

	pos, err := strconv.Atoi(query)
	if err != nil {
		// too many digits to be a position
		return nil, nil
	}
	all, err := s.store.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	if pos < 1 || pos > len(all) {
		return nil, nil
	}
	return all[pos-1 : pos], nil
}

func (s *Service) Create(ctx context.Context, owner string, in models.TaskInput) (*models.Task, error) {
	t := &models.Task{Owner: owner}
	if err := apply(t, in); err != nil {
		return nil, err
	}
	if err := s.store.Insert(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Get returns the task if it exists and belongs to owner.
func (s *Service) Get(ctx context.Context, owner, id string) (*models.Task, error) {
	t, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Owner != owner {
		return nil, apperr.ErrNotFound
	}
	return t, nil
}

func (s *Service) Update(ctx context.Context, owner, id string, in models.TaskInput) (*models.Task, error) {
	t, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := apply(t, in); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Toggle flips the completion flag.
func (s *Service) Toggle(ctx context.Context, owner, id string) (*models.Task, error) {
	t, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	t.Completed = !t.Completed
	if t.Completed {
		t.Alarm = nil
	}
	if err := s.store.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) Delete(ctx context.Context, owner, id string) error {
	if _, err := s.Get(ctx, owner, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

// apply copies validated input onto t. A completed task never keeps an alarm.
func apply(t *models.Task, in models.TaskInput) error {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return apperr.NewValidationError("task", "this field cannot be blank")
	}
	t.Text = text
	t.Completed = in.Completed
	t.Alarm = models.ParseAlarm(in.Alarm)
	if t.Completed {
		t.Alarm = nil
	}
	return nil
}
