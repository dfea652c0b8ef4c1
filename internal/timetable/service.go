package timetable

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/ayush/taskmanager/internal/apperr"
	"github.com/ayush/taskmanager/internal/models"
)

const clockLayout = "15:04"

// Store defines the interface for class persistence.
type Store interface {
	Insert(ctx context.Context, c *models.Class) error
	List(ctx context.Context) ([]models.Class, error)
	GetByID(ctx context.Context, id string) (*models.Class, error)
	Update(ctx context.Context, c *models.Class) error
	Delete(ctx context.Context, id string) error
}

// DaySchedule is one weekday column of the timetable.
type DaySchedule struct {
	Day     string
	Classes []models.Class
}

// Service implements timetable CRUD. Classes are global.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// List returns every class in insertion order.
func (s *Service) List(ctx context.Context) ([]models.Class, error) {
	return s.store.List(ctx)
}

// Week groups the classes by weekday, Monday first, each day sorted by start time.
// Days without classes are included with an empty list.
func (s *Service) Week(ctx context.Context) ([]DaySchedule, error) {
	classes, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(classes, func(i, j int) bool {
		di, dj := models.DayIndex(classes[i].Day), models.DayIndex(classes[j].Day)
		if di != dj {
			return di < dj
		}
		return classes[i].StartTime < classes[j].StartTime
	})

	week := make([]DaySchedule, len(models.Weekdays))
	for i, d := range models.Weekdays {
		week[i].Day = d
	}
	for _, c := range classes {
		if i := models.DayIndex(c.Day); i < len(week) {
			week[i].Classes = append(week[i].Classes, c)
		}
	}
	return week, nil
}

func (s *Service) Create(ctx context.Context, in models.ClassInput) (*models.Class, error) {
	c := &models.Class{}
	if err := apply(c, in); err != nil {
		return nil, err
	}
	if err := s.store.Insert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Class, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id string, in models.ClassInput) (*models.Class, error) {
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(c, in); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

func apply(c *models.Class, in models.ClassInput) error {
	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		return apperr.NewValidationError("subject", "this field cannot be blank")
	}
	day, ok := models.NormalizeDay(in.Day)
	if !ok {
		return apperr.NewValidationError("day", "must be a day of the week")
	}
	start, err := time.Parse(clockLayout, strings.TrimSpace(in.StartTime))
	if err != nil {
		return apperr.NewValidationError("startTime", "must be a time like 09:30")
	}
	end, err := time.Parse(clockLayout, strings.TrimSpace(in.EndTime))
	if err != nil {
		return apperr.NewValidationError("endTime", "must be a time like 10:30")
	}
	if !end.After(start) {
		return apperr.NewValidationError("endTime", "must be after the start time")
	}

	c.Subject = subject
	c.Day = day
	c.StartTime = start.Format(clockLayout)
	c.EndTime = end.Format(clockLayout)
	c.Alarm = models.ParseAlarm(in.Alarm)
	return nil
}
