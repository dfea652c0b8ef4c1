package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task is a single to-do item stored in the tasks collection.
type Task struct {
	ID        primitive.ObjectID `json:"id"                 bson:"_id,omitempty"`
	Text      string             `json:"text"               bson:"text"`
	Completed bool               `json:"completed"          bson:"completed"`
	Alarm     *time.Time         `json:"alarm"              bson:"alarm"`
	Owner     string             `json:"owner,omitempty"    bson:"owner,omitempty"`
	CreatedAt time.Time          `json:"created_at"         bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"         bson:"updated_at"`
}

// Status is the human readable completion state shown on the task page.
func (t *Task) Status() string {
	if t.Completed {
		return "Task is done"
	}
	return "Task is undone"
}

// TaskInput carries the submitted fields of the add and edit forms.
type TaskInput struct {
	Text      string `form:"task"  validate:"notblank,max=500"`
	Completed bool   `form:"check"`
	Alarm     string `form:"alarm"`
}
