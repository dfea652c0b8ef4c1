package web

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/taskmanager/internal/apperr"
	"github.com/ayush/taskmanager/internal/models"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		field   string
		message string
	}{
		{name: "valid task", in: models.TaskInput{Text: "milk"}},
		{name: "blank task", in: models.TaskInput{Text: "  "}, field: "task", message: "this field cannot be blank"},
		{name: "long task", in: models.TaskInput{Text: strings.Repeat("a", 501)}, field: "task", message: "must be at most 500 characters"},
		{name: "valid class", in: models.ClassInput{Subject: "Art", Day: "friday", StartTime: "09:00", EndTime: "10:00"}},
		{name: "bad day", in: models.ClassInput{Subject: "Art", Day: "someday", StartTime: "09:00", EndTime: "10:00"}, field: "day", message: "must be a day of the week"},
		{name: "bad clock", in: models.ClassInput{Subject: "Art", Day: "Friday", StartTime: "9am", EndTime: "10:00"}, field: "startTime", message: "must be a time like 09:30"},
		{name: "missing password", in: models.LoginRequest{Username: "bob"}, field: "password", message: "this field cannot be blank"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.in)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var ve *apperr.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, tt.message, ve.Message)
		})
	}
}
