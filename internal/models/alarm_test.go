package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAlarm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *time.Time
	}{
		{name: "empty", input: "", want: nil},
		{name: "blank", input: "   ", want: nil},
		{name: "garbage", input: "tomorrow-ish", want: nil},
		{name: "datetime-local", input: "2024-03-05T07:30", want: ptr(time.Date(2024, 3, 5, 7, 30, 0, 0, time.Local))},
		{name: "with seconds", input: "2024-03-05T07:30:15", want: ptr(time.Date(2024, 3, 5, 7, 30, 15, 0, time.Local))},
		{name: "rfc3339", input: "2024-03-05T07:30:00Z", want: ptr(time.Date(2024, 3, 5, 7, 30, 0, 0, time.UTC))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAlarm(tt.input)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %v, want %v", got, tt.want)
		})
	}
}

func TestNormalizeDay(t *testing.T) {
	day, ok := NormalizeDay(" monday ")
	assert.True(t, ok)
	assert.Equal(t, "Monday", day)

	_, ok = NormalizeDay("Funday")
	assert.False(t, ok)

	assert.Equal(t, 0, DayIndex("Monday"))
	assert.Equal(t, 6, DayIndex("Sunday"))
	assert.Equal(t, len(Weekdays), DayIndex("Funday"))
}

func TestTaskStatus(t *testing.T) {
	assert.Equal(t, "Task is done", (&Task{Completed: true}).Status())
	assert.Equal(t, "Task is undone", (&Task{}).Status())
}

func ptr(t time.Time) *time.Time { return &t }
