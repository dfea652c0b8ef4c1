package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Weekdays lists the accepted values of Class.Day in timetable order.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Class is one timetable slot stored in the classes collection.
type Class struct {
	ID        primitive.ObjectID `json:"id"         bson:"_id,omitempty"`
	Subject   string             `json:"subject"    bson:"subject"`
	Day       string             `json:"day"        bson:"day"`
	StartTime string             `json:"start_time" bson:"start_time"`
	EndTime   string             `json:"end_time"   bson:"end_time"`
	Alarm     *time.Time         `json:"alarm"      bson:"alarm"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// ClassInput carries the submitted fields of the timetable forms.
type ClassInput struct {
	Subject   string `form:"subject"   validate:"notblank,max=200"`
	Day       string `form:"day"       validate:"notblank,weekday"`
	StartTime string `form:"startTime" validate:"notblank,clock"`
	EndTime   string `form:"endTime"   validate:"notblank,clock"`
	Alarm     string `form:"alarm"`
}

// NormalizeDay maps a day name in any case to its entry in Weekdays.
func NormalizeDay(day string) (string, bool) {
	day = strings.TrimSpace(day)
	for _, d := range Weekdays {
		if strings.EqualFold(d, day) {
			return d, true
		}
	}
	return "", false
}

// DayIndex returns the position of day in Weekdays, or len(Weekdays) when unknown.
func DayIndex(day string) int {
	for i, d := range Weekdays {
		if d == day {
			return i
		}
	}
	return len(Weekdays)
}
