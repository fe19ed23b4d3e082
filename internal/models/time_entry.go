// Package models provides data model definitions for FieldTime.
package models

import (
	"math"
	"time"
)

// DateFormat is the calendar-date layout used across the local store
// and the server contract.
const DateFormat = "2006-01-02"

// TimeEntry represents one logged work session for a field worker.
// TimeStarted and TimeEnded are unix milliseconds; Date is the calendar
// day in DateFormat. Duration is never stored, it is always derived from
// the two timestamps.
type TimeEntry struct {
	ID           int64    `db:"id" json:"id"`
	UserID       string   `db:"user_id" json:"user_id"`
	Date         string   `db:"date" json:"date"`
	TimeStarted  int64    `db:"time_started" json:"time_started"`
	TimeEnded    int64    `db:"time_ended" json:"time_ended"`
	Studies      []string `db:"studies" json:"studies"`
	Participated bool     `db:"participated" json:"participated"`
	Comments     string   `db:"comments" json:"comments,omitempty"`
	Synced       bool     `db:"synced" json:"synced"`
	CreatedAt    int64    `db:"created_at" json:"created_at"`
	UpdatedAt    int64    `db:"updated_at" json:"updated_at"`
}

// TableName returns the table name for TimeEntry.
func (TimeEntry) TableName() string {
	return "time_entries"
}

// Duration returns the session length in hours, rounded to one decimal.
func (e *TimeEntry) Duration() float64 {
	return DurationHours(e.TimeStarted, e.TimeEnded)
}

// DurationHours converts a start/end pair of unix-millisecond timestamps
// to hours with one decimal of precision.
func DurationHours(startedMs, endedMs int64) float64 {
	hours := float64(endedMs-startedMs) / 3600000.0
	return math.Round(hours*10) / 10
}

// StartedTime returns TimeStarted as time.Time.
func (e *TimeEntry) StartedTime() time.Time {
	return time.UnixMilli(e.TimeStarted)
}

// EndedTime returns TimeEnded as time.Time.
func (e *TimeEntry) EndedTime() time.Time {
	return time.UnixMilli(e.TimeEnded)
}

// ValidInterval reports whether the entry's end timestamp is strictly
// after its start timestamp.
func (e *TimeEntry) ValidInterval() bool {
	return e.TimeEnded > e.TimeStarted
}
