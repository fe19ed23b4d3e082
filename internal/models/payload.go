package models

import (
	"errors"
	"time"
)

// CreateEntryPayload is the full snapshot carried by a create queue
// entry. It is validated once at the queue boundary; a payload that has
// passed Validate satisfies the server's shape contract.
type CreateEntryPayload struct {
	UserID       string   `json:"user_id"`
	Date         string   `json:"date"`
	TimeStarted  int64    `json:"time_started"`
	TimeEnded    int64    `json:"time_ended"`
	Duration     float64  `json:"duration"`
	Studies      []string `json:"studies"`
	Participated bool     `json:"participated"`
	Comments     string   `json:"comments,omitempty"`
}

// Validation errors for queue payloads.
var (
	ErrPayloadMissingOwner = errors.New("payload missing owner id")
	ErrPayloadBadDate      = errors.New("payload date is not a calendar date")
	ErrPayloadBadInterval  = errors.New("payload end time must be after start time")
	ErrPayloadNoStudies    = errors.New("payload studies list is absent")
)

// Validate checks the create payload's shape contract: owner present,
// the three date/time fields present and coherent, and the studies list
// present (an empty list is valid, a missing one is not).
func (p *CreateEntryPayload) Validate() error {
	if p.UserID == "" {
		return ErrPayloadMissingOwner
	}
	if _, err := time.Parse(DateFormat, p.Date); err != nil {
		return ErrPayloadBadDate
	}
	if p.TimeStarted <= 0 || p.TimeEnded <= p.TimeStarted {
		return ErrPayloadBadInterval
	}
	if p.Studies == nil {
		return ErrPayloadNoStudies
	}
	return nil
}

// NewCreatePayload builds a validated-ready payload from a local entry.
// Duration is recomputed from the timestamps, never copied.
func NewCreatePayload(e *TimeEntry) *CreateEntryPayload {
	studies := e.Studies
	if studies == nil {
		studies = []string{}
	}
	return &CreateEntryPayload{
		UserID:       e.UserID,
		Date:         e.Date,
		TimeStarted:  e.TimeStarted,
		TimeEnded:    e.TimeEnded,
		Duration:     e.Duration(),
		Studies:      studies,
		Participated: e.Participated,
		Comments:     e.Comments,
	}
}

// UpdateEntryPayload is the partial field set carried by an update
// queue entry. Nil pointers mean "field unchanged".
type UpdateEntryPayload struct {
	Date         *string   `json:"date,omitempty"`
	TimeStarted  *int64    `json:"time_started,omitempty"`
	TimeEnded    *int64    `json:"time_ended,omitempty"`
	Duration     *float64  `json:"duration,omitempty"`
	Studies      *[]string `json:"studies,omitempty"`
	Participated *bool     `json:"participated,omitempty"`
	Comments     *string   `json:"comments,omitempty"`
}

// Empty reports whether the update carries no changed fields.
func (p *UpdateEntryPayload) Empty() bool {
	return p.Date == nil && p.TimeStarted == nil && p.TimeEnded == nil &&
		p.Duration == nil && p.Studies == nil && p.Participated == nil &&
		p.Comments == nil
}
