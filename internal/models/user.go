package models

import "time"

// UserProfile is the locally cached identity of the entry owner.
// Email is the unique key; LastSyncAt is unix milliseconds, 0 when the
// user has never completed a server download.
type UserProfile struct {
	Email      string `db:"email" json:"email"`
	Name       string `db:"name" json:"name,omitempty"`
	LastSyncAt int64  `db:"last_sync_at" json:"last_sync_at"`
}

// TableName returns the table name for UserProfile.
func (UserProfile) TableName() string {
	return "users"
}

// LastSyncTime returns LastSyncAt as time.Time, or the zero time when
// the user has never synced.
func (u *UserProfile) LastSyncTime() time.Time {
	if u.LastSyncAt == 0 {
		return time.Time{}
	}
	return time.UnixMilli(u.LastSyncAt)
}
