// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the aggregate used for conditional
// list responses (weak ETags) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-rest-errors/internal/domain"
)

// UsersSnapshot summarises the live rows of the users table. Any insert,
// update or delete changes at least one of its fields.
type UsersSnapshot struct {
	Count       int64
	LastUpdated time.Time // zero when Count is 0
}

// Version folds the snapshot's timestamp into an integer suitable for an
// ETag. Empty tables report 0.
func (s UsersSnapshot) Version() int64 {
	if s.Count == 0 || s.LastUpdated.IsZero() {
		return 0
	}
	return s.LastUpdated.UnixNano()
}

// UsersStats returns a snapshot of the live (not soft-deleted) users.
func UsersStats(ctx context.Context, db *gorm.DB) (UsersSnapshot, error) {
	var snap UsersSnapshot
	users := func() *gorm.DB { return db.WithContext(ctx).Model(&domain.User{}) }

	if err := users().Count(&snap.Count).Error; err != nil {
		return UsersSnapshot{}, err
	}
	if snap.Count == 0 {
		return snap, nil
	}

	// ORDER BY + LIMIT instead of MAX(): SQLite returns MAX() as TEXT.
	var latest domain.User
	if err := users().Select("updated_at").Order("updated_at DESC").Limit(1).Take(&latest).Error; err != nil {
		return UsersSnapshot{}, err
	}
	snap.LastUpdated = latest.UpdatedAt
	return snap, nil
}
