// Package store holds the Postgres implementations of the service stores.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lock takes a Postgres advisory lock released at the end of the current
// transaction.
func lock(ctx context.Context, db *gorm.DB, key string) error {
	return db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error
}

// notFound swaps gorm's missing-row error for the caller's sentinel.
func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

// validID reports whether id can be compared against a uuid column. Anything
// else would make Postgres reject the query instead of finding nothing.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

var forUpdate = clause.Locking{Strength: "UPDATE"}
