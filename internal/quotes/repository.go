// Package quotes persists quotes, clients and the team roster. The
// calculation packages never touch storage; handlers load snapshots from
// here and pass them in by value.
package quotes

import (
	"database/sql"
	"errors"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("record not found")

// Repository provides document-style access to the quote, client and
// team collections.
type Repository struct {
	db *sql.DB
}

// New returns a Repository backed by the given database.
func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}
