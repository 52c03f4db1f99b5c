// Package store is the typed query layer over the relational backend.
// Every row that crosses this boundary is a concrete model; handlers and
// the feed core never see raw maps.
package store

import (
	"gorm.io/gorm"
)

// Store wraps the database handle with the application's query surface.
type Store struct {
	db *gorm.DB
}

// New creates a Store over an initialized gorm handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for migrations and tests.
func (s *Store) DB() *gorm.DB {
	return s.db
}
