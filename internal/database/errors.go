package database

import "errors"

var (
	// ErrNoReport is returned when no stored report matches a query.
	ErrNoReport = errors.New("no audit report found")

	// ErrDatabaseNotFound is returned by Open when the database file does not
	// exist and creation was not requested.
	ErrDatabaseNotFound = errors.New("database not found")
)
