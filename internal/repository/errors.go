// Package repository defines error types that are reused across multiple
// repositories.  Handlers translate them into HTTP status codes.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the addressed row does not exist.  It maps
// to 404.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a unique key would be violated.  It maps
// to 409.
var ErrConflict = errors.New("conflict")

// ErrInvalidReference is returned when a foreign key points at a missing
// plaza, local, waste type or user.  It maps to 400.
var ErrInvalidReference = errors.New("invalid reference")

// ErrEmailExists is the user-specific form of ErrConflict.
var ErrEmailExists = errors.New("email already exists")

const (
	mysqlDuplicateEntry  = 1062
	mysqlNoReferencedRow = 1452
)

// translate maps driver errors onto the sentinels above.
func translate(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDuplicateEntry:
			return ErrConflict
		case mysqlNoReferencedRow:
			return ErrInvalidReference
		}
	}
	return err
}
