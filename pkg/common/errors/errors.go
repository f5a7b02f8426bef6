package errors

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrDuplicateEntry   = errors.New("username/email already exists")
	ErrDatabaseInternal = errors.New("database internal error")
)

// WrapGormError maps raw database errors onto the domain errors above so
// handlers never branch on driver types.
func WrapGormError(rawErr error) error {
	if rawErr == nil {
		return nil
	}

	switch {
	case errors.Is(rawErr, gorm.ErrRecordNotFound):
		return ErrUserNotFound
	case errors.Is(rawErr, gorm.ErrDuplicatedKey):
		return ErrDuplicateEntry
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(rawErr, &mysqlErr) {
		switch mysqlErr.Number {
		case 1062: // unique constraint violation
			return ErrDuplicateEntry
		case 1045, 1049, 1146:
			return fmt.Errorf("%w: %s", ErrDatabaseInternal, mysqlErr.Message)
		}
	}

	return fmt.Errorf("%w: %v", ErrDatabaseInternal, rawErr)
}

// IsDuplicateError reports whether err stems from a unique constraint.
func IsDuplicateError(err error) bool {
	if errors.Is(err, ErrDuplicateEntry) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
