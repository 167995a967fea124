package sqlstore

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ncruces/go-sqlite3"
	"gorm.io/gorm"

	"github.com/WYI1223/LazyLife/pkg/models"
	"github.com/WYI1223/LazyLife/pkg/store"
)

// translateWriteError maps engine specific constraint violations onto store.ErrAlreadyExists.
func translateWriteError(err error, entity, id string) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%s %s: %w", entity, id, store.ErrAlreadyExists)
	}
	return fmt.Errorf("failed to write %s %s: %w", entity, id, err)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	return errors.Is(err, sqlite3.CONSTRAINT_PRIMARYKEY) || errors.Is(err, sqlite3.CONSTRAINT_UNIQUE)
}

// errorCode classifies an error for the error_code log field.
func errorCode(err error) string {
	switch {
	case errors.Is(err, models.ErrValidation):
		return "validation_error"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	case errors.Is(err, store.ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, store.ErrInvalidData):
		return "invalid_data"
	default:
		return "db_write_failed"
	}
}
