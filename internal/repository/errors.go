package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// uniqueViolation reports whether err is a unique constraint violation and,
// when it can tell, the name of the violated constraint or column.
func uniqueViolation(err error) (bool, string) {
	if err == nil {
		return false, ""
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return false, ""
		}
		return true, strings.ToLower(pgErr.ConstraintName + " " + pgErr.Detail)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true, ""
	}
	// sqlite: "UNIQUE constraint failed: users.username"
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key") {
		return true, msg
	}
	return false, ""
}
