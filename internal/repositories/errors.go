package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// IsNotFoundError reports whether the error is the store's missing-row error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
