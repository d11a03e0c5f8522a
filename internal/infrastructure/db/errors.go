package db

import (
	"errors"
	"fmt"

	"github.com/solarops/dispatch/internal/domain"
	"gorm.io/gorm"
)

// notFound translates gorm.ErrRecordNotFound into the given domain sentinel.
func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

func invalidState(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, domain.ErrInvalidState)...)
}
