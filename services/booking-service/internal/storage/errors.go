package storage

import (
	"errors"

	"github.com/hanguang-studio/salonbook/libs/db"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict means a unique or exclusion constraint rejected the row.
	ErrConflict = errors.New("conflict")
)

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case db.IsNotFound(err):
		return ErrNotFound
	case db.IsConflict(err):
		return errors.Join(ErrConflict, err)
	default:
		return err
	}
}
