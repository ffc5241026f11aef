package db

import "github.com/google/uuid"

// IsUUID reports whether id can be compared against a uuid column without a 22P02 error.
func IsUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
