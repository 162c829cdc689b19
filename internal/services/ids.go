package services

import "github.com/google/uuid"

// IsUUID reports whether s is a canonical 36-character UUID
func IsUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
