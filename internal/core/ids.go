package core

import "github.com/google/uuid"

// GenerateID creates a new UUID for an entity
func GenerateID() string {
	return uuid.New().String()
}
