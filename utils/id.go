package utils

import (
	"github.com/google/uuid"
)

// GenerateRequestID returns a fresh request correlation id.
func GenerateRequestID() string {
	return uuid.New().String()
}
