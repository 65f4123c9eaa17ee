// Package utils holds small helpers shared by every layer.
package utils

import "github.com/google/uuid"

// GenerateID returns the random UUID used as the primary key for every
// tenant, CRM record, contract, and device row this service creates.
func GenerateID() string {
	return uuid.NewString()
}
