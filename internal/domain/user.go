// Package domain contains entities and their invariants, no transport or I/O.
package domain

import "fmt"

const MaxUserIDLen = 36

// UserID identifies a chat platform user.
type UserID string

// Mention renders the platform mention markup for the user.
func (u UserID) Mention() string {
	return fmt.Sprintf("<@%s>", string(u))
}
