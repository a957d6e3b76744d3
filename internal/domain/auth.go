package domain

import "time"

// Token represents an issued access token's metadata.
type Token struct {
	ID        string
	Value     string
	SubjectID string
	ExpiresAt time.Time
	IssuedAt  time.Time
}
