package models

import (
	"strings"
	"time"
)

// User is the minimal identity record: the case-normalized username is the
// stable key players and spectators are tracked by across reconnects.
type User struct {
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// NormalizeUsername trims and lowercases an identity before it is used as a
// key anywhere.
func NormalizeUsername(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
