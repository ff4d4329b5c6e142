package ndi

import "time"

// LoadRecord is one runtime bootstrap attempt, persisted when the host has
// a database configured.
type LoadRecord struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	Path      string
	Version   string
	State     string
	Error     string
}
