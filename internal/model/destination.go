package model

// UnlimitedConcurrent disables the capacity check for a destination.
const UnlimitedConcurrent = -1

// Destination is a place a pass can be issued for.
type Destination struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	DefaultMinutes int    `json:"default_minutes"`
	// MaxConcurrent caps simultaneously active passes; -1 means unlimited.
	MaxConcurrent int `json:"max_concurrent"`
}
