// Package report manages citizen-submitted issue reports and their persistence.
package report

import "time"

// Report is a single citizen-submitted issue with location, category,
// optional photo, and status. Pointer fields are SQL NULLs and serialize
// as JSON null.
type Report struct {
	ID          string    `json:"id"`
	ImageURL    *string   `json:"image_url"`
	Category    string    `json:"category"`
	Longitude   *float64  `json:"longitude"`
	Latitude    *float64  `json:"latitude"`
	Description *string   `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}
