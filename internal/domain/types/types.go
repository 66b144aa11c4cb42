// Package types contains common types shared with the API layer.
package types

// Row is the public projection of one leaderboard record. Blob internals
// are deliberately absent.
type Row struct {
	ID        int64   `json:"id"`
	DriverID  string  `json:"driver_id"`
	Name      string  `json:"name,omitempty"`
	Car       int     `json:"car"`
	Track     int     `json:"track"`
	Layout    int     `json:"layout"`
	Condition int     `json:"condition"`
	Weather   int     `json:"weather"`
	Timing    float64 `json:"timing"`
}

// SubmitResult reports the outcome of a lap-time submission.
type SubmitResult struct {
	Status string  `json:"status"`
	ID     int64   `json:"id"`
	Timing float64 `json:"timing"`
}

// UploadReceipt reports a successful ghost upload.
type UploadReceipt struct {
	Backend string `json:"backend"`
	Key     string `json:"key"`
	Size    int64  `json:"size"`
}
