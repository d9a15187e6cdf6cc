package model

import (
	"strconv"
	"time"
)

// SyncJob asks the importer to refresh one season from the results API.
type SyncJob struct {
	ID          string    `json:"id"`
	Year        int       `json:"year"`
	Reason      string    `json:"reason"` // admin, schedule or cli
	RequestedAt time.Time `json:"requested_at"`
}

// Key identifies the season a job touches. Two jobs with the same key are
// never in flight together.
func (j SyncJob) Key() string {
	return "season:" + strconv.Itoa(j.Year)
}

// SyncReport summarises one importer run.
type SyncReport struct {
	Year     int           `json:"year"`
	Events   int           `json:"events"`
	Awards   int           `json:"awards"`
	Failed   []string      `json:"failed,omitempty"`
	Duration time.Duration `json:"duration"`
}
