package models

import "time"

// EventType names a pipeline lifecycle event
type EventType string

const (
	EventSeasonLoading EventType = "season.loading"
	EventSeasonLoaded  EventType = "season.loaded"
	EventSeasonFailed  EventType = "season.failed"
	EventExportEncoded EventType = "export.encoded"
)

// PipelineEvent reports progress of a season load or export
type PipelineEvent struct {
	Type      EventType `json:"type"`
	Season    int       `json:"season"`
	Rows      int       `json:"rows,omitempty"`
	Format    string    `json:"format,omitempty"`
	Bytes     int       `json:"bytes,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
