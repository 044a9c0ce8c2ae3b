package history

import "time"

// Submission is one orchestrator run, accepted or rejected.
type Submission struct {
	ID             int64
	CorrelationID  string
	SourceURL      string
	AlbumID        string
	Kind           string
	Success        bool
	PartialFailure bool
	Message        string
	PickNumber     int
	Artist         string
	Album          string
	Picker         string
	CreatedAt      time.Time
}

// PublishRun is one snapshot publish outside the orchestrator, such as
// "aotw sync" or an enrichment job.
type PublishRun struct {
	ID            int64
	CorrelationID string
	Trigger       string
	Success       bool
	Albums        int
	Message       string
	CreatedAt     time.Time
}
