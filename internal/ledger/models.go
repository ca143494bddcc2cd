package ledger

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a tracked enrichment request.
type Status string

const (
	// StatusPending marks a submitted request awaiting its first outcome.
	StatusPending Status = "PENDING"
	// StatusTranscribed marks a transcript received and a translation follow-up issued.
	StatusTranscribed Status = "TRANSCRIBED"
	// StatusTranscribedNoLanguage marks a transcript whose language the provider
	// could not determine. Terminal: no translation can be requested.
	StatusTranscribedNoLanguage Status = "TRANSCRIBED_NO_LANGUAGE"
	// StatusSuccess marks subtitles published back to the media platform.
	StatusSuccess Status = "SUCCESS"
	// StatusFailure marks a job the provider reported as failed.
	StatusFailure Status = "FAILURE"
	// StatusNotDownloadable marks a video with no exportable resource. Terminal.
	StatusNotDownloadable Status = "NOT_DOWNLOADABLE"
)

var allStatuses = []Status{
	StatusPending,
	StatusTranscribed,
	StatusTranscribedNoLanguage,
	StatusSuccess,
	StatusFailure,
	StatusNotDownloadable,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToUpper(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// NonTerminalStatuses returns the statuses the stuck pass should poll:
// requests still waiting on the provider to finish something.
func NonTerminalStatuses() []Status {
	return []Status{StatusPending, StatusTranscribed, StatusFailure}
}

// IsForceUpdateExcluded reports whether a row is permanently excluded from
// forced resubmission: the provider could not name the transcript language,
// or the video has no downloadable resource, so resubmitting cannot help.
func (s Status) IsForceUpdateExcluded() bool {
	return s == StatusTranscribedNoLanguage || s == StatusNotDownloadable
}

// Request is one tracked enrichment request persisted in SQLite.
type Request struct {
	OID                    string
	EnrichmentID           string
	RequestSentAt          time.Time
	NotificationReceivedAt *time.Time
	Language               string
	Status                 Status
	Name                   string
	ParentOID              string
}
