package aristote

import (
	"encoding/json"
	"time"
)

// Job statuses reported by the enrichment service.
const (
	JobStatusWaitingMedia   = "WAITING_MEDIA_UPLOAD"
	JobStatusUploadingMedia = "UPLOADING_MEDIA"
	JobStatusSuccess        = "SUCCESS"
	JobStatusFailure        = "FAILURE"
)

// Enrichment is a job tracked by the enrichment service.
type Enrichment struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	UploadStartedAt string `json:"uploadStartedAt"`
	FailureCause    string `json:"failureCause"`
}

// UploadStarted parses the upload start timestamp. The second return value is
// false when the service reported none or an unparseable value.
func (e *Enrichment) UploadStarted() (time.Time, bool) {
	if e == nil || e.UploadStartedAt == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, e.UploadStartedAt); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Version is one AI-generated result set attached to a job. A job accumulates
// versions as follow-up passes (translation, quiz) complete.
type Version struct {
	ID                      string            `json:"id"`
	Transcript              *Transcript       `json:"transcript"`
	TranslateTo             string            `json:"translateTo"`
	MultipleChoiceQuestions []json.RawMessage `json:"multipleChoiceQuestions"`
}

// Transcript carries the detected or requested source language of a version.
type Transcript struct {
	Language string `json:"language"`
}

// Language returns the transcript language, empty when detection failed.
func (v *Version) Language() string {
	if v == nil || v.Transcript == nil {
		return ""
	}
	return v.Transcript.Language
}

// HasQuiz reports whether quiz content was generated for this version.
func (v *Version) HasQuiz() bool {
	return v != nil && len(v.MultipleChoiceQuestions) > 0
}
