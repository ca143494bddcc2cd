// Package aristote implements the HTTP client for the Aristote enrichment
// service: submitting videos for transcription, requesting follow-up AI
// versions (translation, quiz), polling job state, and downloading
// transcripts. Authentication uses the OAuth client-credentials flow with an
// explicit in-memory token cache.
package aristote
