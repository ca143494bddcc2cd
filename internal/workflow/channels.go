package workflow

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"enrichd/internal/language"
)

// Languages maps channel identifiers (oid or title, lowercased) to the
// configured source language of their videos.
type Languages map[string]string

// LoadChannelLanguages reads the per-channel language CSV. Each row is
// "channel,language"; a header row is skipped when present.
func LoadChannelLanguages(path string) (Languages, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse channels csv %s: %w", path, err)
	}

	languages := make(Languages, len(records))
	for i, record := range records {
		if len(record) < 2 {
			continue
		}
		key := strings.TrimSpace(record[0])
		if key == "" {
			continue
		}
		if i == 0 && strings.EqualFold(strings.TrimSpace(record[1]), "language") {
			continue
		}
		languages[strings.ToLower(key)] = strings.TrimSpace(record[1])
	}
	return languages, nil
}

// LoadChannelList reads a CSV of root channel oids, one per row (first
// column). A header row is skipped when present.
func LoadChannelList(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse channel list csv %s: %w", path, err)
	}

	channels := make([]string, 0, len(records))
	for i, record := range records {
		if len(record) == 0 {
			continue
		}
		oid := strings.TrimSpace(record[0])
		if oid == "" {
			continue
		}
		if i == 0 && strings.EqualFold(oid, "channel_oid") {
			continue
		}
		channels = append(channels, oid)
	}
	return channels, nil
}

// Lookup returns the configured language for the first matching key. The
// boolean reports whether any key had an entry, even one meaning
// auto-detect.
func (l Languages) Lookup(keys ...string) (string, bool) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if value, ok := l[strings.ToLower(key)]; ok {
			return NormalizeChannelLanguage(value), true
		}
	}
	return "", false
}

// NormalizeChannelLanguage maps a configured channel language to the value
// sent at submission. Empty and the mixed "fr/en" marker both mean
// auto-detect; anything else is reduced to its ISO 639-1 code.
func NormalizeChannelLanguage(value string) string {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" || trimmed == "fr/en" {
		return ""
	}
	return language.Normalize(trimmed)
}
