// Package codec converts consent records to and from the text stored in a
// slot. The layout is a JSON object with exactly four fields:
//
//	{"version":1,"timestamp":"...","expiresAt":"...","preferences":{"session":true}}
//
// Timestamps are RFC 3339 with nanoseconds in UTC. encoding/json sorts map
// keys, so Encode is deterministic for a given record.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"consentkit/internal/consent/models"
)

type wireRecord struct {
	Version     *int            `json:"version"`
	Timestamp   *time.Time      `json:"timestamp"`
	ExpiresAt   *time.Time      `json:"expiresAt"`
	Preferences map[string]bool `json:"preferences"`
}

// Encode serializes r.
func Encode(r models.Record) (string, error) {
	version := r.Version
	ts := r.Timestamp.UTC()
	exp := r.ExpiresAt.UTC()
	prefs := r.Preferences
	if prefs == nil {
		prefs = map[string]bool{}
	}
	b, err := json.Marshal(wireRecord{
		Version:     &version,
		Timestamp:   &ts,
		ExpiresAt:   &exp,
		Preferences: prefs,
	})
	if err != nil {
		return "", fmt.Errorf("encode consent record: %w", err)
	}
	return string(b), nil
}

// Decode parses s.
//
// Errors: models.ErrMalformedRecord when s is not a complete record (bad JSON,
// unknown fields, trailing data, missing fields); models.ErrSchemaVersionMismatch
// when the version differs from models.CurrentVersion.
func Decode(s string) (models.Record, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.DisallowUnknownFields()

	var w wireRecord
	if err := dec.Decode(&w); err != nil {
		return models.Record{}, fmt.Errorf("%w: %w", models.ErrMalformedRecord, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return models.Record{}, fmt.Errorf("%w: trailing data", models.ErrMalformedRecord)
	}

	switch {
	case w.Version == nil:
		return models.Record{}, fmt.Errorf("%w: missing version", models.ErrMalformedRecord)
	case w.Timestamp == nil:
		return models.Record{}, fmt.Errorf("%w: missing timestamp", models.ErrMalformedRecord)
	case w.ExpiresAt == nil:
		return models.Record{}, fmt.Errorf("%w: missing expiresAt", models.ErrMalformedRecord)
	case w.Preferences == nil:
		return models.Record{}, fmt.Errorf("%w: missing preferences", models.ErrMalformedRecord)
	}
	if *w.Version != models.CurrentVersion {
		return models.Record{}, fmt.Errorf("%w: got %d, want %d", models.ErrSchemaVersionMismatch, *w.Version, models.CurrentVersion)
	}

	return models.Record{
		Version:     *w.Version,
		Timestamp:   w.Timestamp.UTC(),
		ExpiresAt:   w.ExpiresAt.UTC(),
		Preferences: models.Preferences(w.Preferences),
	}, nil
}
