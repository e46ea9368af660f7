// Package logfields holds the canonical slog attribute keys used across the service.
package logfields

import (
	"log/slog"
	"os"
	"strings"
)

const (
	KeyKind       = "kind"
	KeySlug       = "slug"
	KeySource     = "source"
	KeyContentID  = "content_id"
	KeyPaths      = "paths"
	KeyJobID      = "job_id"
	KeyRequestID  = "request_id"
	KeyDurationMS = "duration_ms"
	KeyLanguage   = "language"
	KeyError      = "error"
)

func Kind(k string) slog.Attr        { return slog.String(KeyKind, k) }
func Slug(s string) slog.Attr        { return slog.String(KeySlug, s) }
func Source(s string) slog.Attr      { return slog.String(KeySource, s) }
func ContentID(id string) slog.Attr  { return slog.String(KeyContentID, id) }
func Paths(p []string) slog.Attr     { return slog.String(KeyPaths, strings.Join(p, ",")) }
func JobID(id string) slog.Attr      { return slog.String(KeyJobID, id) }
func RequestID(id string) slog.Attr  { return slog.String(KeyRequestID, id) }
func DurationMS(ms int64) slog.Attr  { return slog.Int64(KeyDurationMS, ms) }
func Language(lang string) slog.Attr { return slog.String(KeyLanguage, lang) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// Setup installs a JSON slog handler as the process default.
func Setup(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
