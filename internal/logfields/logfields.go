package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyPath       = "path"
	KeyDir        = "dir"
	KeyOutput     = "output"
	KeyKind       = "kind"
	KeyFunction   = "function"
	KeyTemplate   = "template"
	KeyURL        = "url"
	KeyLang       = "lang"
	KeyDurationMS = "duration_ms"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Dir(d string) slog.Attr          { return slog.String(KeyDir, d) }
func Output(p string) slog.Attr       { return slog.String(KeyOutput, p) }
func Kind(k string) slog.Attr         { return slog.String(KeyKind, k) }
func Function(name string) slog.Attr  { return slog.String(KeyFunction, name) }
func Template(p string) slog.Attr     { return slog.String(KeyTemplate, p) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Lang(l string) slog.Attr         { return slog.String(KeyLang, l) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

// Since reports the elapsed milliseconds since start.
func Since(start time.Time) slog.Attr {
	return DurationMS(float64(time.Since(start).Microseconds()) / 1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
