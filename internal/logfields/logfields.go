package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyAppID      = "app_id"
	KeyWindowID   = "window_id"
	KeyWorkspace  = "workspace"
	KeyOutput     = "output"
	KeyPassID     = "pass_id"
	KeyOrdinal    = "ordinal"
	KeyCommand    = "command"
	KeyState      = "state"
	KeyPath       = "path"
	KeyInterval   = "interval"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func AppID(id string) slog.Attr          { return slog.String(KeyAppID, id) }
func WindowID(id uint64) slog.Attr       { return slog.Uint64(KeyWindowID, id) }
func Workspace(w string) slog.Attr       { return slog.String(KeyWorkspace, w) }
func Output(o string) slog.Attr          { return slog.String(KeyOutput, o) }
func PassID(id string) slog.Attr         { return slog.String(KeyPassID, id) }
func Ordinal(i int) slog.Attr            { return slog.Int(KeyOrdinal, i) }
func Command(c string) slog.Attr         { return slog.String(KeyCommand, c) }
func State(s string) slog.Attr           { return slog.String(KeyState, s) }
func Path(p string) slog.Attr            { return slog.String(KeyPath, p) }
func Interval(d time.Duration) slog.Attr { return slog.String(KeyInterval, d.String()) }
func DurationMS(ms float64) slog.Attr    { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
