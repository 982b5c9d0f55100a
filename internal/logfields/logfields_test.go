package logfields

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"AppID", KeyAppID, "firefox", AppID("firefox")},
		{"Workspace", KeyWorkspace, "mail", Workspace("mail")},
		{"Output", KeyOutput, "DP-1", Output("DP-1")},
		{"PassID", KeyPassID, "p1", PassID("p1")},
		{"Command", KeyCommand, "kitty", Command("kitty")},
		{"State", KeyState, "matched", State("matched")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"Interval", KeyInterval, "5m0s", Interval(5 * time.Minute)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if c.attr.Key != c.attrKey {
				t.Fatalf("key = %q, want %q", c.attr.Key, c.attrKey)
			}
			if got := c.attr.Value.String(); got != c.attrVal {
				t.Fatalf("value = %q, want %q", got, c.attrVal)
			}
		})
	}
}

func TestErrorHelper(t *testing.T) {
	if got := Error(nil).Value.String(); got != "" {
		t.Fatalf("nil error value = %q, want empty", got)
	}
	if got := Error(errors.New("boom")).Value.String(); got != "boom" {
		t.Fatalf("error value = %q, want boom", got)
	}
}

func TestNumericHelpers(t *testing.T) {
	if got := WindowID(42).Value.Uint64(); got != 42 {
		t.Fatalf("window id = %d, want 42", got)
	}
	if got := Ordinal(3).Value.Int64(); got != 3 {
		t.Fatalf("ordinal = %d, want 3", got)
	}
	if got := DurationMS(12.5).Value.Float64(); got != 12.5 {
		t.Fatalf("duration = %f, want 12.5", got)
	}
}
