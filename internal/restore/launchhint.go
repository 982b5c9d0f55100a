package restore

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nirinit/nirinit/internal/logfields"
	"github.com/nirinit/nirinit/internal/session"
)

// HintResolver augments launch commands with per-application hints derived
// from the recorded window title: JetBrains IDEs reopen their project and
// Microsoft Edge reopens its named workspace.
type HintResolver struct {
	// ConfigDir is the user config directory (Edge's workspace cache
	// lives under it). Empty means os.UserConfigDir.
	ConfigDir string

	// Home expands "~" in extracted project paths. Empty means
	// os.UserHomeDir.
	Home string
}

// Argv splits the resolved launch command into argv and appends any hint
// arguments for the entry. A hint that cannot be resolved degrades to the
// plain command.
func (h *HintResolver) Argv(entry session.WindowEntry, command string) []string {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil
	}
	if h == nil {
		return argv
	}

	switch {
	case strings.HasPrefix(entry.AppID, "jetbrains-"):
		if path, ok := h.jetbrainsProjectPath(entry.Title); ok {
			slog.Debug("Extracted project path from title", logfields.AppID(entry.AppID), logfields.Path(path))
			argv = append(argv, path)
		}
	case entry.AppID == "microsoft-edge":
		// The recorded title carries the Edge workspace name.
		if id, ok := h.edgeWorkspaceID(entry.Title); ok {
			slog.Debug("Resolved Edge workspace id", logfields.AppID(entry.AppID), slog.String("workspace_id", id))
			argv = append(argv, "--launch-workspace="+id)
		}
	}
	return argv
}

// jetbrainsProjectPath extracts the project path from a JetBrains IDE
// window title of the form "project [/path/to/project] – file".
func (h *HintResolver) jetbrainsProjectPath(title string) (string, bool) {
	start := strings.IndexByte(title, '[')
	end := strings.IndexByte(title, ']')
	if start < 0 || end < 0 || start >= end {
		return "", false
	}
	path := title[start+1 : end]
	if path == "" {
		return "", false
	}
	if strings.HasPrefix(path, "~") {
		home := h.Home
		if home == "" {
			var err error
			home, err = os.UserHomeDir()
			if err != nil {
				return "", false
			}
		}
		path = home + path[1:]
	}
	return path, true
}

// edgeWorkspaceID resolves an Edge workspace name against the browser's
// WorkspacesCache file.
func (h *HintResolver) edgeWorkspaceID(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	configDir := h.ConfigDir
	if configDir == "" {
		var err error
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", false
		}
	}
	cachePath := filepath.Join(configDir, "microsoft-edge", "Default", "Workspaces", "WorkspacesCache")
	data, err := os.ReadFile(cachePath)
	if err != nil {
		return "", false
	}

	var cache struct {
		Workspaces []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"workspaces"`
	}
	if err := json.Unmarshal(data, &cache); err != nil {
		return "", false
	}
	for _, ws := range cache.Workspaces {
		if ws.Name == name && ws.ID != "" {
			return ws.ID, true
		}
	}
	return "", false
}
