package restore

import (
	"sort"

	"github.com/nirinit/nirinit/internal/session"
	"github.com/nirinit/nirinit/internal/util/sets"
)

// BuildWorklist turns a session into the ordered restore worklist.
//
// Entries whose app id is on the skip list, or who have no app id at all,
// are excluded. The remainder is sorted by (output, workspace index) so
// lower-indexed workspaces come into existence first, with entries that
// recorded no placement at all ordered last; the sort is stable,
// preserving snapshot order between entries with the same placement, so the
// ordinal disambiguation between same-app-id entries survives. Each kept
// entry gets its launch command resolved: override map lookup by app id if
// present, else the app id itself as the executable.
func BuildWorklist(sess session.Session, skip []string, overrides map[string]string, hints *HintResolver) (worklist []*Pending, skipped []session.WindowEntry) {
	skipSet := sets.New(skip...)

	kept := make([]session.WindowEntry, 0, len(sess.Windows))
	for _, entry := range sess.Windows {
		if entry.AppID == "" {
			// Windows that never identified themselves cannot be
			// matched; there is nothing to spawn.
			continue
		}
		if skipSet.Has(entry.AppID) {
			skipped = append(skipped, entry)
			continue
		}
		kept = append(kept, entry)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		// An unplaced entry has an empty output, which would otherwise
		// sort before every real output name.
		if pi, pj := placed(kept[i]), placed(kept[j]); pi != pj {
			return pi
		}
		if kept[i].WorkspaceOutput != kept[j].WorkspaceOutput {
			return kept[i].WorkspaceOutput < kept[j].WorkspaceOutput
		}
		return workspaceIdx(kept[i]) < workspaceIdx(kept[j])
	})

	worklist = make([]*Pending, 0, len(kept))
	for i, entry := range kept {
		command := entry.AppID
		if override, ok := overrides[entry.AppID]; ok {
			command = override
		}
		worklist = append(worklist, &Pending{
			Entry:   entry,
			Ordinal: i,
			Command: hints.Argv(entry, command),
			State:   StatePending,
		})
	}
	return worklist, skipped
}

func workspaceIdx(entry session.WindowEntry) int {
	if entry.WorkspaceIndex == nil {
		return int(^uint8(0)) + 1 // entries without an index sort last on their output
	}
	return int(*entry.WorkspaceIndex)
}

// placed reports whether the entry recorded any placement information.
func placed(entry session.WindowEntry) bool {
	return entry.WorkspaceOutput != "" || entry.WorkspaceName != "" || entry.WorkspaceIndex != nil
}
