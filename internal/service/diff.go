package service

import (
	"encoding/json"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Line run types stored in Diff.Changes.
const (
	ChangeUnchanged = "unchanged"
	ChangeAdded     = "added"
	ChangeRemoved   = "removed"
)

// LineChange is one run of consecutive lines sharing the same change type.
type LineChange struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// computeLineChanges produces an ordered list of line-level add/remove/
// unchanged runs between two texts. Comparison is per line, no word-level
// refinement and no move detection.
func computeLineChanges(oldText, newText string) []LineChange {
	dmp := diffmatchpatch.New()
	fromRunes, toRunes, lines := dmp.DiffLinesToRunes(oldText, newText)
	diffs := dmp.DiffMainRunes(fromRunes, toRunes, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	changes := make([]LineChange, 0, len(diffs))
	for _, d := range diffs {
		change := LineChange{Text: d.Text}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			change.Type = ChangeAdded
		case diffmatchpatch.DiffDelete:
			change.Type = ChangeRemoved
		default:
			change.Type = ChangeUnchanged
		}
		changes = append(changes, change)
	}
	return changes
}

func marshalLineChanges(changes []LineChange) (string, error) {
	encoded, err := json.Marshal(changes)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func unmarshalLineChanges(raw string, changes *[]LineChange) error {
	return json.Unmarshal([]byte(raw), changes)
}
