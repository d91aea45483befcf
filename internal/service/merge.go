package service

import "strings"

// MergeConflict is one region where both sides changed the same part of
// the base differently.
type MergeConflict struct {
	Base   string `json:"base"`
	Ours   string `json:"ours"`
	Theirs string `json:"theirs"`
}

// MergeResult is the outcome of a three-way line merge. Content is only
// meaningful when Conflicts is empty.
type MergeResult struct {
	Content   string
	Conflicts []MergeConflict
}

// mergeThreeWay merges two descendants of a common base text line by line.
// Regions changed on only one side take that side; identical changes
// collapse; diverging changes to the same region are reported as conflicts
// and nothing is invented to paper over them.
func mergeThreeWay(base, ours, theirs string) MergeResult {
	baseLines := splitLines(base)
	ourLines := splitLines(ours)
	theirLines := splitLines(theirs)

	ourMatch := matchLines(baseLines, ourLines)
	theirMatch := matchLines(baseLines, theirLines)

	var out []string
	var conflicts []MergeConflict

	bi, oi, ti := 0, 0, 0
	for bi <= len(baseLines) {
		// advance to the next base line anchored in both descendants
		anchor := bi
		for anchor < len(baseLines) {
			if _, ok := ourMatch[anchor]; ok {
				if _, ok := theirMatch[anchor]; ok {
					break
				}
			}
			anchor++
		}

		var oEnd, tEnd int
		if anchor < len(baseLines) {
			oEnd = ourMatch[anchor]
			tEnd = theirMatch[anchor]
		} else {
			oEnd = len(ourLines)
			tEnd = len(theirLines)
		}

		baseChunk := baseLines[bi:anchor]
		ourChunk := ourLines[oi:oEnd]
		theirChunk := theirLines[ti:tEnd]

		switch {
		case equalLines(ourChunk, baseChunk):
			out = append(out, theirChunk...)
		case equalLines(theirChunk, baseChunk):
			out = append(out, ourChunk...)
		case equalLines(ourChunk, theirChunk):
			out = append(out, ourChunk...)
		default:
			conflicts = append(conflicts, MergeConflict{
				Base:   strings.Join(baseChunk, "\n"),
				Ours:   strings.Join(ourChunk, "\n"),
				Theirs: strings.Join(theirChunk, "\n"),
			})
		}

		if anchor >= len(baseLines) {
			break
		}

		out = append(out, baseLines[anchor])
		bi = anchor + 1
		oi = oEnd + 1
		ti = tEnd + 1
	}

	if len(conflicts) > 0 {
		return MergeResult{Conflicts: conflicts}
	}
	return MergeResult{Content: strings.Join(out, "\n")}
}

// matchLines maps base line indexes to their counterpart indexes in other,
// restricted to lines the diff reports as unchanged.
func matchLines(base, other []string) map[int]int {
	changes := computeLineChanges(strings.Join(base, "\n"), strings.Join(other, "\n"))

	match := make(map[int]int)
	bi, oi := 0, 0
	for _, run := range changes {
		n := runLineCount(run.Text)
		switch run.Type {
		case ChangeUnchanged:
			for k := 0; k < n; k++ {
				match[bi+k] = oi + k
			}
			bi += n
			oi += n
		case ChangeRemoved:
			bi += n
		case ChangeAdded:
			oi += n
		}
	}
	return match
}

// runLineCount counts the lines a diff run spans. A run holding a single
// blank line is "\n" and spans one line.
func runLineCount(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
