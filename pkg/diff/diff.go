package diff

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	maxDiffLines    = 10000
	truncateMessage = "... (diff truncated, exceeds 10,000 lines) ..."
)

// GenerateUnifiedDiff renders a line-oriented diff of before and after.
// Returns empty string if content is identical.
// Truncates diffs exceeding 10,000 lines with a truncation marker.
func GenerateUnifiedDiff(before, after []byte, beforeLabel, afterLabel string) string {
	if bytes.Equal(before, after) {
		return ""
	}

	dmp := diffmatchpatch.New()
	beforeChars, afterChars, lineArray := dmp.DiffLinesToChars(string(before), string(after))
	diffs := dmp.DiffMain(beforeChars, afterChars, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "--- %s\n", beforeLabel)
	fmt.Fprintf(&buf, "+++ %s\n", afterLabel)
	fmt.Fprintf(&buf, "@@ -1,%d +1,%d @@\n", countLines(before), countLines(after))

	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range splitKeepingContent(d.Text) {
			buf.WriteString(prefix)
			buf.WriteString(line)
			buf.WriteString("\n")
		}
	}

	result := buf.String()
	lines := strings.Split(result, "\n")
	if len(lines) > maxDiffLines {
		truncated := strings.Join(lines[:maxDiffLines], "\n")
		return truncated + "\n" + truncateMessage + "\n"
	}

	return result
}

// Stat counts inserted and deleted lines between before and after.
func Stat(before, after []byte) (inserted, deleted int) {
	matcher := difflib.NewMatcher(difflib.SplitLines(string(before)), difflib.SplitLines(string(after)))
	for _, op := range matcher.GetOpCodes() {
		switch op.Tag {
		case 'r':
			deleted += op.I2 - op.I1
			inserted += op.J2 - op.J1
		case 'd':
			deleted += op.I2 - op.I1
		case 'i':
			inserted += op.J2 - op.J1
		}
	}
	return inserted, deleted
}

// Summary renders Stat as "+N -M", or "identical".
func Summary(before, after []byte) string {
	inserted, deleted := Stat(before, after)
	if inserted == 0 && deleted == 0 {
		return "identical"
	}
	return fmt.Sprintf("+%d -%d", inserted, deleted)
}

func countLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	return len(splitKeepingContent(string(content)))
}

func splitKeepingContent(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
