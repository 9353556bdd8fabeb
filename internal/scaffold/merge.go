package scaffold

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"

	"github.com/alexisbeaulieu97/dbx-aidev/pkg/diff"
)

const (
	// SectionMarker starts the block appended to an existing root document.
	SectionMarker = "## Databricks Development Context"
	// productToken marks a root document that already references the docs.
	productToken = "dbx_ai_docs"
)

// AlreadyMerged reports whether existing already carries the Databricks section.
func AlreadyMerged(existing []byte) bool {
	return bytes.Contains(existing, []byte(SectionMarker)) || bytes.Contains(existing, []byte(productToken))
}

// MergeRootDocument appends the template section starting at SectionMarker
// to existing. The whole template is appended when it has no marker. The
// second return is false when existing already has the section or already
// contains the text that would be appended.
func MergeRootDocument(existing, template []byte) ([]byte, bool) {
	if AlreadyMerged(existing) {
		return existing, false
	}

	section := template
	if idx := bytes.Index(template, []byte(SectionMarker)); idx >= 0 {
		section = template[idx:]
	}
	if trimmed := bytes.TrimSpace(section); len(trimmed) == 0 || bytes.Contains(existing, trimmed) {
		return existing, false
	}

	var buf bytes.Buffer
	buf.Grow(len(existing) + len(section) + 2)
	buf.Write(existing)
	if len(existing) > 0 {
		if !bytes.HasSuffix(existing, []byte("\n")) {
			buf.WriteByte('\n')
		}
		buf.WriteByte('\n')
	}
	buf.Write(section)
	return buf.Bytes(), true
}

func (r *runner) mergeRootDocument(target string) (Outcome, error) {
	existing, err := os.ReadFile(target)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", RootDocument, err)
	}
	template, err := fs.ReadFile(r.fsys, RootDocument)
	if err != nil {
		return "", fmt.Errorf("read %s template: %w", RootDocument, err)
	}

	merged, changed := MergeRootDocument(existing, template)
	if !changed {
		r.log.Info(RootDocument + " already has the Databricks section")
		return OutcomeUnchanged, nil
	}

	if r.log.DebugEnabled() {
		r.log.Debug(diff.GenerateUnifiedDiff(existing, merged, RootDocument, RootDocument+" (merged)"))
	}

	perm := defaultFileMode
	if info, err := os.Stat(target); err == nil {
		perm = info.Mode().Perm()
	}
	if err := writeFileAtomic(target, merged, perm); err != nil {
		return "", fmt.Errorf("write %s: %w", RootDocument, err)
	}
	return OutcomeMerged, nil
}

// drift summarises how an existing file differs from its template.
func (r *runner) drift(src, dst string) string {
	current, err := os.ReadFile(dst)
	if err != nil {
		return ""
	}
	bundled, err := fs.ReadFile(r.fsys, src)
	if err != nil {
		return ""
	}
	return diff.Summary(bundled, current)
}
