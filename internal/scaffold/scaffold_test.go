package scaffold

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	git "github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/require"

	apperrors "github.com/alexisbeaulieu97/dbx-aidev/pkg/errors"
)

const rootTemplate = "# Project\n\nIntro.\n\n## Databricks Development Context\nSee dbx_ai_docs/README.md.\n"

func testTemplates() fstest.MapFS {
	return fstest.MapFS{
		"CLAUDE.md":                     {Data: []byte(rootTemplate)},
		"dbx_ai_docs/README.md":         {Data: []byte("# Docs\n")},
		"dbx_ai_docs/cli-overview.md":   {Data: []byte("# CLI\n")},
		".claude/commands/dbx-setup.md": {Data: []byte("setup\n")},
		".claude/commands/docs.md":      {Data: []byte("docs\n")},
	}
}

// scriptedPrompter answers in order and records every question.
type scriptedPrompter struct {
	answers   []bool
	questions []string
}

func (p *scriptedPrompter) Confirm(question string) (bool, error) {
	p.questions = append(p.questions, question)
	if len(p.answers) == 0 {
		return false, nil
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	return answer, nil
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	files := map[string]string{}
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, _ := filepath.Rel(dir, p)
		files[filepath.ToSlash(rel)] = readFile(t, p)
		return nil
	})
	require.NoError(t, err)
	return files
}

func TestRunCreatesEverythingInEmptyProject(t *testing.T) {
	dir := t.TempDir()
	prompter := &scriptedPrompter{}

	report, err := Run(Options{Templates: testTemplates(), Dir: dir, Prompter: prompter})
	require.NoError(t, err)
	require.Empty(t, prompter.questions)

	require.Equal(t, []string{
		"CLAUDE.md",
		"dbx_ai_docs/",
		".claude/commands/dbx-setup.md",
		".claude/commands/docs.md",
	}, report.Created())

	require.Equal(t, rootTemplate, readFile(t, filepath.Join(dir, "CLAUDE.md")))
	require.Equal(t, "# CLI\n", readFile(t, filepath.Join(dir, "dbx_ai_docs", "cli-overview.md")))
	require.Equal(t, "setup\n", readFile(t, filepath.Join(dir, ".claude", "commands", "dbx-setup.md")))
}

func TestRunEmptyCommandsDirectoryIsFilledWithoutPrompt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".claude", "commands"), 0o755))
	prompter := &scriptedPrompter{}

	var observed []Action
	_, err := Run(Options{
		Templates: testTemplates(),
		Dir:       dir,
		Prompter:  prompter,
		Observer:  func(a Action) { observed = append(observed, a) },
	})
	require.NoError(t, err)
	require.Empty(t, prompter.questions)

	var commands []string
	for _, a := range observed {
		if a.Artifact == ArtifactCommands {
			require.Equal(t, OutcomeCreated, a.Outcome)
			commands = append(commands, a.Path)
		}
	}
	require.Equal(t, []string{".claude/commands/dbx-setup.md", ".claude/commands/docs.md"}, commands)
}

func TestRunTwiceIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	_, err := Run(Options{Templates: testTemplates(), Dir: dir, Prompter: AnswerAll(true)})
	require.NoError(t, err)
	first := snapshot(t, dir)

	report, err := Run(Options{Templates: testTemplates(), Dir: dir, Prompter: AnswerAll(true)})
	require.NoError(t, err)
	require.Equal(t, first, snapshot(t, dir))
	require.Empty(t, report.Created())

	outcomes := map[string]Outcome{}
	for _, a := range report.Actions {
		outcomes[a.Path] = a.Outcome
	}
	require.Equal(t, OutcomeUnchanged, outcomes["CLAUDE.md"])
	require.Equal(t, OutcomeReplaced, outcomes["dbx_ai_docs/"])
	require.Equal(t, OutcomeSkipped, outcomes[".claude/commands/docs.md"])
}

func TestRunMergesSectionIntoExistingRootDocument(t *testing.T) {
	dir := t.TempDir()
	rootPath := filepath.Join(dir, "CLAUDE.md")
	require.NoError(t, os.WriteFile(rootPath, []byte("# My project\nNotes"), 0o600))

	prompter := &scriptedPrompter{answers: []bool{true}}
	report, err := Run(Options{Templates: testTemplates(), Dir: dir, Prompter: prompter})
	require.NoError(t, err)
	require.Len(t, prompter.questions, 1)
	require.Contains(t, prompter.questions[0], "CLAUDE.md already exists")

	require.Equal(t,
		"# My project\nNotes\n\n## Databricks Development Context\nSee dbx_ai_docs/README.md.\n",
		readFile(t, rootPath))
	require.Equal(t, OutcomeMerged, report.Actions[0].Outcome)

	info, err := os.Stat(rootPath)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRunLeavesRootDocumentWithMarkerUnchanged(t *testing.T) {
	dir := t.TempDir()
	rootPath := filepath.Join(dir, "CLAUDE.md")
	original := "# Mine\n\n## Databricks Development Context\ncustom\n"
	require.NoError(t, os.WriteFile(rootPath, []byte(original), 0o644))

	report, err := Run(Options{Templates: testTemplates(), Dir: dir, Prompter: AnswerAll(true)})
	require.NoError(t, err)
	require.Equal(t, original, readFile(t, rootPath))
	require.Equal(t, OutcomeUnchanged, report.Actions[0].Outcome)
}

func TestRunDeclinedPromptsLeaveProjectUntouched(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CLAUDE.md"), []byte("mine\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dbx_ai_docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dbx_ai_docs", "old.md"), []byte("old\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".claude", "commands"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".claude", "commands", "custom.md"), []byte("custom\n"), 0o644))
	before := snapshot(t, dir)

	prompter := &scriptedPrompter{answers: []bool{false, false, false}}
	report, err := Run(Options{Templates: testTemplates(), Dir: dir, Prompter: prompter})
	require.NoError(t, err)
	require.Len(t, prompter.questions, 3)
	require.Equal(t, before, snapshot(t, dir))

	for _, a := range report.Actions {
		require.Equal(t, OutcomeSkipped, a.Outcome, a.Path)
	}
}

func TestRunReplacesDocumentationDirectory(t *testing.T) {
	dir := t.TempDir()
	docs := filepath.Join(dir, "dbx_ai_docs")
	require.NoError(t, os.MkdirAll(docs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "stale.md"), []byte("stale\n"), 0o644))

	prompter := &scriptedPrompter{answers: []bool{true}}
	_, err := Run(Options{Templates: testTemplates(), Dir: dir, Prompter: prompter})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(docs, "stale.md"))
	require.True(t, errors.Is(err, fs.ErrNotExist))
	require.Equal(t, "# Docs\n", readFile(t, filepath.Join(docs, "README.md")))
}

func TestRunAddsOnlyMissingCommandFiles(t *testing.T) {
	dir := t.TempDir()
	commands := filepath.Join(dir, ".claude", "commands")
	require.NoError(t, os.MkdirAll(commands, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(commands, "docs.md"), []byte("my docs\n"), 0o644))

	prompter := &scriptedPrompter{answers: []bool{true}}
	report, err := Run(Options{Templates: testTemplates(), Dir: dir, Prompter: prompter})
	require.NoError(t, err)
	require.Len(t, prompter.questions, 1)

	require.Equal(t, "my docs\n", readFile(t, filepath.Join(commands, "docs.md")))
	require.Equal(t, "setup\n", readFile(t, filepath.Join(commands, "dbx-setup.md")))

	var skipped Action
	for _, a := range report.Actions {
		if a.Path == ".claude/commands/docs.md" {
			skipped = a
		}
	}
	require.Equal(t, OutcomeSkipped, skipped.Outcome)
	require.Equal(t, "+1 -1", skipped.Detail)
}

func TestRunMissingTemplatesReturnsTemplateError(t *testing.T) {
	_, err := Run(Options{Templates: os.DirFS(filepath.Join(t.TempDir(), "missing")), Dir: t.TempDir()})
	require.Error(t, err)

	var templateErr *apperrors.TemplateError
	require.ErrorAs(t, err, &templateErr)
}

func TestRunSkipsMissingTemplatePieces(t *testing.T) {
	dir := t.TempDir()
	fsys := fstest.MapFS{"CLAUDE.md": {Data: []byte(rootTemplate)}}

	report, err := Run(Options{Templates: fsys, Dir: dir})
	require.NoError(t, err)
	require.Equal(t, []string{"CLAUDE.md"}, report.Created())

	_, err = os.Stat(filepath.Join(dir, "dbx_ai_docs"))
	require.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestRunUsesBundledTemplatesByDefault(t *testing.T) {
	dir := t.TempDir()

	_, err := Run(Options{Dir: dir})
	require.NoError(t, err)

	for _, rel := range []string{
		"CLAUDE.md",
		"dbx_ai_docs/cli-overview.md",
		"dbx_ai_docs/cli-workspace.md",
		"dbx_ai_docs/safety-guidelines.md",
		".claude/commands/dbx-setup.md",
		".claude/commands/docs.md",
	} {
		_, err := os.Stat(filepath.Join(dir, filepath.FromSlash(rel)))
		require.NoError(t, err, rel)
	}
}

func TestMergeRootDocument(t *testing.T) {
	t.Parallel()

	merged, changed := MergeRootDocument([]byte("# A\n"), []byte("intro\n"+SectionMarker+"\nbody\n"))
	require.True(t, changed)
	require.Equal(t, "# A\n\n"+SectionMarker+"\nbody\n", string(merged))

	merged, changed = MergeRootDocument(nil, []byte("no marker\n"))
	require.True(t, changed)
	require.Equal(t, "no marker\n", string(merged))

	existing := []byte("see dbx_ai_docs for details\n")
	merged, changed = MergeRootDocument(existing, []byte(SectionMarker+"\n"))
	require.False(t, changed)
	require.Equal(t, existing, merged)

	merged, changed = MergeRootDocument([]byte("# A\n\nno marker\n"), []byte("no marker\n"))
	require.False(t, changed)
	require.Equal(t, "# A\n\nno marker\n", string(merged))
}

func TestRunMergesMarkerlessTemplateOnce(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, RootDocument)
	require.NoError(t, os.WriteFile(target, []byte("# Mine\n"), 0o644))
	templates := fstest.MapFS{RootDocument: {Data: []byte("Use the shared notebooks.\n")}}

	first, err := Run(Options{Templates: templates, Dir: dir, Prompter: AnswerAll(true)})
	require.NoError(t, err)
	require.Equal(t, OutcomeMerged, first.Actions[0].Outcome)

	second, err := Run(Options{Templates: templates, Dir: dir, Prompter: AnswerAll(true)})
	require.NoError(t, err)
	require.Equal(t, OutcomeUnchanged, second.Actions[0].Outcome)
	require.Equal(t, "# Mine\n\nUse the shared notebooks.\n", readFile(t, target))
}

func TestLinePrompter(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	p := NewLinePrompter(strings.NewReader("yes\nn\n"), &out)

	ok, err := p.Confirm("first?")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = p.Confirm("second?")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = p.Confirm("third?")
	require.NoError(t, err)
	require.False(t, ok, "end of input answers no")

	require.Contains(t, out.String(), "first? [y/N]: ")
	require.Contains(t, out.String(), "third? [y/N]: ")
}

func TestRepositoryRoot(t *testing.T) {
	root := t.TempDir()
	_, err := git.PlainInit(root, false)
	require.NoError(t, err)

	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	got, err := RepositoryRoot(nested)
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	gotResolved, err := filepath.EvalSymlinks(got)
	require.NoError(t, err)
	require.Equal(t, want, gotResolved)
}

func TestRepositoryRootOutsideRepository(t *testing.T) {
	_, err := RepositoryRoot(t.TempDir())
	require.ErrorIs(t, err, ErrNotRepository)
}
