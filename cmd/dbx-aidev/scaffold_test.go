package main

import (
	"os"
	"path/filepath"
	"testing"

	git "github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/require"
)

func TestScaffoldCreatesFilesInEmptyDirectory(t *testing.T) {
	dir := t.TempDir()

	out, err := executeCommand(t, "", "--dir", dir)
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

	require.Contains(t, out, "📁 Copying template files...")
	require.Contains(t, out, "✓ Created CLAUDE.md")
	require.Contains(t, out, "✓ Created .claude/commands/dbx-setup.md")
	require.Contains(t, out, "Databricks AI documentation scaffolding created!")
	require.Contains(t, out, "📚 Documentation: dbx_ai_docs/")
	require.Contains(t, out, "📝 Project overview: CLAUDE.md")
	require.Contains(t, out, "🤖 AI commands: .claude/commands/")
	require.Contains(t, out, "Next step: Run `/dbx-setup` to complete project configuration")
}

func TestScaffoldSkipsExistingRootDocumentWithoutInput(t *testing.T) {
	dir := t.TempDir()
	rootPath := filepath.Join(dir, "CLAUDE.md")
	require.NoError(t, os.WriteFile(rootPath, []byte("# Existing Project\n"), 0o644))

	out, err := executeCommand(t, "", "--dir", dir)
	require.NoError(t, err)
	require.Contains(t, out, "CLAUDE.md already exists, skipping...")

	data, err := os.ReadFile(rootPath)
	require.NoError(t, err)
	require.Equal(t, "# Existing Project\n", string(data))
}

func TestScaffoldMergesWhenUserAccepts(t *testing.T) {
	dir := t.TempDir()
	rootPath := filepath.Join(dir, "CLAUDE.md")
	require.NoError(t, os.WriteFile(rootPath, []byte("# Existing Project\n"), 0o644))

	out, err := executeCommand(t, "y\n", "--dir", dir)
	require.NoError(t, err)
	require.Contains(t, out, "[y/N]: ")
	require.Contains(t, out, "Added Databricks section to CLAUDE.md")

	data, err := os.ReadFile(rootPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "# Existing Project\n")
	require.Contains(t, string(data), "## Databricks Development Context")
}

func TestScaffoldYesIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	_, err := executeCommand(t, "", "--dir", dir, "--yes")
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(dir, "CLAUDE.md"))
	require.NoError(t, err)

	out, err := executeCommand(t, "", "--dir", dir, "--yes")
	require.NoError(t, err)
	require.Contains(t, out, "already contains Databricks context")
	require.Contains(t, out, "Replaced dbx_ai_docs/")

	second, err := os.ReadFile(filepath.Join(dir, "CLAUDE.md"))
	require.NoError(t, err)
	require.Equal(t, string(first), string(second))
}

func TestScaffoldMissingTemplatesFails(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")

	out, err := executeCommand(t, "", "--dir", t.TempDir(), "--templates", missing)
	require.Error(t, err)
	require.Contains(t, out, "❌ Template directory not found: "+missing)
	require.Contains(t, err.Error(), "Failed to scaffold")
}

func TestScaffoldGitRootUsesRepositoryRoot(t *testing.T) {
	repo := t.TempDir()
	_, err := git.PlainInit(repo, false)
	require.NoError(t, err)
	nested := filepath.Join(repo, "src", "pkg")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	_, err = executeCommand(t, "", "--dir", nested, "--git-root")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(repo, "CLAUDE.md"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(nested, "CLAUDE.md"))
	require.True(t, os.IsNotExist(err))
}

func TestScaffoldJSONReport(t *testing.T) {
	dir := t.TempDir()

	out, err := executeCommand(t, "", "--dir", dir, "--json")
	require.NoError(t, err)
	require.NotContains(t, out, "Copying template files")
	require.Contains(t, out, `"outcome": "created"`)
	require.Contains(t, out, `"path": "CLAUDE.md"`)
}
