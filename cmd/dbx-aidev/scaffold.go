package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/dbx-aidev/internal/logger"
	"github.com/alexisbeaulieu97/dbx-aidev/internal/scaffold"
	apperrors "github.com/alexisbeaulieu97/dbx-aidev/pkg/errors"
)

type scaffoldOptions struct {
	yes       bool
	dir       string
	gitRoot   bool
	templates string
}

func runScaffold(cmd *cobra.Command, flags *rootFlags, opts *scaffoldOptions) error {
	out := cmd.OutOrStdout()

	log, err := newLogger(cmd, flags)
	if err != nil {
		return err
	}

	dir := opts.dir
	if opts.gitRoot {
		root, err := scaffold.RepositoryRoot(dir)
		if err != nil {
			return newCommandError("scaffold", "locating the git repository root", err, "Run inside a git repository or drop --git-root.")
		}
		dir = root
	}

	var templates fs.FS
	if opts.templates != "" {
		templates = os.DirFS(opts.templates)
	}

	var prompter scaffold.Prompter = scaffold.NewLinePrompter(cmd.InOrStdin(), out)
	if opts.yes {
		prompter = scaffold.AnswerAll(true)
	}

	options := scaffold.Options{
		Templates: templates,
		Dir:       dir,
		Prompter:  prompter,
		Logger:    log,
	}
	if !flags.jsonOutput {
		fmt.Fprintln(out, "📁 Copying template files...")
		options.Observer = func(a scaffold.Action) { printAction(out, a) }
	}

	report, err := scaffold.Run(options)
	if err != nil {
		var templateErr *apperrors.TemplateError
		if errors.As(err, &templateErr) {
			location := opts.templates
			if location == "" {
				location = "bundled templates"
			}
			if !flags.jsonOutput {
				fmt.Fprintf(out, "❌ Template directory not found: %s\n", location)
			}
			return newCommandError("scaffold", "reading templates", err, "Check the --templates directory.")
		}
		return newCommandError("scaffold", fmt.Sprintf("writing into %s", dir), err, "Check that you have write access to the project directory.")
	}

	if flags.jsonOutput {
		return writeJSON(out, report)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, successStyle.Render("✅ Databricks AI documentation scaffolding created!"))
	fmt.Fprintln(out, "📚 Documentation: dbx_ai_docs/")
	fmt.Fprintln(out, "📝 Project overview: CLAUDE.md")
	fmt.Fprintln(out, "🤖 AI commands: .claude/commands/")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "🚀 Next step: Run `/dbx-setup` to complete project configuration")
	return nil
}

func printAction(out io.Writer, a scaffold.Action) {
	switch a.Outcome {
	case scaffold.OutcomeCreated:
		fmt.Fprintf(out, "  ✓ Created %s\n", a.Path)
	case scaffold.OutcomeMerged:
		fmt.Fprintf(out, "  ✓ Added Databricks section to %s\n", a.Path)
	case scaffold.OutcomeReplaced:
		fmt.Fprintf(out, "  ✓ Replaced %s\n", a.Path)
	case scaffold.OutcomeUnchanged:
		fmt.Fprintf(out, "📝 %s already contains Databricks context, skipping...\n", a.Path)
	case scaffold.OutcomeSkipped:
		fmt.Fprintf(out, "%s %s already exists, skipping...%s\n", artifactIcon(a.Artifact), a.Path, detailSuffix(a.Detail))
	}
}

func artifactIcon(artifact scaffold.Artifact) string {
	switch artifact {
	case scaffold.ArtifactRoot:
		return "📝"
	case scaffold.ArtifactDocs:
		return "📚"
	default:
		return "🤖"
	}
}

func detailSuffix(detail string) string {
	if detail == "" || detail == "identical" {
		return ""
	}
	return mutedStyle.Render(fmt.Sprintf(" (differs from template: %s)", detail))
}

func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// newLogger writes human-readable entries to stderr; --verbose enables debug.
func newLogger(cmd *cobra.Command, flags *rootFlags) (*logger.Logger, error) {
	level := "warn"
	if flags.verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Level: level, HumanReadable: true, Writer: cmd.ErrOrStderr()})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log, nil
}
