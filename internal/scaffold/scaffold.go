// Package scaffold copies the bundled AI documentation into a project.
//
// Three artifacts are handled: the root CLAUDE.md brief, the dbx_ai_docs/
// documentation tree and the .claude/commands/ command definitions. Each
// goes through the same decision: create when absent, otherwise ask and
// either update or skip.
package scaffold

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/alexisbeaulieu97/dbx-aidev/internal/logger"
	"github.com/alexisbeaulieu97/dbx-aidev/internal/templates"
	apperrors "github.com/alexisbeaulieu97/dbx-aidev/pkg/errors"
)

const (
	RootDocument = "CLAUDE.md"
	DocsDir      = "dbx_ai_docs"
	CommandsDir  = ".claude/commands"
)

// Outcome describes what happened to one artifact or file.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeMerged    Outcome = "merged"
	OutcomeReplaced  Outcome = "replaced"
	OutcomeUnchanged Outcome = "unchanged"
)

// Artifact identifies one of the three scaffolded pieces.
type Artifact string

const (
	ArtifactRoot     Artifact = "root"
	ArtifactDocs     Artifact = "docs"
	ArtifactCommands Artifact = "commands"
)

// Action records a single change (or non-change) made during Run.
type Action struct {
	Artifact Artifact `json:"artifact"`
	Path     string   `json:"path"`
	Outcome  Outcome  `json:"outcome"`
	Detail   string   `json:"detail,omitempty"`
}

// Report collects every Action in the order it happened.
type Report struct {
	Dir     string   `json:"dir"`
	Actions []Action `json:"actions"`
}

// Created lists the display paths of files that were newly written.
func (r Report) Created() []string {
	var paths []string
	for _, a := range r.Actions {
		if a.Outcome == OutcomeCreated {
			paths = append(paths, a.Path)
		}
	}
	return paths
}

// Options configures Run.
type Options struct {
	// Templates is the template tree. Defaults to the bundled templates.
	Templates fs.FS
	// Dir is the project directory. Defaults to ".".
	Dir      string
	Prompter Prompter
	Logger   *logger.Logger
	// Observer receives each Action as it is recorded.
	Observer func(Action)
}

type runner struct {
	fsys     fs.FS
	dir      string
	prompter Prompter
	log      *logger.Logger
	observer func(Action)
	report   Report
}

// Run scaffolds the three artifacts into opts.Dir.
func Run(opts Options) (Report, error) {
	fsys := opts.Templates
	if fsys == nil {
		fsys = templates.Bundled()
	}
	if _, err := fs.Stat(fsys, "."); err != nil {
		return Report{}, apperrors.NewTemplateError(".", err)
	}

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, defaultDirMode); err != nil {
		return Report{}, fmt.Errorf("create project directory: %w", err)
	}

	prompter := opts.Prompter
	if prompter == nil {
		prompter = AnswerAll(false)
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := &runner{
		fsys:     fsys,
		dir:      dir,
		prompter: prompter,
		log:      log.Component("scaffold").With("dir", dir),
		observer: opts.Observer,
		report:   Report{Dir: dir},
	}

	steps := []func() error{r.rootDocument, r.docs, r.commands}
	for _, step := range steps {
		if err := step(); err != nil {
			return r.report, err
		}
	}

	return r.report, nil
}

func (r *runner) record(a Action) {
	r.report.Actions = append(r.report.Actions, a)
	r.log.Debug("scaffold action", "artifact", a.Artifact, "path", a.Path, "outcome", a.Outcome)
	if r.observer != nil {
		r.observer(a)
	}
}

// artifact parameterises decide for one scaffolded piece.
type artifact struct {
	exists func() (bool, error)
	prompt string
	create func() error
	update func() error
	// skip is recorded when the user declines the prompt.
	skip func()
}

// decide runs the create / prompt / update-or-skip flow shared by every artifact.
func decide(a artifact, prompter Prompter) error {
	exists, err := a.exists()
	if err != nil {
		return err
	}
	if !exists {
		return a.create()
	}

	ok, err := prompter.Confirm(a.prompt)
	if err != nil {
		return fmt.Errorf("prompt: %w", err)
	}
	if !ok {
		a.skip()
		return nil
	}
	return a.update()
}

func (r *runner) rootDocument() error {
	if !templateExists(r.fsys, RootDocument) {
		r.log.Warn("template missing, skipping", "path", RootDocument)
		return nil
	}
	target := filepath.Join(r.dir, RootDocument)

	return decide(artifact{
		exists: func() (bool, error) { return pathExists(target) },
		prompt: RootDocument + " already exists. Add the Databricks development section to it?",
		create: func() error {
			if err := copyFile(r.fsys, RootDocument, target, false); err != nil {
				return fmt.Errorf("create %s: %w", RootDocument, err)
			}
			r.record(Action{Artifact: ArtifactRoot, Path: RootDocument, Outcome: OutcomeCreated})
			return nil
		},
		update: func() error {
			outcome, err := r.mergeRootDocument(target)
			if err != nil {
				return err
			}
			r.record(Action{Artifact: ArtifactRoot, Path: RootDocument, Outcome: outcome})
			return nil
		},
		skip: func() {
			r.record(Action{Artifact: ArtifactRoot, Path: RootDocument, Outcome: OutcomeSkipped})
		},
	}, r.prompter)
}

func (r *runner) docs() error {
	if !templateExists(r.fsys, DocsDir) {
		r.log.Warn("template missing, skipping", "path", DocsDir)
		return nil
	}
	target := filepath.Join(r.dir, DocsDir)
	display := DocsDir + "/"

	copyDocs := func(outcome Outcome) error {
		copied, err := copyTree(r.fsys, DocsDir, target)
		if err != nil {
			return err
		}
		r.record(Action{
			Artifact: ArtifactDocs,
			Path:     display,
			Outcome:  outcome,
			Detail:   fmt.Sprintf("%d files", len(copied)),
		})
		return nil
	}

	return decide(artifact{
		exists: func() (bool, error) { return pathExists(target) },
		prompt: display + " already exists. Replace it with the bundled documentation?",
		create: func() error { return copyDocs(OutcomeCreated) },
		update: func() error {
			if err := os.RemoveAll(target); err != nil {
				return fmt.Errorf("remove %s: %w", display, err)
			}
			return copyDocs(OutcomeReplaced)
		},
		skip: func() {
			r.record(Action{Artifact: ArtifactDocs, Path: display, Outcome: OutcomeSkipped})
		},
	}, r.prompter)
}

// commands fills .claude/commands/. An empty directory is filled without
// asking; otherwise one prompt covers the batch and files already present
// are never overwritten.
func (r *runner) commands() error {
	if !templateExists(r.fsys, CommandsDir) {
		r.log.Warn("template missing, skipping", "path", CommandsDir)
		return nil
	}
	target := filepath.Join(r.dir, filepath.FromSlash(CommandsDir))
	if err := os.MkdirAll(target, defaultDirMode); err != nil {
		return fmt.Errorf("create %s: %w", CommandsDir, err)
	}

	return decide(artifact{
		exists: func() (bool, error) { return hasFiles(target) },
		prompt: CommandsDir + "/ already contains files. Add missing AI command files?",
		create: func() error { return r.copyCommands(target) },
		update: func() error { return r.copyCommands(target) },
		skip: func() {
			r.record(Action{Artifact: ArtifactCommands, Path: CommandsDir + "/", Outcome: OutcomeSkipped})
		},
	}, r.prompter)
}

func (r *runner) copyCommands(target string) error {
	entries, err := fs.ReadDir(r.fsys, CommandsDir)
	if err != nil {
		return apperrors.NewTemplateError(CommandsDir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		src := displayPath(CommandsDir, name)
		dst := filepath.Join(target, name)

		exists, err := pathExists(dst)
		if err != nil {
			return err
		}
		if exists {
			r.record(Action{
				Artifact: ArtifactCommands,
				Path:     src,
				Outcome:  OutcomeSkipped,
				Detail:   r.drift(src, dst),
			})
			continue
		}

		if err := copyFile(r.fsys, src, dst, false); err != nil {
			return fmt.Errorf("create %s: %w", src, err)
		}
		r.record(Action{Artifact: ArtifactCommands, Path: src, Outcome: OutcomeCreated})
	}

	return nil
}
