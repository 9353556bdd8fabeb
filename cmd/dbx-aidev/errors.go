package main

import (
	"errors"
	"fmt"

	"github.com/alexisbeaulieu97/dbx-aidev/internal/execution"
	"github.com/alexisbeaulieu97/dbx-aidev/internal/workspace"
	apperrors "github.com/alexisbeaulieu97/dbx-aidev/pkg/errors"
)

func newCommandError(operation, context string, cause error, suggestion string) error {
	return &commandError{operation: operation, context: context, cause: cause, suggestion: suggestion}
}

type commandError struct {
	operation  string
	context    string
	cause      error
	suggestion string
}

func (e *commandError) Error() string {
	return fmt.Sprintf("Failed to %s: %s\n\nError: %v\n\nSuggestion: %s", e.operation, e.context, e.cause, e.suggestion)
}

func (e *commandError) Unwrap() error {
	return e.cause
}

// resultError turns an unsuccessful execution status into a command error.
func resultError(operation string, status execution.Status, execErr *apperrors.ExecutionError) error {
	if status == execution.StatusSuccess {
		return nil
	}

	var cause error = errors.New(string(status))
	suggestion := "Check the run in the workspace UI for details."
	if execErr != nil {
		cause = execErr
		suggestion = suggestionFor(execErr.Kind)
	}
	return newCommandError(operation, fmt.Sprintf("finished with status %s", status), cause, suggestion)
}

func suggestionFor(kind apperrors.ErrorKind) string {
	switch kind {
	case apperrors.KindTimeout:
		return "Increase --timeout or check that the compute resource is running."
	case apperrors.KindTransport:
		return "Check the workspace host, your token, and network connectivity."
	case apperrors.KindFileNotFound, apperrors.KindFileRead:
		return "Check that the file exists and you have permission to read it."
	case apperrors.KindInvalidRequest:
		return "Check the command arguments and flags."
	case apperrors.KindCancelled:
		return "The command was interrupted; run it again to retry."
	case apperrors.KindUnknownState:
		return "The platform reported an unexpected state; check the run in the workspace UI."
	default:
		return "Fix the error reported by the platform and try again."
	}
}

func credentialError(operation string, err error) error {
	suggestion := "Check the --profile, --host and --token flags."
	if errors.Is(err, workspace.ErrNoCredentials) {
		suggestion = "Pass --profile, set DATABRICKS_HOST and DATABRICKS_TOKEN, or add a DEFAULT profile to ~/.databrickscfg."
	}
	return newCommandError(operation, "resolving workspace credentials", err, suggestion)
}
