package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/mulcheck/internal/config"
	"github.com/roach88/mulcheck/internal/engine"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	File     string            `json:"file"`
	Errors   []ValidationIssue `json:"errors,omitempty"`
	Warnings []ValidationIssue `json:"warnings,omitempty"`
	Config   *config.Config    `json:"config,omitempty"`
}

// ValidationIssue is one problem found in a configuration file.
type ValidationIssue struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a bench configuration without running",
		Long: `Validate a bench configuration file against the schema.

Unknown diagnostic or colour modes are reported as warnings: a run would
fall back to the default. Schema violations are errors.

Exit codes:
  0 - Valid (possibly with warnings)
  2 - Invalid`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	result := ValidationResult{File: path}

	cfg, err := config.Load(path)
	if err != nil {
		result.Errors = append(result.Errors, issueFrom(err))
		return outputValidate(formatter, result)
	}

	for _, w := range cfg.Normalize() {
		result.Warnings = append(result.Warnings, issueFrom(w))
	}

	settings, err := cfg.Settings()
	if err == nil {
		err = settings.Validate(false)
	}
	if err != nil {
		result.Errors = append(result.Errors, issueFrom(err))
		return outputValidate(formatter, result)
	}

	result.Valid = true
	result.Config = cfg
	return outputValidate(formatter, result)
}

func issueFrom(err error) ValidationIssue {
	var ce *config.ConfigError
	if errors.As(err, &ce) {
		issue := ValidationIssue{Code: ce.Code, Field: ce.Field, Value: ce.Value, Message: ce.Message}
		if ce.Pos.IsValid() {
			issue.Line, issue.Column = ce.Pos.Line(), ce.Pos.Column()
		}
		return issue
	}
	var se *engine.SettingsError
	if errors.As(err, &se) {
		return ValidationIssue{Code: string(se.Code), Field: se.Field, Message: se.Message}
	}
	return ValidationIssue{Code: "CONFIG_INVALID", Message: err.Error()}
}

func outputValidate(f *OutputFormatter, result ValidationResult) error {
	if f.JSON() {
		if err := f.Success(result); err != nil {
			return err
		}
	} else {
		writeValidateText(f.Writer, result)
	}

	if !result.Valid {
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %d error(s)", result.File, len(result.Errors)))
	}
	return nil
}

func writeValidateText(w io.Writer, result ValidationResult) {
	for _, e := range result.Errors {
		fmt.Fprintf(w, "error   %s\n", formatIssue(result.File, e))
	}
	for _, e := range result.Warnings {
		fmt.Fprintf(w, "warning %s\n", formatIssue(result.File, e))
	}
	if result.Valid {
		fmt.Fprintf(w, "✓ %s is valid\n", result.File)
	}
}

func formatIssue(file string, i ValidationIssue) string {
	loc := file
	if i.Line > 0 {
		loc = fmt.Sprintf("%s:%d:%d", file, i.Line, i.Column)
	}
	s := fmt.Sprintf("%s: [%s] %s", loc, i.Code, i.Message)
	if i.Field != "" {
		s += fmt.Sprintf(" (field=%s", i.Field)
		if i.Value != "" {
			s += fmt.Sprintf(", value=%q", i.Value)
		}
		s += ")"
	}
	return s
}
