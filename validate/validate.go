// Package validate runs the staged AST/IR/output validation pipeline
// of §4.9: structural AST checks, IR checks (including backtick
// rejection), and output-text checks (shebang, trailing newline, no
// bare eval, no UTF-8 BOM), gated by a configurable Level and
// promoted to hard failures under strict_mode. Grounded on
// original_source/rash/src/validation/pipeline_tests.rs, which exists
// only as a test module in the retrieved pack — the `Pipeline`
// type and its methods below are reconstructed from that file's call
// patterns (pipeline.validate_ast/validate_ir/validate_shell_value/
// validate_output/report_error/should_fail), not copied from a source
// file the pack doesn't include.
package validate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/paiml/bashrs-sub011/ast"
	"github.com/paiml/bashrs-sub011/ir"
	"github.com/paiml/bashrs-sub011/lint"
)

// Level gates how much checking the pipeline performs (§4.9).
type Level int

const (
	LevelNone Level = iota
	LevelMinimal
	LevelStrict
	LevelParanoid
)

// Error is one validation finding, mirroring the Rust original's
// ValidationError{rule, message, severity, suggestion, auto_fix, line,
// column} fields (pipeline_tests.rs).
type Error struct {
	Rule       string
	Message    string
	Severity   lint.Severity
	Suggestion *string
	AutoFix    *string
	Line       *int
	Column     *int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Rule, e.Message)
}

// Phase identifies this package's stage in the compile pipeline (§7).
func (e *Error) Phase() string { return "validate" }

// Pipeline runs validation at a fixed Level/StrictMode pair.
type Pipeline struct {
	Level      Level
	StrictMode bool
}

// New builds a Pipeline, grounded on pipeline_tests.rs's
// create_test_pipeline(level, strict).
func New(level Level, strict bool) Pipeline {
	return Pipeline{Level: level, StrictMode: strict}
}

// ValidateAST runs structural checks over a, delegating to the AST's
// own Validate() (entry-point existence, expression depth, recursion)
// at every level above None.
func (p Pipeline) ValidateAST(a ast.RestrictedAst) error {
	if p.Level == LevelNone {
		return nil
	}
	if err := a.Validate(); err != nil {
		return &Error{Rule: "ast-structural", Message: err.Error(), Severity: lint.Error}
	}
	return nil
}

// ValidateIR walks node and rejects backtick command substitution in
// Let values and Exec commands. It checks nothing else: control-flow
// structure (loops, conditions, case arms, break/continue placement) is
// not examined.
func (p Pipeline) ValidateIR(node ir.ShellIR) error {
	if p.Level == LevelNone {
		return nil
	}
	return walkIR(node, func(n ir.ShellIR) error {
		switch x := n.(type) {
		case ir.Let:
			return p.ValidateShellValue(x.Value)
		case ir.Exec:
			return p.validateCommand(x.Cmd)
		}
		return nil
	})
}

func (p Pipeline) validateCommand(cmd ir.Command) error {
	if err := validateBackticks(cmd.Program); err != nil {
		return err
	}
	for _, arg := range cmd.Args {
		if err := p.ValidateShellValue(arg); err != nil {
			return err
		}
	}
	return nil
}

// ValidateShellValue rejects backtick command substitution inside v,
// recursing through Concat, grounded on pipeline_tests.rs's
// test_validate_backticks_error (SC2006).
func (p Pipeline) ValidateShellValue(v ir.ShellValue) error {
	switch x := v.(type) {
	case ir.CommandSubst:
		return validateBackticks(x.Cmd.Program)
	case ir.Concat:
		for _, part := range x.Parts {
			if err := p.ValidateShellValue(part); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateBackticks(program string) error {
	if strings.Contains(program, "`") {
		return &Error{
			Rule:     "SC2006",
			Message:  "use $(...) instead of backticks for command substitution",
			Severity: lint.Error,
		}
	}
	return nil
}

// ValidateOutput checks emitted POSIX text for a leading shebang, a
// trailing newline (more than one is not rejected), the absence of a
// bare `eval` word, the absence of a UTF-8 byte-order mark, and valid
// UTF-8 (§4.9).
func (p Pipeline) ValidateOutput(output string) error {
	if p.Level == LevelNone {
		return nil
	}
	if strings.HasPrefix(output, "\xef\xbb\xbf") {
		return &Error{Rule: "output-bom", Message: "output must not start with a UTF-8 BOM", Severity: lint.Error}
	}
	if !strings.HasPrefix(output, "#!/bin/sh") && !strings.HasPrefix(output, "#!") {
		return &Error{Rule: "output-shebang", Message: "output must start with a shebang line", Severity: lint.Error}
	}
	if !strings.HasSuffix(output, "\n") {
		return &Error{Rule: "output-trailing-newline", Message: "output must end with a trailing newline", Severity: lint.Error}
	}
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "eval" || strings.HasPrefix(trimmed, "eval ") {
			return &Error{Rule: "output-no-eval", Message: "output must not contain a bare eval", Severity: lint.Error}
		}
	}
	if !utf8.ValidString(output) {
		return &Error{Rule: "output-utf8", Message: "output must be valid UTF-8", Severity: lint.Error}
	}
	return nil
}

// ReportError formats e for display, grounded on
// test_report_error_strict_mode/test_report_error_non_strict: strict
// mode (or an Error-severity finding) renders as "ERROR: ...";
// anything else renders at its own severity label.
func (p Pipeline) ReportError(e *Error) string {
	sev := e.Severity
	if p.StrictMode {
		sev = lint.Error
	}
	return fmt.Sprintf("%s: [%s] %s", strings.ToUpper(sev.String()), e.Rule, e.Message)
}

// ShouldFail reports whether errors should abort the pipeline: any
// Error-severity finding always fails it, and in strict mode any
// finding at all does (warnings are promoted to errors), grounded on
// test_should_fail_strict_mode/test_should_fail_non_strict_with_error/
// test_should_not_fail_non_strict_with_warning.
func (p Pipeline) ShouldFail(errors []*Error) bool {
	if p.StrictMode && len(errors) > 0 {
		return true
	}
	for _, e := range errors {
		if e.Severity == lint.Error {
			return true
		}
	}
	return false
}

// walkIR visits node and every descendant reachable through this
// module's control-flow IR kinds.
func walkIR(node ir.ShellIR, visit func(ir.ShellIR) error) error {
	if node == nil {
		return nil
	}
	if err := visit(node); err != nil {
		return err
	}
	switch n := node.(type) {
	case ir.If:
		if err := walkIR(n.Then, visit); err != nil {
			return err
		}
		return walkIR(n.Else, visit)
	case ir.Sequence:
		for _, item := range n.Items {
			if err := walkIR(item, visit); err != nil {
				return err
			}
		}
	case ir.Function:
		return walkIR(n.Body, visit)
	case ir.For:
		return walkIR(n.Body, visit)
	case ir.ForIn:
		return walkIR(n.Body, visit)
	case ir.While:
		return walkIR(n.Body, visit)
	case ir.Case:
		for _, arm := range n.Arms {
			if err := walkIR(arm.Body, visit); err != nil {
				return err
			}
		}
	}
	return nil
}
