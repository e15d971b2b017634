// Package bashrs is the top-level compiler core (§6.1): a Rust-subset
// transpiler, a bash purifier, a pluggable linter, and a validation
// pipeline, wired together from the ast/bash-syntax/purify/ir/
// irbuilder/optimizer/verify/emit/validate/lint packages. This is the
// module's only consumed contract surface — the CLI, REPL, and
// coverage-rendering adapters named out of scope by spec.md §1 sit on
// top of it, not inside it.
package bashrs

import (
	"fmt"

	"github.com/paiml/bashrs-sub011/ast"
	"github.com/paiml/bashrs-sub011/bash/syntax"
	"github.com/paiml/bashrs-sub011/emit"
	"github.com/paiml/bashrs-sub011/ir"
	"github.com/paiml/bashrs-sub011/irbuilder"
	"github.com/paiml/bashrs-sub011/lint"
	"github.com/paiml/bashrs-sub011/optimizer"
	"github.com/paiml/bashrs-sub011/purify"
	"github.com/paiml/bashrs-sub011/validate"
	"github.com/paiml/bashrs-sub011/verify"
)

// Dialect selects the target shell dialect (§6.1). Every dialect below
// POSIX is emitted identically today — emit.Emit produces portable
// POSIX text by construction — but the field is carried through Config
// since the spec names it as part of the contract a future
// dialect-specific emitter backend would dispatch on.
type Dialect int

const (
	Posix Dialect = iota
	Bash
	Dash
	Ash
)

// Config controls one transpile call (§6.1's "Config fields").
type Config struct {
	TargetDialect     Dialect
	VerificationLevel verify.Thresholds
	Optimize          bool
	EmitProof         bool
	StrictMode        bool
	ValidationLevel   validate.Level
}

// DefaultConfig matches a plain `rash build` invocation: optimization
// on, minimal validation, no strict mode, default verification
// thresholds.
func DefaultConfig() Config {
	return Config{
		TargetDialect:     Posix,
		VerificationLevel: verify.DefaultThresholds(),
		Optimize:          true,
		ValidationLevel:   validate.LevelMinimal,
	}
}

// Transpile lowers Rust-subset source through the full Rust path:
// parse → validate → IR → optimize → verify → emit (§2's "Data flow
// (Rust path)").
func Transpile(source string, cfg Config) (string, error) {
	prog, err := ast.Parse(source)
	if err != nil {
		return "", fmt.Errorf("parse: %w", err)
	}

	pipeline := validate.New(cfg.ValidationLevel, cfg.StrictMode)
	if err := pipeline.ValidateAST(prog); err != nil {
		return "", fmt.Errorf("validate: %w", err)
	}

	node, err := irbuilder.Build(prog)
	if err != nil {
		return "", fmt.Errorf("lower: %w", err)
	}

	if cfg.Optimize {
		node = optimizer.Run(node)
	}

	if err := pipeline.ValidateIR(node); err != nil {
		return "", fmt.Errorf("validate: %w", err)
	}

	if err := verify.AllWithThresholds(node, cfg.VerificationLevel); err != nil {
		return "", fmt.Errorf("verify: %w", err)
	}

	out, err := emit.Emit(node)
	if err != nil {
		return "", fmt.Errorf("emit: %w", err)
	}

	if err := pipeline.ValidateOutput(out); err != nil {
		return "", fmt.Errorf("validate: %w", err)
	}

	return out, nil
}

// Purify runs the bash path: lex/parse → purify → print back to bash
// text (§2's "Data flow (Bash path)": "source → lex → Bash-AST →
// purify → [optionally emit back as bash] → lint → output").
func Purify(source string, options purify.Options) (string, *purify.Report, error) {
	prog, err := syntax.NewParser(source).Parse()
	if err != nil {
		return "", nil, fmt.Errorf("parse: %w", err)
	}

	p := purify.New(options)
	purified, report, err := p.Purify(prog)
	if err != nil {
		return "", nil, fmt.Errorf("purify: %w", err)
	}

	return syntax.Print(purified), report, nil
}

// Lint runs the rule engine over source, dispatched by kind and
// filtered by profile (§6.1).
func Lint(source string, kind lint.ArtifactKind, profile lint.LintProfile) (lint.LintResult, error) {
	return lint.Lint(source, kind, profile)
}

// ValidateAST, ValidateIR, and ValidateOutput together are the
// standalone entry point onto the validation pipeline (§6.1's
// "validate(ast|ir|output, level, strict) → LintResult"), split into
// three typed functions since Go has no sum-typed input parameter for
// "ast|ir|output". Each wraps a fresh Pipeline at the given
// level/strict pair and translates its single *validate.Error into a
// lint.LintResult, so CLI-layer consumers see the one shared
// diagnostic shape §3.5 describes for both the linter and the
// validation pipeline.
func ValidateAST(prog ast.RestrictedAst, level validate.Level, strict bool) lint.LintResult {
	return toLintResult(validate.New(level, strict).ValidateAST(prog))
}

// ValidateIR runs the pipeline's IR-level checks (backtick rejection,
// control-flow sanity) at level/strict.
func ValidateIR(node ir.ShellIR, level validate.Level, strict bool) lint.LintResult {
	return toLintResult(validate.New(level, strict).ValidateIR(node))
}

// ValidateOutput runs the pipeline's output-text checks (shebang,
// trailing newline, no bare eval, no UTF-8 BOM) at level/strict.
func ValidateOutput(output string, level validate.Level, strict bool) lint.LintResult {
	return toLintResult(validate.New(level, strict).ValidateOutput(output))
}

func toLintResult(err error) lint.LintResult {
	var result lint.LintResult
	if err == nil {
		return result
	}
	ve, ok := err.(*validate.Error)
	if !ok {
		result.Add(lint.Diagnostic{Code: "VALIDATE", Severity: lint.Error, Message: err.Error(), Span: lint.NewSpan(1, 1, 1)})
		return result
	}
	sev := ve.Severity
	line, col := 1, 1
	if ve.Line != nil {
		line = *ve.Line
	}
	if ve.Column != nil {
		col = *ve.Column
	}
	result.Add(lint.Diagnostic{Code: ve.Rule, Severity: sev, Message: ve.Message, Span: lint.NewSpan(line, col, col)})
	return result
}
