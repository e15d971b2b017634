package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiml/bashrs-sub011/ast"
	"github.com/paiml/bashrs-sub011/ir"
	"github.com/paiml/bashrs-sub011/lint"
)

func TestPipelineCreation(t *testing.T) {
	p := New(LevelMinimal, false)
	assert.Equal(t, LevelMinimal, p.Level)
	assert.False(t, p.StrictMode)
}

func TestValidateASTNoneLevelSkipsChecks(t *testing.T) {
	p := New(LevelNone, false)
	a := ast.RestrictedAst{Functions: nil, EntryPoint: "main"}
	assert.NoError(t, p.ValidateAST(a))
}

func TestValidateASTWithStatements(t *testing.T) {
	p := New(LevelMinimal, false)
	a := ast.RestrictedAst{
		Functions: []ast.Function{{
			Name: "main",
			Body: []ast.Stmt{
				ast.Let{Name: "x", Value: ast.Literal{Kind: ast.LitU32, Num: 42}},
				ast.ExprStmt{X: ast.Variable{Name: "x"}},
			},
		}},
		EntryPoint: "main",
	}
	assert.NoError(t, p.ValidateAST(a))
}

func TestValidateIRNoneLevel(t *testing.T) {
	p := New(LevelNone, false)
	assert.NoError(t, p.ValidateIR(ir.Noop{}))
}

func TestValidateIRSequence(t *testing.T) {
	p := New(LevelMinimal, false)
	node := ir.Sequence{Items: []ir.ShellIR{
		ir.Let{Name: "x", Value: ir.String("42")},
		ir.Exec{Cmd: ir.NewCommand("echo").WithArg(ir.Variable{Name: "x"})},
	}}
	assert.NoError(t, p.ValidateIR(node))
}

func TestValidateBackticksError(t *testing.T) {
	p := New(LevelMinimal, false)
	value := ir.CommandSubst{Cmd: ir.NewCommand("echo `date`")}
	err := p.ValidateShellValue(value)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SC2006")
}

func TestValidateIfStatement(t *testing.T) {
	p := New(LevelMinimal, false)
	node := ir.If{
		Test: ir.String("true"),
		Then: ir.Noop{},
		Else: ir.Noop{},
	}
	assert.NoError(t, p.ValidateIR(node))
}

func TestValidateOutputNoneLevel(t *testing.T) {
	p := New(LevelNone, false)
	assert.NoError(t, p.ValidateOutput("#!/bin/sh\necho hello"))
}

func TestValidateOutputRejectsMissingTrailingNewline(t *testing.T) {
	p := New(LevelMinimal, false)
	err := p.ValidateOutput("#!/bin/sh\necho hello")
	require.Error(t, err)
}

func TestValidateOutputAcceptsWellFormed(t *testing.T) {
	p := New(LevelMinimal, false)
	assert.NoError(t, p.ValidateOutput("#!/bin/sh\nset -eu\necho hello\n"))
}

func TestValidateOutputRejectsBOM(t *testing.T) {
	p := New(LevelMinimal, false)
	err := p.ValidateOutput("\xef\xbb\xbf#!/bin/sh\necho hi\n")
	require.Error(t, err)
}

func TestValidateOutputRejectsBareEval(t *testing.T) {
	p := New(LevelMinimal, false)
	err := p.ValidateOutput("#!/bin/sh\neval \"$CMD\"\n")
	require.Error(t, err)
}

func TestReportErrorStrictMode(t *testing.T) {
	p := New(LevelMinimal, true)
	err := &Error{Rule: "SC2086", Message: "Double quote", Severity: lint.Error}
	msg := p.ReportError(err)
	assert.True(t, len(msg) >= 6 && msg[:6] == "ERROR:")
}

func TestReportErrorNonStrict(t *testing.T) {
	p := New(LevelMinimal, false)
	err := &Error{Rule: "SC2086", Message: "Double quote", Severity: lint.Warning}
	msg := p.ReportError(err)
	assert.False(t, len(msg) >= 6 && msg[:6] == "ERROR:")
}

func TestShouldFailStrictMode(t *testing.T) {
	p := New(LevelMinimal, true)
	errors := []*Error{{Rule: "SC2086", Message: "Double quote", Severity: lint.Warning}}
	assert.True(t, p.ShouldFail(errors))
}

func TestShouldFailNonStrictWithError(t *testing.T) {
	p := New(LevelMinimal, false)
	errors := []*Error{{Rule: "SC2086", Message: "Double quote", Severity: lint.Error}}
	assert.True(t, p.ShouldFail(errors))
}

func TestShouldNotFailNonStrictWithWarning(t *testing.T) {
	p := New(LevelMinimal, false)
	errors := []*Error{{Rule: "SC2086", Message: "Double quote", Severity: lint.Warning}}
	assert.False(t, p.ShouldFail(errors))
}

func TestValidateConcatShellValue(t *testing.T) {
	p := New(LevelMinimal, false)
	value := ir.Concat{Parts: []ir.ShellValue{
		ir.String("Hello "),
		ir.Variable{Name: "name"},
	}}
	assert.NoError(t, p.ValidateShellValue(value))
}

func TestValidateIfWithComplexBranches(t *testing.T) {
	p := New(LevelMinimal, false)
	a := ast.RestrictedAst{
		Functions: []ast.Function{{
			Name: "main",
			Body: []ast.Stmt{ast.If{
				Cond: ast.Literal{Kind: ast.LitBool, Bool: true},
				Then: []ast.Stmt{ast.Let{Name: "x", Value: ast.Literal{Kind: ast.LitU32, Num: 1}}},
				Else: []ast.Stmt{ast.Let{Name: "y", Value: ast.Literal{Kind: ast.LitU32, Num: 2}}},
			}},
		}},
		EntryPoint: "main",
	}
	assert.NoError(t, p.ValidateAST(a))
}
