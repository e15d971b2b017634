package emit

import (
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiml/bashrs-sub011/ir"
)

func TestEmitHasShebangAndPreamble(t *testing.T) {
	out, err := Emit(ir.Sequence{})
	require.NoError(t, err)
	lines := strings.Split(out, "\n")
	assert.Equal(t, "#!/bin/sh", lines[0])
	assert.Equal(t, "set -eu", lines[1])
	assert.True(t, strings.HasPrefix(out, "#!/bin/sh\nset -eu\nIFS="))
}

func TestEmitEndsWithSingleTrailingNewline(t *testing.T) {
	out, err := Emit(ir.Exec{Cmd: ir.NewCommand("true")})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "\n"))
	assert.False(t, strings.HasSuffix(out, "\n\n"))
}

func TestEmitAppendsExitZeroWhenMissing(t *testing.T) {
	out, err := Emit(ir.Exec{Cmd: ir.NewCommand("true")})
	require.NoError(t, err)
	assert.Contains(t, out, "\nexit 0\n")
}

func TestEmitDoesNotDuplicateExplicitExit(t *testing.T) {
	out, err := Emit(ir.Sequence{Items: []ir.ShellIR{ir.Exit{Code: 3}}})
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "exit "))
	assert.Contains(t, out, "exit 3")
}

func TestEmitAssignmentQuotesStringValue(t *testing.T) {
	out, err := Emit(ir.Let{Name: "x", Value: ir.String("hello world")})
	require.NoError(t, err)
	assert.Contains(t, out, "x='hello world'")
}

func TestEmitAssignmentIntegerUnquoted(t *testing.T) {
	out, err := Emit(ir.Let{Name: "n", Value: ir.String("42")})
	require.NoError(t, err)
	assert.Contains(t, out, "n=42\n")
}

func TestEmitVariableReadIsDoubleQuoted(t *testing.T) {
	out, err := Emit(ir.Echo{Value: ir.Variable{Name: "name"}})
	require.NoError(t, err)
	assert.Contains(t, out, `echo "$name"`)
}

func TestEmitArithmetic(t *testing.T) {
	out, err := Emit(ir.Let{Name: "x", Value: ir.Arithmetic{Op: ir.Add, Left: ir.String("1"), Right: ir.String("2")}})
	require.NoError(t, err)
	assert.Contains(t, out, "x=$((1 + 2))")
}

func TestEmitComparisonInIf(t *testing.T) {
	node := ir.If{
		Test: ir.Comparison{Op: ir.NumEq, Left: ir.Variable{Name: "x"}, Right: ir.String("1")},
		Then: ir.Sequence{Items: []ir.ShellIR{ir.Echo{Value: ir.String("one")}}},
	}
	out, err := Emit(node)
	require.NoError(t, err)
	assert.Contains(t, out, `if [ "$x" -eq 1 ]; then`)
	assert.Contains(t, out, "fi")
}

func TestEmitStringComparison(t *testing.T) {
	c, err := emitCondition(ir.Comparison{Op: ir.StrEq, Left: ir.Variable{Name: "a"}, Right: ir.String("b")})
	require.NoError(t, err)
	assert.Equal(t, `[ "$a" = 'b' ]`, c)
}

func TestEmitPositionalArgs(t *testing.T) {
	n := 2
	out, err := Emit(ir.Echo{Value: ir.Arg{Position: &n}})
	require.NoError(t, err)
	assert.Contains(t, out, `echo "$2"`)

	out, err = Emit(ir.Echo{Value: ir.Arg{Position: nil}})
	require.NoError(t, err)
	assert.Contains(t, out, `echo "$@"`)
}

func TestEmitArgWithDefaultAndArgCount(t *testing.T) {
	out, err := Emit(ir.Echo{Value: ir.ArgWithDefault{Position: 1, Default: "fallback"}})
	require.NoError(t, err)
	assert.Contains(t, out, `echo "${1:-fallback}"`)

	out, err = Emit(ir.Echo{Value: ir.ArgCount{}})
	require.NoError(t, err)
	assert.Contains(t, out, `echo "$#"`)
}

func TestEmitExitCodeUnquoted(t *testing.T) {
	out, err := Emit(ir.Echo{Value: ir.ExitCode{}})
	require.NoError(t, err)
	assert.Contains(t, out, "echo $?")
}

func TestEmitConcatInterpolation(t *testing.T) {
	out, err := Emit(ir.Echo{Value: ir.Concat{Parts: []ir.ShellValue{
		ir.String("hi "), ir.Variable{Name: "name"}, ir.String("!"),
	}}})
	require.NoError(t, err)
	assert.Contains(t, out, `echo "hi $name!"`)
}

func TestEmitCommandSubstAssignment(t *testing.T) {
	out, err := Emit(ir.Let{Name: "x", Value: ir.CommandSubst{Cmd: ir.NewCommand("date").WithArg(ir.String("+%s"))}})
	require.NoError(t, err)
	assert.Contains(t, out, "x=$(date '+%s')")
}

func TestEmitWhileLoop(t *testing.T) {
	out, err := Emit(ir.While{
		Condition: ir.Comparison{Op: ir.NumEq, Left: ir.Variable{Name: "x"}, Right: ir.String("0")},
		Body:      ir.Sequence{Items: []ir.ShellIR{ir.Break{}}},
	})
	require.NoError(t, err)
	assert.Contains(t, out, `while [ "$x" -eq 0 ]; do`)
	assert.Contains(t, out, "break")
	assert.Contains(t, out, "done")
}

func TestEmitForRange(t *testing.T) {
	out, err := Emit(ir.For{
		Var: "i", Start: ir.String("0"), End: ir.String("2"),
		Body: ir.Sequence{Items: []ir.ShellIR{ir.Echo{Value: ir.Variable{Name: "i"}}}},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "i=0")
	assert.Contains(t, out, `while [ "$i" -le 2 ]; do`)
	assert.Contains(t, out, "i=$((i + 1))")
}

func TestEmitForIn(t *testing.T) {
	out, err := Emit(ir.ForIn{
		Var:   "f",
		Items: []ir.ShellValue{ir.String("a"), ir.String("b")},
		Body:  ir.Sequence{Items: []ir.ShellIR{ir.Echo{Value: ir.Variable{Name: "f"}}}},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "for f in 'a' 'b'; do")
}

func TestEmitCase(t *testing.T) {
	out, err := Emit(ir.Case{
		Scrutinee: ir.Variable{Name: "x"},
		Arms: []ir.CaseArm{
			{Pattern: ir.LiteralPattern{Value: "a"}, Body: ir.Sequence{Items: []ir.ShellIR{ir.Echo{Value: ir.String("A")}}}},
			{Pattern: ir.WildcardPattern{}, Body: ir.Sequence{Items: []ir.ShellIR{ir.Echo{Value: ir.String("other")}}}},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, out, `case "$x" in`)
	assert.Contains(t, out, "a)")
	assert.Contains(t, out, "*)")
	assert.Contains(t, out, "esac")
}

func TestEmitFunctionDefinition(t *testing.T) {
	out, err := Emit(ir.Function{
		Name: "greet",
		Body: ir.Sequence{Items: []ir.ShellIR{ir.Echo{Value: ir.String("hi")}}},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "greet() {")
	assert.Contains(t, out, "}")
}

func TestEmitSkipsEmptyBuiltinShadow(t *testing.T) {
	out, err := Emit(ir.Sequence{Items: []ir.ShellIR{
		ir.Function{Name: "cd", Body: ir.Noop{}},
		ir.Exec{Cmd: ir.NewCommand("cd").WithArg(ir.String("/tmp"))},
	}})
	require.NoError(t, err)
	assert.NotContains(t, out, "cd() {")
	assert.Contains(t, out, "cd '/tmp'")
}

func TestEmitExitWithMessage(t *testing.T) {
	msg := "boom"
	out, err := Emit(ir.Exit{Code: 1, Message: &msg})
	require.NoError(t, err)
	assert.Contains(t, out, `echo "boom" >&2`)
	assert.Contains(t, out, "exit 1")
}

// TestEmitIsDeterministicAcrossRuns is §4.6.2's determinism property
// applied to the emitter itself: emitting the same IR twice must
// produce byte-identical output. The unified diff (go-difflib) is
// asserted empty, which also gives a readable failure message if a
// future change makes emission order-dependent.
func TestEmitIsDeterministicAcrossRuns(t *testing.T) {
	node := ir.Sequence{Items: []ir.ShellIR{
		ir.Let{Name: "x", Value: ir.String("1")},
		ir.If{
			Test: ir.Comparison{Op: ir.NumEq, Left: ir.Variable{Name: "x"}, Right: ir.String("1")},
			Then: ir.Exec{Cmd: ir.NewCommand("echo").WithArg(ir.String("one"))},
			Else: ir.Exec{Cmd: ir.NewCommand("echo").WithArg(ir.String("other"))},
		},
	}}

	first, err := Emit(node)
	require.NoError(t, err)
	second, err := Emit(node)
	require.NoError(t, err)

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(first),
		B:        difflib.SplitLines(second),
		FromFile: "run1",
		ToFile:   "run2",
		Context:  2,
	})
	require.NoError(t, err)
	assert.Empty(t, diff)
}
