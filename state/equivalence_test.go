package state

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiml/bashrs-sub011/ir"
)

func TestEvalRashSetEnvAndExec(t *testing.T) {
	node := ir.Sequence{Items: []ir.ShellIR{
		ir.Let{Name: "GREETING", Value: ir.String("hello")},
		ir.Exec{Cmd: ir.NewCommand("echo").WithArg(ir.Variable{Name: "GREETING"})},
	}}

	got, err := EvalRash(node, New())
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Env["GREETING"])
	assert.Equal(t, []string{"hello"}, got.Stdout)
}

func TestEvalRashChangeDirectory(t *testing.T) {
	node := ir.Exec{Cmd: ir.NewCommand("cd").WithArg(ir.String("/tmp"))}
	got, err := EvalRash(node, TestState())
	require.NoError(t, err)
	assert.Equal(t, "/tmp", got.Cwd)
}

func TestEvalRashRejectsOutsideTinySubset(t *testing.T) {
	node := ir.If{Test: ir.Bool(true), Then: ir.Noop{}}
	_, err := EvalRash(node, New())
	assert.Error(t, err)
}

func TestEvalPosixMatchesEvalRash(t *testing.T) {
	node := ir.Sequence{Items: []ir.ShellIR{
		ir.Let{Name: "NAME", Value: ir.String("world")},
		ir.Exec{Cmd: ir.NewCommand("mkdir").WithArg(ir.String("/opt/out"))},
		ir.Exec{Cmd: ir.NewCommand("echo").WithArg(ir.Variable{Name: "NAME"})},
	}}
	emitted := "#!/bin/sh\nset -eu\nNAME=\"world\"\nmkdir -p /opt/out\necho \"$NAME\"\n"

	equiv, err := CheckEquivalence(node, emitted, New())
	require.NoError(t, err)
	assert.True(t, equiv, "eval_rash(ast,s) must equal eval_posix(emit(ast),s)")
}

func TestEvalPosixDivergesOnMismatch(t *testing.T) {
	node := ir.Let{Name: "NAME", Value: ir.String("world")}
	emitted := "NAME=\"someone-else\"\n"

	equiv, err := CheckEquivalence(node, emitted, New())
	require.NoError(t, err)
	assert.False(t, equiv)
}

// TestEvalRashAndEvalPosixStatesMatchExactly goes one step past
// IsEquivalent's bool: it deep-compares the two resulting states with
// go-cmp so a future divergence names the exact field (Env, Cwd,
// Filesystem, Stdout...) that differs, instead of just "not equivalent".
func TestEvalRashAndEvalPosixStatesMatchExactly(t *testing.T) {
	node := ir.Sequence{Items: []ir.ShellIR{
		ir.Let{Name: "NAME", Value: ir.String("world")},
		ir.Exec{Cmd: ir.NewCommand("echo").WithArg(ir.Variable{Name: "NAME"})},
	}}
	emitted := "#!/bin/sh\nset -eu\nNAME=\"world\"\necho \"$NAME\"\n"

	rashState, err := EvalRash(node, New())
	require.NoError(t, err)
	posixState, err := EvalPosix(emitted, New())
	require.NoError(t, err)

	if diff := cmp.Diff(rashState, posixState); diff != "" {
		t.Errorf("eval_rash/eval_posix state mismatch (-rash +posix):\n%s", diff)
	}
}
