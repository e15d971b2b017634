package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiml/bashrs-sub011/ir"
)

func TestCommandInjectionDetection(t *testing.T) {
	cmd := ir.NewCommand("echo").WithArg(ir.String("hello; rm -rf /"))
	err := NoCommandInjection(ir.Exec{Cmd: cmd})
	require.Error(t, err)
	var ve *Error
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "verify", ve.Phase())
}

func TestSafeCommandPassesInjectionCheck(t *testing.T) {
	cmd := ir.NewCommand("echo").WithArg(ir.String("hello world"))
	assert.NoError(t, NoCommandInjection(ir.Exec{Cmd: cmd}))
}

func TestDangerousCommandRejected(t *testing.T) {
	err := NoCommandInjection(ir.Exec{Cmd: ir.NewCommand("rm")})
	require.Error(t, err)
	err = NoCommandInjection(ir.Exec{Cmd: ir.NewCommand("sudo")})
	require.Error(t, err)
}

func TestNonDangerousCommandAccepted(t *testing.T) {
	assert.NoError(t, NoCommandInjection(ir.Exec{Cmd: ir.NewCommand("echo")}))
}

func TestNondeterministicCommandDetected(t *testing.T) {
	err := Deterministic(ir.Exec{Cmd: ir.NewCommand("date")})
	require.Error(t, err)
	assert.NoError(t, Deterministic(ir.Exec{Cmd: ir.NewCommand("echo")}))
}

func TestNondeterministicCommandSubstDetected(t *testing.T) {
	err := Deterministic(ir.Let{
		Name:  "now",
		Value: ir.CommandSubst{Cmd: ir.NewCommand("date")},
	})
	require.Error(t, err)
}

func TestResourceSafetyRejectsExcessiveNetworkOps(t *testing.T) {
	var items []ir.ShellIR
	for i := 0; i < 11; i++ {
		items = append(items, ir.Exec{Cmd: ir.NewCommand("curl")})
	}
	err := ResourceSafety(ir.Sequence{Items: items}, DefaultThresholds())
	require.Error(t, err)
}

func TestResourceSafetyAcceptsWithinThresholds(t *testing.T) {
	var items []ir.ShellIR
	for i := 0; i < 10; i++ {
		items = append(items, ir.Exec{Cmd: ir.NewCommand("curl")})
	}
	assert.NoError(t, ResourceSafety(ir.Sequence{Items: items}, DefaultThresholds()))
}

func TestResourceSafetyRespectsCustomThresholds(t *testing.T) {
	items := []ir.ShellIR{
		ir.Exec{Cmd: ir.NewCommand("curl")},
		ir.Exec{Cmd: ir.NewCommand("curl")},
	}
	err := ResourceSafety(ir.Sequence{Items: items}, Thresholds{MaxNetworkOps: 1, MaxFileOps: 50})
	require.Error(t, err)
}

func TestWalkDescendsThroughFunctionAndIf(t *testing.T) {
	node := ir.Function{
		Name: "main",
		Body: ir.If{
			Test: ir.Bool(true),
			Then: ir.Exec{Cmd: ir.NewCommand("sudo")},
		},
	}
	err := NoCommandInjection(node)
	require.Error(t, err)
}

func TestAllStopsAtFirstFailure(t *testing.T) {
	node := ir.Exec{Cmd: ir.NewCommand("rm")}
	err := All(node)
	require.Error(t, err)
	var ve *Error
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "no-command-injection", ve.Rule)
}
