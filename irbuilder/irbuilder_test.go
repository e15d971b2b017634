package irbuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiml/bashrs-sub011/ast"
	"github.com/paiml/bashrs-sub011/ir"
)

func strLit(s string) ast.Literal { return ast.Literal{Kind: ast.LitStr, Str: s} }
func numLit(n int64) ast.Literal  { return ast.Literal{Kind: ast.LitU32, Num: n} }

func TestBuildEnvCall(t *testing.T) {
	b := &builder{arrays: map[string]arrayInfo{}}
	v, err := b.buildValue(ast.FunctionCall{Name: "env", Args: []ast.Expr{strLit("HOME")}})
	require.NoError(t, err)
	assert.Equal(t, ir.EnvVar{Name: "HOME"}, v)
}

func TestBuildEnvVarOrCall(t *testing.T) {
	b := &builder{arrays: map[string]arrayInfo{}}
	v, err := b.buildValue(ast.FunctionCall{Name: "env_var_or", Args: []ast.Expr{strLit("FOO"), strLit("bar")}})
	require.NoError(t, err)
	def := "bar"
	assert.Equal(t, ir.EnvVar{Name: "FOO", Default: &def}, v)
}

func TestBuildArgCall(t *testing.T) {
	b := &builder{arrays: map[string]arrayInfo{}}
	v, err := b.buildValue(ast.FunctionCall{Name: "arg", Args: []ast.Expr{numLit(1)}})
	require.NoError(t, err)
	arg, ok := v.(ir.Arg)
	require.True(t, ok)
	require.NotNil(t, arg.Position)
	assert.Equal(t, 1, *arg.Position)
}

func TestBuildArgCountAndExitCode(t *testing.T) {
	b := &builder{arrays: map[string]arrayInfo{}}
	v, err := b.buildValue(ast.FunctionCall{Name: "arg_count"})
	require.NoError(t, err)
	assert.Equal(t, ir.ArgCount{}, v)

	v, err = b.buildValue(ast.FunctionCall{Name: "exit_code"})
	require.NoError(t, err)
	assert.Equal(t, ir.ExitCode{}, v)
}

func TestBuildEnvArgsNthUnwrap(t *testing.T) {
	b := &builder{arrays: map[string]arrayInfo{}}
	expr := ast.MethodCall{
		Receiver: ast.MethodCall{
			Receiver: ast.FunctionCall{Name: "std::env::args"},
			Method:   "nth",
			Args:     []ast.Expr{numLit(0)},
		},
		Method: "unwrap",
	}
	v, err := b.buildValue(expr)
	require.NoError(t, err)
	arg, ok := v.(ir.Arg)
	require.True(t, ok)
	require.NotNil(t, arg.Position)
	assert.Equal(t, 0, *arg.Position)
}

func TestBuildArgsGetUnwrapOr(t *testing.T) {
	b := &builder{arrays: map[string]arrayInfo{}}
	expr := ast.MethodCall{
		Receiver: ast.MethodCall{
			Receiver: ast.Variable{Name: "args"},
			Method:   "get",
			Args:     []ast.Expr{numLit(1)},
		},
		Method: "unwrap_or",
		Args:   []ast.Expr{strLit("default")},
	}
	v, err := b.buildValue(expr)
	require.NoError(t, err)
	assert.Equal(t, ir.ArgWithDefault{Position: 1, Default: "default"}, v)
}

func TestBuildFormatConcat(t *testing.T) {
	b := &builder{arrays: map[string]arrayInfo{}}
	v, err := b.buildValue(ast.FunctionCall{Name: "println!", Args: []ast.Expr{strLit("hi "), ast.Variable{Name: "name"}}})
	require.NoError(t, err)
	assert.Equal(t, ir.Concat{Parts: []ir.ShellValue{ir.String("hi "), ir.Variable{Name: "name"}}}, v)
}

func TestBuildRegularCallFallsBackToCommandSubst(t *testing.T) {
	b := &builder{arrays: map[string]arrayInfo{}}
	v, err := b.buildValue(ast.FunctionCall{Name: "whoami"})
	require.NoError(t, err)
	cs, ok := v.(ir.CommandSubst)
	require.True(t, ok)
	assert.Equal(t, "whoami", cs.Cmd.Program)
}

func TestBuildBinaryArithmeticAndComparison(t *testing.T) {
	b := &builder{arrays: map[string]arrayInfo{}}
	v, err := b.buildValue(ast.Binary{Op: ast.Add, Left: numLit(1), Right: numLit(2)})
	require.NoError(t, err)
	assert.Equal(t, ir.Arithmetic{Op: ir.Add, Left: ir.String("1"), Right: ir.String("2")}, v)

	v, err = b.buildValue(ast.Binary{Op: ast.Eq, Left: strLit("a"), Right: strLit("b")})
	require.NoError(t, err)
	assert.Equal(t, ir.Comparison{Op: ir.StrEq, Left: ir.String("a"), Right: ir.String("b")}, v)
}

func TestBuildFunctionNonVoidEchoesTail(t *testing.T) {
	fn := ast.Function{
		Name:       "greet",
		ReturnType: ast.Type{Kind: ast.TStr},
		Body: []ast.Stmt{
			ast.ExprStmt{X: ast.FunctionCall{Name: "env", Args: []ast.Expr{strLit("USER")}}},
		},
	}
	node, err := buildFunction(fn)
	require.NoError(t, err)
	f, ok := node.(ir.Function)
	require.True(t, ok)
	seq := f.Body.(ir.Sequence)
	require.Len(t, seq.Items, 1)
	echo, ok := seq.Items[0].(ir.Echo)
	require.True(t, ok)
	assert.Equal(t, ir.EnvVar{Name: "USER"}, echo.Value)
}

func TestBuildForRange(t *testing.T) {
	b := &builder{arrays: map[string]arrayInfo{}}
	node, err := b.buildFor(ast.For{
		Pattern: "i",
		Iter:    ast.Range{Start: numLit(0), End: numLit(3)},
		Body:    nil,
	})
	require.NoError(t, err)
	f, ok := node.(ir.For)
	require.True(t, ok)
	assert.Equal(t, "i", f.Var)
	assert.Equal(t, ir.String("0"), f.Start)
	assert.Equal(t, ir.String("2"), f.End)
}

func TestBuildForKnownArray(t *testing.T) {
	b := &builder{arrays: map[string]arrayInfo{"items": {length: 2}}}
	node, err := b.buildFor(ast.For{Pattern: "x", Iter: ast.Variable{Name: "items"}})
	require.NoError(t, err)
	fi, ok := node.(ir.ForIn)
	require.True(t, ok)
	require.Len(t, fi.Items, 2)
	assert.Equal(t, ir.Variable{Name: "items_0"}, fi.Items[0])
	assert.Equal(t, ir.Variable{Name: "items_1"}, fi.Items[1])
}

func TestBuildMatchLiteralArms(t *testing.T) {
	b := &builder{arrays: map[string]arrayInfo{}}
	node, err := b.buildMatch(ast.Match{
		Scrutinee: ast.Variable{Name: "x"},
		Arms: []ast.MatchArm{
			{Pattern: strLit("a"), Body: []ast.Stmt{ast.Return{}}},
			{Pattern: ast.Variable{Name: "_"}, Body: []ast.Stmt{ast.Return{}}},
		},
	}, false)
	require.NoError(t, err)
	c, ok := node.(ir.Case)
	require.True(t, ok)
	require.Len(t, c.Arms, 2)
	assert.Equal(t, ir.LiteralPattern{Value: "a"}, c.Arms[0].Pattern)
	assert.Equal(t, ir.WildcardPattern{}, c.Arms[1].Pattern)
}

func TestBuildMatchWithRangeFallsBackToIfChain(t *testing.T) {
	b := &builder{arrays: map[string]arrayInfo{}}
	node, err := b.buildMatch(ast.Match{
		Scrutinee: ast.Variable{Name: "n"},
		Arms: []ast.MatchArm{
			{Pattern: ast.Range{Start: numLit(0), End: numLit(10)}, Body: []ast.Stmt{ast.ExprStmt{X: strLit("low")}}},
			{Pattern: ast.Variable{Name: "_"}, Body: []ast.Stmt{ast.ExprStmt{X: strLit("high")}}},
		},
	}, false)
	require.NoError(t, err)
	ifNode, ok := node.(ir.If)
	require.True(t, ok)
	_, ok = ifNode.Test.(ir.LogicalAnd)
	assert.True(t, ok)
	assert.NotNil(t, ifNode.Else)
}

func TestBuildEntryPointSequence(t *testing.T) {
	prog := ast.RestrictedAst{
		Functions: []ast.Function{
			{Name: "main", ReturnType: ast.Type{Kind: ast.TVoid}, Body: []ast.Stmt{
				ast.ExprStmt{X: ast.FunctionCall{Name: "println!", Args: []ast.Expr{strLit("hi")}}},
			}},
		},
		EntryPoint: "main",
	}
	node, err := Build(prog)
	require.NoError(t, err)
	seq, ok := node.(ir.Sequence)
	require.True(t, ok)
	require.Len(t, seq.Items, 2)
	_, ok = seq.Items[0].(ir.Function)
	assert.True(t, ok)
	exec, ok := seq.Items[1].(ir.Exec)
	require.True(t, ok)
	assert.Equal(t, "main", exec.Cmd.Program)
}
