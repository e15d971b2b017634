package ast

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMinimalFunction(t *testing.T) {
	src := `fn main() {
  let x = 1;
  println!("hello {}", x);
}`
	got, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, got.Functions, 1)
	assert.Equal(t, "main", got.Functions[0].Name)
	require.Len(t, got.Functions[0].Body, 2)

	let, ok := got.Functions[0].Body[0].(Let)
	require.True(t, ok)
	assert.Equal(t, "x", let.Name)

	expr, ok := got.Functions[0].Body[1].(ExprStmt)
	require.True(t, ok)
	call, ok := expr.X.(FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "println!", call.Name)
}

func TestParseTypesAndReturn(t *testing.T) {
	src := `fn add(a: u32, b: u32) -> u32 {
  return a + b;
}`
	got, err := Parse(src)
	require.NoError(t, err)
	fn := got.Functions[0]
	assert.Equal(t, TU32, fn.ReturnType.Kind)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, TU32, fn.Params[0].Type.Kind)
}

// TestParseTypesAndReturnExactShape deep-compares the whole parsed
// function body against its expected shape with go-cmp — a plain
// `assert.Equal` failure on a sum-typed AST this size prints an
// unreadable blob, where cmp.Diff pinpoints exactly which field of
// which nested node differs.
func TestParseTypesAndReturnExactShape(t *testing.T) {
	src := `fn add(a: u32, b: u32) -> u32 {
  return a + b;
}`
	got, err := Parse(src)
	require.NoError(t, err)

	want := RestrictedAst{
		Functions: []Function{{
			Name: "add",
			Params: []Parameter{
				{Name: "a", Type: Type{Kind: TU32}},
				{Name: "b", Type: Type{Kind: TU32}},
			},
			ReturnType: Type{Kind: TU32},
			Body: []Stmt{
				Return{Value: Binary{Op: Add, Left: Variable{Name: "a"}, Right: Variable{Name: "b"}}},
			},
		}},
		EntryPoint: "main",
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parsed AST mismatch (-want +got):\n%s", diff)
	}
}

func TestParseIfElseIfChain(t *testing.T) {
	src := `fn classify(n: i32) -> str {
  if n == 0 {
    return "zero";
  } else if n > 0 {
    return "positive";
  } else {
    return "negative";
  }
}`
	got, err := Parse(src)
	require.NoError(t, err)
	ifStmt, ok := got.Functions[0].Body[0].(If)
	require.True(t, ok)
	require.Len(t, ifStmt.Else, 1)
	_, nestedIf := ifStmt.Else[0].(If)
	assert.True(t, nestedIf)
}

func TestValidateRejectsRecursion(t *testing.T) {
	src := `fn main() {
  loop_forever();
}

fn loop_forever() {
  loop_forever();
}`
	got, err := Parse(src)
	require.NoError(t, err)
	err = got.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Recursion detected")
}

func TestValidateRejectsMissingEntryPoint(t *testing.T) {
	got := RestrictedAst{Functions: []Function{{Name: "helper", ReturnType: Type{Kind: TVoid}}}, EntryPoint: "main"}
	err := got.Validate()
	assert.Error(t, err)
}

func TestValidateRejectsExcessiveDepth(t *testing.T) {
	var e Expr = Literal{Kind: LitU32, Num: 1}
	for i := 0; i < MaxExprDepth+5; i++ {
		e = Unary{Op: Neg, Operand: e}
	}
	got := RestrictedAst{
		Functions: []Function{{
			Name:       "main",
			ReturnType: Type{Kind: TVoid},
			Body:       []Stmt{ExprStmt{X: e}},
		}},
		EntryPoint: "main",
	}
	err := got.Validate()
	assert.Error(t, err)
}

func TestValidateRejectsNulByteStrings(t *testing.T) {
	got := RestrictedAst{
		Functions: []Function{{
			Name:       "main",
			ReturnType: Type{Kind: TVoid},
			Body:       []Stmt{ExprStmt{X: Literal{Kind: LitStr, Str: "a\x00b"}}},
		}},
		EntryPoint: "main",
	}
	err := got.Validate()
	assert.Error(t, err)
}
