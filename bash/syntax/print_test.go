package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintSimpleCommand(t *testing.T) {
	ast := &BashAst{Statements: []BashStmt{
		Command{Name: "echo", Args: []BashExpr{Literal{Value: "hello"}}},
	}}
	assert.Equal(t, "echo hello\n", Print(ast))
}

func TestPrintAssignment(t *testing.T) {
	ast := &BashAst{Statements: []BashStmt{
		Assignment{Name: "x", Value: Quoted{Value: "1", Double: true}},
	}}
	assert.Equal(t, "x=\"1\"\n", Print(ast))
}

func TestPrintExportedAssignment(t *testing.T) {
	ast := &BashAst{Statements: []BashStmt{
		Assignment{Name: "x", Value: Literal{Value: "1"}, Exported: true},
	}}
	assert.Equal(t, "export x=1\n", Print(ast))
}

func TestPrintIfStatement(t *testing.T) {
	ast := &BashAst{Statements: []BashStmt{
		If{
			Cond: Command{Name: "test", Args: []BashExpr{Literal{Value: "-f"}, Literal{Value: "x"}}},
			Then: []BashStmt{Command{Name: "echo", Args: []BashExpr{Literal{Value: "yes"}}}},
		},
	}}
	out := Print(ast)
	require.Contains(t, out, "if test -f x; then\n")
	require.Contains(t, out, "\techo yes\n")
	require.Contains(t, out, "fi\n")
}

func TestPrintFunctionIndentsBody(t *testing.T) {
	ast := &BashAst{Statements: []BashStmt{
		Function{Name: "greet", Body: []BashStmt{
			Command{Name: "echo", Args: []BashExpr{Literal{Value: "hi"}}},
		}},
	}}
	assert.Equal(t, "greet() {\n\techo hi\n}\n", Print(ast))
}

func TestPrintConfigSpacesIndent(t *testing.T) {
	ast := &BashAst{Statements: []BashStmt{
		Function{Name: "f", Body: []BashStmt{Command{Name: "echo"}}},
	}}
	out := PrintConfig{Spaces: 4}.Print(ast)
	assert.Equal(t, "f() {\n    echo\n}\n", out)
}

func TestPrintForLoop(t *testing.T) {
	ast := &BashAst{Statements: []BashStmt{
		For{Var: "i", Items: []BashExpr{Literal{Value: "1"}, Literal{Value: "2"}},
			Body: []BashStmt{Command{Name: "echo", Args: []BashExpr{VarRef{Name: "i"}}}}},
	}}
	out := Print(ast)
	assert.Equal(t, "for i in 1 2; do\n\techo ${i}\ndone\n", out)
}

func TestPrintPipeline(t *testing.T) {
	ast := &BashAst{Statements: []BashStmt{
		Pipeline{Commands: []BashStmt{
			Command{Name: "cat", Args: []BashExpr{Literal{Value: "f"}}},
			Command{Name: "grep", Args: []BashExpr{Literal{Value: "x"}}},
		}},
	}}
	assert.Equal(t, "cat f | grep x\n", Print(ast))
}

func TestPrintCommandSubst(t *testing.T) {
	ast := &BashAst{Statements: []BashStmt{
		Assignment{Name: "now", Value: CommandSubst{Body: []BashStmt{
			Command{Name: "date"},
		}}},
	}}
	assert.Equal(t, "now=$(date)\n", Print(ast))
}

func TestPrintRoundTripsThroughParser(t *testing.T) {
	src := "echo hello\n"
	ast, err := NewParser(src).Parse()
	require.NoError(t, err)
	out := Print(ast)
	assert.Contains(t, out, "echo")
	assert.Contains(t, out, "hello")
}
