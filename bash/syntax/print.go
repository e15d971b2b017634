package syntax

import (
	"bytes"
	"fmt"
	"strings"
)

// PrintConfig controls indentation when rendering a BashAst back to
// text, following mvdan-sh's printer.Config{Spaces int} shape
// (printer/printer.go) — tabs by default, N spaces when set.
type PrintConfig struct {
	Spaces int
}

func (c PrintConfig) unit() string {
	if c.Spaces <= 0 {
		return "\t"
	}
	return strings.Repeat(" ", c.Spaces)
}

// Print renders ast back to bash source text using the default
// (tab-indented) configuration. This is the "optionally emit back as
// bash" step of the bash data-flow path (spec.md §2): "source → lex →
// Bash-AST → purify → [optionally emit back as bash] → lint → output."
func Print(ast *BashAst) string {
	return PrintConfig{}.Print(ast)
}

// Print renders ast back to bash source text under c.
func (c PrintConfig) Print(ast *BashAst) string {
	var buf bytes.Buffer
	pr := &printer{cfg: c, buf: &buf}
	pr.stmts(ast.Statements, 0)
	out := buf.String()
	if out != "" && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out
}

type printer struct {
	cfg PrintConfig
	buf *bytes.Buffer
}

func (p *printer) indent(depth int) string {
	return strings.Repeat(p.cfg.unit(), depth)
}

func (p *printer) stmts(stmts []BashStmt, depth int) {
	for _, s := range stmts {
		p.stmt(s, depth)
	}
}

func (p *printer) stmt(s BashStmt, depth int) {
	ind := p.indent(depth)
	switch n := s.(type) {
	case Assignment:
		fmt.Fprintf(p.buf, "%s%s%s=%s\n", ind, exportPrefix(n.Exported), n.Name, p.expr(n.Value))
	case Command:
		fmt.Fprintf(p.buf, "%s%s\n", ind, p.command(n))
	case Function:
		fmt.Fprintf(p.buf, "%s%s() {\n", ind, n.Name)
		p.stmts(n.Body, depth+1)
		fmt.Fprintf(p.buf, "%s}\n", ind)
	case If:
		fmt.Fprintf(p.buf, "%sif %s; then\n", ind, p.inlineStmt(n.Cond))
		p.stmts(n.Then, depth+1)
		for _, elif := range n.Elifs {
			fmt.Fprintf(p.buf, "%selif %s; then\n", ind, p.inlineStmt(elif.Cond))
			p.stmts(elif.Then, depth+1)
		}
		if n.Else != nil {
			fmt.Fprintf(p.buf, "%selse\n", ind)
			p.stmts(n.Else, depth+1)
		}
		fmt.Fprintf(p.buf, "%sfi\n", ind)
	case While:
		fmt.Fprintf(p.buf, "%swhile %s; do\n", ind, p.inlineStmt(n.Cond))
		p.stmts(n.Body, depth+1)
		fmt.Fprintf(p.buf, "%sdone\n", ind)
	case Until:
		fmt.Fprintf(p.buf, "%suntil %s; do\n", ind, p.inlineStmt(n.Cond))
		p.stmts(n.Body, depth+1)
		fmt.Fprintf(p.buf, "%sdone\n", ind)
	case For:
		items := make([]string, len(n.Items))
		for i, it := range n.Items {
			items[i] = p.expr(it)
		}
		fmt.Fprintf(p.buf, "%sfor %s in %s; do\n", ind, n.Var, strings.Join(items, " "))
		p.stmts(n.Body, depth+1)
		fmt.Fprintf(p.buf, "%sdone\n", ind)
	case Case:
		fmt.Fprintf(p.buf, "%scase %s in\n", ind, p.expr(n.Word))
		for _, arm := range n.Arms {
			fmt.Fprintf(p.buf, "%s%s)\n", p.indent(depth+1), strings.Join(arm.Patterns, "|"))
			p.stmts(arm.Body, depth+2)
			fmt.Fprintf(p.buf, "%s;;\n", p.indent(depth+2))
		}
		fmt.Fprintf(p.buf, "%sesac\n", ind)
	case Return:
		if n.Code != nil {
			fmt.Fprintf(p.buf, "%sreturn %s\n", ind, p.expr(n.Code))
		} else {
			fmt.Fprintf(p.buf, "%sreturn\n", ind)
		}
	case Comment:
		fmt.Fprintf(p.buf, "%s# %s\n", ind, n.Text)
	case Pipeline:
		parts := make([]string, len(n.Commands))
		for i, c := range n.Commands {
			parts[i] = p.inlineStmt(c)
		}
		fmt.Fprintf(p.buf, "%s%s\n", ind, strings.Join(parts, " | "))
	case AndList:
		fmt.Fprintf(p.buf, "%s%s && %s\n", ind, p.inlineStmt(n.Left), p.inlineStmt(n.Right))
	case OrList:
		fmt.Fprintf(p.buf, "%s%s || %s\n", ind, p.inlineStmt(n.Left), p.inlineStmt(n.Right))
	case BraceGroup:
		open, close := "{", "}"
		if n.Subshell {
			open, close = "(", ")"
		}
		fmt.Fprintf(p.buf, "%s%s\n", ind, open)
		p.stmts(n.Body, depth+1)
		fmt.Fprintf(p.buf, "%s%s\n", ind, close)
	case Coproc:
		fmt.Fprintf(p.buf, "%scoproc %s {\n", ind, n.Name)
		p.stmts(n.Body, depth+1)
		fmt.Fprintf(p.buf, "%s}\n", ind)
	default:
		fmt.Fprintf(p.buf, "%s# <unprintable statement %T>\n", ind, s)
	}
}

func exportPrefix(exported bool) string {
	if exported {
		return "export "
	}
	return ""
}

// inlineStmt renders a statement (a Command, Pipeline, TestExpr-bearing
// Command, etc.) on a single line with no indentation or trailing
// newline, for use as an if/while/until condition or a pipeline stage.
func (p *printer) inlineStmt(s BashStmt) string {
	var sub printer
	sub.cfg = p.cfg
	sub.buf = &bytes.Buffer{}
	sub.stmt(s, 0)
	return strings.TrimSuffix(sub.buf.String(), "\n")
}

func (p *printer) command(c Command) string {
	parts := []string{c.Name}
	for _, a := range c.Args {
		parts = append(parts, p.expr(a))
	}
	for _, r := range c.Redirects {
		parts = append(parts, r.Op+p.expr(r.Target))
	}
	return strings.Join(parts, " ")
}

func (p *printer) expr(e BashExpr) string {
	switch x := e.(type) {
	case Literal:
		return x.Value
	case Quoted:
		if x.Double {
			return `"` + x.Value + `"`
		}
		return "'" + x.Value + "'"
	case VarRef:
		return "${" + x.Name + "}"
	case ParamExp:
		return p.paramExp(x)
	case CommandSubst:
		var sub printer
		sub.cfg = p.cfg
		sub.buf = &bytes.Buffer{}
		sub.stmts(x.Body, 0)
		return "$(" + strings.TrimSuffix(sub.buf.String(), "\n") + ")"
	case Arithmetic:
		return "$((" + x.Expr + "))"
	case ArrayLit:
		parts := make([]string, len(x.Elems))
		for i, el := range x.Elems {
			parts[i] = p.expr(el)
		}
		return "(" + strings.Join(parts, " ") + ")"
	case Concat:
		var b strings.Builder
		for _, part := range x.Parts {
			b.WriteString(p.expr(part))
		}
		return b.String()
	case Glob:
		return x.Pattern
	case TestExpr:
		return "[ " + p.testExpr(x) + " ]"
	default:
		return fmt.Sprintf("<unprintable expr %T>", e)
	}
}

func (p *printer) paramExp(x ParamExp) string {
	switch x.Kind {
	case ParamPlain:
		return "${" + x.Name + "}"
	case ParamDefault:
		return "${" + x.Name + ":-" + p.expr(x.Arg) + "}"
	case ParamAssignDef:
		return "${" + x.Name + ":=" + p.expr(x.Arg) + "}"
	case ParamErrIfUnset:
		return "${" + x.Name + ":?" + p.expr(x.Arg) + "}"
	case ParamAltIfSet:
		return "${" + x.Name + ":+" + p.expr(x.Arg) + "}"
	case ParamLength:
		return "${#" + x.Name + "}"
	case ParamSuffixShort:
		return "${" + x.Name + "%" + p.expr(x.Arg) + "}"
	case ParamPrefixShort:
		return "${" + x.Name + "#" + p.expr(x.Arg) + "}"
	case ParamPrefixLong:
		return "${" + x.Name + "##" + p.expr(x.Arg) + "}"
	case ParamSuffixLong:
		return "${" + x.Name + "%%" + p.expr(x.Arg) + "}"
	default:
		return "${" + x.Name + "}"
	}
}

func (p *printer) testExpr(t TestExpr) string {
	switch t.Kind {
	case TestStrEq:
		return p.expr(t.LeftVal) + " = " + p.expr(t.RightVal)
	case TestStrNe:
		return p.expr(t.LeftVal) + " != " + p.expr(t.RightVal)
	case TestStrEmpty:
		return "-z " + p.expr(t.Operand)
	case TestStrNonEmpty:
		return "-n " + p.expr(t.Operand)
	case TestIntEq:
		return p.expr(t.LeftVal) + " -eq " + p.expr(t.RightVal)
	case TestIntNe:
		return p.expr(t.LeftVal) + " -ne " + p.expr(t.RightVal)
	case TestIntLt:
		return p.expr(t.LeftVal) + " -lt " + p.expr(t.RightVal)
	case TestIntLe:
		return p.expr(t.LeftVal) + " -le " + p.expr(t.RightVal)
	case TestIntGt:
		return p.expr(t.LeftVal) + " -gt " + p.expr(t.RightVal)
	case TestIntGe:
		return p.expr(t.LeftVal) + " -ge " + p.expr(t.RightVal)
	case TestFileExists:
		return "-e " + p.expr(t.Operand)
	case TestFileDir:
		return "-d " + p.expr(t.Operand)
	case TestFileRegular:
		return "-f " + p.expr(t.Operand)
	case TestFileReadable:
		return "-r " + p.expr(t.Operand)
	case TestFileWritable:
		return "-w " + p.expr(t.Operand)
	case TestFileExecutable:
		return "-x " + p.expr(t.Operand)
	case TestNot:
		return "! " + p.testExpr(*t.Left)
	case TestAnd:
		return p.testExpr(*t.Left) + " -a " + p.testExpr(*t.Right)
	case TestOr:
		return p.testExpr(*t.Left) + " -o " + p.testExpr(*t.Right)
	default:
		return fmt.Sprintf("<unprintable test %v>", t.Kind)
	}
}
