// Package emit renders the Shell IR as POSIX shell text (§4.8),
// grounded on the Rust original's formal/emitter.rs quoting/escaping
// contract, generalized from its tiny AST subset to the full IR, and
// structured as a single-pass buffer writer in the style of
// syntax/printer.go's Fprint/PrintConfig.
package emit

import (
	"bytes"
	"fmt"

	"github.com/paiml/bashrs-sub011/ir"
)

// Config controls the emitted indentation; the preamble is fixed.
type Config struct {
	// IndentSpaces is the number of spaces per nesting level. Zero uses
	// the default of 2.
	IndentSpaces int
}

// knownBuiltins names shell builtins whose user-defined wrapper
// function is skipped when its body is empty, so the real builtin is
// still reached at call sites (§4.8).
var knownBuiltins = map[string]bool{
	"echo": true, "printf": true, "cd": true, "pwd": true,
	"true": true, "false": true, "test": true, ":": true,
	"read": true, "set": true, "shift": true, "export": true,
	"unset": true, "trap": true, "eval": true, "exec": true,
}

type emitter struct {
	cfg Config
	buf bytes.Buffer
}

func (c Config) indent() int {
	if c.IndentSpaces <= 0 {
		return 2
	}
	return c.IndentSpaces
}

// Emit renders node as a complete POSIX shell script: shebang, safety
// preamble, body, and a guaranteed trailing `exit 0` plus a single
// trailing newline (§4.8, §6.2).
func Emit(node ir.ShellIR) (string, error) {
	return Config{}.Emit(node)
}

// Emit renders node using c's settings.
func (c Config) Emit(node ir.ShellIR) (string, error) {
	e := &emitter{cfg: c}
	e.buf.WriteString("#!/bin/sh\n")
	e.buf.WriteString("set -eu\n")
	e.buf.WriteString("IFS=$(printf ' \\t\\n_')\n")
	e.buf.WriteString("IFS=${IFS%_}\n")
	if err := e.node(node, 0); err != nil {
		return "", err
	}
	if !endsWithExit(node) {
		e.line(0, "exit 0")
	}
	out := e.buf.String()
	if len(out) == 0 || out[len(out)-1] != '\n' {
		out += "\n"
	}
	return out, nil
}

func endsWithExit(node ir.ShellIR) bool {
	seq, ok := node.(ir.Sequence)
	if !ok || len(seq.Items) == 0 {
		_, isExit := node.(ir.Exit)
		return isExit
	}
	_, isExit := seq.Items[len(seq.Items)-1].(ir.Exit)
	return isExit
}

func (e *emitter) pad(level int) string {
	n := level * e.cfg.indent()
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}

func (e *emitter) line(level int, s string) {
	e.buf.WriteString(e.pad(level))
	e.buf.WriteString(s)
	e.buf.WriteByte('\n')
}

// node emits one ShellIR, recursing into every structural child. It
// is the exhaustive switch over the closed ShellIR sum (§4.8).
func (e *emitter) node(n ir.ShellIR, level int) error {
	if n == nil {
		return nil
	}
	switch v := n.(type) {
	case ir.Noop:
		return nil

	case ir.Sequence:
		for _, item := range v.Items {
			if err := e.node(item, level); err != nil {
				return err
			}
		}
		return nil

	case ir.Let:
		val, err := emitAssignValue(v.Value)
		if err != nil {
			return err
		}
		e.line(level, fmt.Sprintf("%s=%s", v.Name, val))
		return nil

	case ir.Exec:
		text, err := e.commandText(v.Cmd)
		if err != nil {
			return err
		}
		e.line(level, text)
		return nil

	case ir.Echo:
		val, err := emitValue(v.Value)
		if err != nil {
			return err
		}
		e.line(level, fmt.Sprintf("echo %s", val))
		return nil

	case ir.Exit:
		if v.Message != nil {
			e.line(level, fmt.Sprintf("echo %s >&2", quoteStringLiteral(*v.Message)))
		}
		e.line(level, fmt.Sprintf("exit %d", v.Code))
		return nil

	case ir.If:
		return e.emitIf(v, level)

	case ir.While:
		cond, err := emitCondition(v.Condition)
		if err != nil {
			return err
		}
		e.line(level, fmt.Sprintf("while %s; do", cond))
		if err := e.node(v.Body, level+1); err != nil {
			return err
		}
		e.line(level, "done")
		return nil

	case ir.For:
		start, err := emitValue(v.Start)
		if err != nil {
			return err
		}
		end, err := emitValue(v.End)
		if err != nil {
			return err
		}
		e.line(level, fmt.Sprintf("%s=%s", v.Var, start))
		e.line(level, fmt.Sprintf("while [ \"$%s\" -le %s ]; do", v.Var, end))
		if err := e.node(v.Body, level+1); err != nil {
			return err
		}
		e.line(level+1, fmt.Sprintf("%s=$((%s + 1))", v.Var, v.Var))
		e.line(level, "done")
		return nil

	case ir.ForIn:
		items := make([]string, len(v.Items))
		for i, it := range v.Items {
			s, err := emitValue(it)
			if err != nil {
				return err
			}
			items[i] = s
		}
		e.line(level, fmt.Sprintf("for %s in %s; do", v.Var, joinSpace(items)))
		if err := e.node(v.Body, level+1); err != nil {
			return err
		}
		e.line(level, "done")
		return nil

	case ir.Case:
		return e.emitCase(v, level)

	case ir.Break:
		e.line(level, "break")
		return nil

	case ir.Continue:
		e.line(level, "continue")
		return nil

	case ir.Function:
		return e.emitFunction(v, level)

	default:
		return fmt.Errorf("emit: unsupported ShellIR node %T", n)
	}
}

func (e *emitter) emitIf(v ir.If, level int) error {
	cond, err := emitCondition(v.Test)
	if err != nil {
		return err
	}
	e.line(level, fmt.Sprintf("if %s; then", cond))
	if err := e.node(v.Then, level+1); err != nil {
		return err
	}
	if v.Else != nil {
		e.line(level, "else")
		if err := e.node(v.Else, level+1); err != nil {
			return err
		}
	}
	e.line(level, "fi")
	return nil
}

func (e *emitter) emitCase(v ir.Case, level int) error {
	scrut, err := emitValue(v.Scrutinee)
	if err != nil {
		return err
	}
	e.line(level, fmt.Sprintf("case %s in", scrut))
	for _, arm := range v.Arms {
		pat, err := emitCasePattern(arm.Pattern)
		if err != nil {
			return err
		}
		e.line(level+1, fmt.Sprintf("%s)", pat))
		if err := e.node(arm.Body, level+2); err != nil {
			return err
		}
		e.line(level+2, ";;")
	}
	e.line(level, "esac")
	return nil
}

func emitCasePattern(p ir.CasePattern) (string, error) {
	switch x := p.(type) {
	case ir.LiteralPattern:
		return x.Value, nil
	case ir.WildcardPattern:
		return "*", nil
	default:
		return "", fmt.Errorf("emit: unsupported case pattern %T", p)
	}
}

// emitFunction skips emitting a user function whose body performs no
// work and whose name shadows a known shell builtin, so call sites
// keep reaching the builtin (§4.8's "known-builtin with empty body"
// rule).
func (e *emitter) emitFunction(fn ir.Function, level int) error {
	if knownBuiltins[fn.Name] && ir.IsPure(fn.Body) && isEmptyBody(fn.Body) {
		return nil
	}
	e.line(level, fmt.Sprintf("%s() {", fn.Name))
	if err := e.node(fn.Body, level+1); err != nil {
		return err
	}
	e.line(level, "}")
	return nil
}

func isEmptyBody(n ir.ShellIR) bool {
	switch v := n.(type) {
	case ir.Noop:
		return true
	case ir.Sequence:
		for _, item := range v.Items {
			if !isEmptyBody(item) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func joinSpace(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += " "
		}
		out += p
	}
	return out
}

// commandText renders an Exec's Command as program plus quoted
// arguments.
func (e *emitter) commandText(cmd ir.Command) (string, error) {
	parts := make([]string, 0, len(cmd.Args)+1)
	parts = append(parts, cmd.Program)
	for _, a := range cmd.Args {
		v, err := emitValue(a)
		if err != nil {
			return "", err
		}
		parts = append(parts, v)
	}
	return joinSpace(parts), nil
}
