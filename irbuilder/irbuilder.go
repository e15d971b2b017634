// Package irbuilder lowers a restricted Rust AST into the Shell IR
// (§4.4), grounded on the Rust original's ir/convert_fn.rs and
// ir/expr_calls.rs lowering rules.
package irbuilder

import (
	"fmt"
	"regexp"

	"github.com/paiml/bashrs-sub011/ast"
	"github.com/paiml/bashrs-sub011/ir"
)

var envVarNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// arrayInfo tracks a known array binding so later index expressions can
// lower to an indexed scalar reference (name_N) rather than a dynamic
// lookup, matching the Rust original's array-to-indexed-scalar arena.
type arrayInfo struct {
	length int
}

// builder carries the lowering state for one function.
type builder struct {
	arrays map[string]arrayInfo
}

// Build lowers a whole RestrictedAst into a sequence of IR function
// definitions plus a top-level call to the entry point (§4.4).
func Build(prog ast.RestrictedAst) (ir.ShellIR, error) {
	var items []ir.ShellIR
	for _, fn := range prog.Functions {
		node, err := buildFunction(fn)
		if err != nil {
			return nil, err
		}
		items = append(items, node)
	}
	items = append(items, ir.Exec{Cmd: ir.NewCommand(prog.EntryPoint), Effects_: ir.NewEffectSet(ir.EffectProcessSpawn)})
	return ir.Sequence{Items: items}, nil
}

func buildFunction(fn ast.Function) (ir.ShellIR, error) {
	b := &builder{arrays: map[string]arrayInfo{}}
	nonVoid := fn.ReturnType.Kind != ast.TVoid
	body, err := b.buildStmts(fn.Body, nonVoid)
	if err != nil {
		return nil, fmt.Errorf("function %q: %w", fn.Name, err)
	}
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = p.Name
	}
	return ir.Function{Name: fn.Name, Params: params, Body: ir.Sequence{Items: body}}, nil
}

// buildStmts lowers a statement list; when tailEcho is set, the last
// statement on every reachable path is made to echo its value, the
// shell-side convention for a non-void function's return (§4.4).
func (b *builder) buildStmts(stmts []ast.Stmt, tailEcho bool) ([]ir.ShellIR, error) {
	out := make([]ir.ShellIR, 0, len(stmts))
	for i, s := range stmts {
		isTail := tailEcho && i == len(stmts)-1
		node, err := b.buildStmt(s, isTail)
		if err != nil {
			return nil, err
		}
		if node != nil {
			out = append(out, node)
		}
	}
	return out, nil
}

func (b *builder) buildStmt(s ast.Stmt, tailEcho bool) (ir.ShellIR, error) {
	switch n := s.(type) {
	case ast.Let:
		if arr, ok := n.Value.(ast.Array); ok {
			b.arrays[n.Name] = arrayInfo{length: len(arr.Elems)}
		}
		v, err := b.buildValue(n.Value)
		if err != nil {
			return nil, err
		}
		return ir.Let{Name: n.Name, Value: v, Effects_: effectsOf(n.Value)}, nil

	case ast.ExprStmt:
		if fc, ok := n.X.(ast.FunctionCall); ok {
			if fc.Name == "println!" || fc.Name == "print!" {
				v, err := b.buildFormatConcat(fc.Args)
				if err != nil {
					return nil, err
				}
				return ir.Echo{Value: v}, nil
			}
			if isCommandInvocation(fc.Name) {
				cmd, err := b.buildCommand(fc)
				if err != nil {
					return nil, err
				}
				return ir.Exec{Cmd: cmd, Effects_: ir.NewEffectSet(ir.EffectProcessSpawn)}, nil
			}
		}
		v, err := b.buildValue(n.X)
		if err != nil {
			return nil, err
		}
		if tailEcho {
			return ir.Echo{Value: v}, nil
		}
		return ir.Noop{}, nil

	case ast.Return:
		if n.Value == nil {
			return ir.Exit{Code: 0}, nil
		}
		v, err := b.buildValue(n.Value)
		if err != nil {
			return nil, err
		}
		return ir.Sequence{Items: []ir.ShellIR{ir.Echo{Value: v}, ir.Exit{Code: 0}}}, nil

	case ast.If:
		test, err := b.buildValue(n.Cond)
		if err != nil {
			return nil, err
		}
		thenItems, err := b.buildStmts(n.Then, tailEcho)
		if err != nil {
			return nil, err
		}
		var elseNode ir.ShellIR
		if len(n.Else) > 0 {
			elseItems, err := b.buildStmts(n.Else, tailEcho)
			if err != nil {
				return nil, err
			}
			elseNode = ir.Sequence{Items: elseItems}
		}
		return ir.If{Test: test, Then: ir.Sequence{Items: thenItems}, Else: elseNode}, nil

	case ast.While:
		cond, err := b.buildValue(n.Cond)
		if err != nil {
			return nil, err
		}
		body, err := b.buildStmts(n.Body, false)
		if err != nil {
			return nil, err
		}
		return ir.While{Condition: cond, Body: ir.Sequence{Items: body}}, nil

	case ast.For:
		return b.buildFor(n)

	case ast.Match:
		return b.buildMatch(n, tailEcho)

	default:
		return nil, fmt.Errorf("irbuilder: unsupported statement %T", s)
	}
}

// isCommandInvocation reports whether a bare statement-position call is
// a process invocation rather than a pure value computation — anything
// that isn't one of the recognized stdlib helpers convertible to a
// ShellValue falls through to CommandSubst/Exec, matching
// convert_regular_fn_call's "everything else is a command" default.
func isCommandInvocation(name string) bool {
	switch name {
	case "env", "env_var_or", "arg", "args", "arg_count", "exit_code", "println!", "print!", "format!":
		return false
	default:
		return true
	}
}

func (b *builder) buildCommand(fc ast.FunctionCall) (ir.Command, error) {
	args := make([]ir.ShellValue, 0, len(fc.Args))
	for _, a := range fc.Args {
		v, err := b.buildValue(a)
		if err != nil {
			return ir.Command{}, err
		}
		args = append(args, v)
	}
	return ir.Command{Program: fc.Name, Args: args}, nil
}

func effectsOf(e ast.Expr) ir.EffectSet {
	if fc, ok := e.(ast.FunctionCall); ok {
		switch fc.Name {
		case "env", "env_var_or":
			return ir.NewEffectSet(ir.EffectReadEnv)
		}
		if isCommandInvocation(fc.Name) {
			return ir.NewEffectSet(ir.EffectProcessSpawn)
		}
	}
	return ir.Pure()
}
