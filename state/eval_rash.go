package state

import (
	"fmt"
	"strings"

	"github.com/paiml/bashrs-sub011/ir"
)

// tinyNode names the four ShellIR variants the formal equivalence core
// covers (§4.10): ExecuteCommand, SetEnvironmentVariable, Sequence, and
// ChangeDirectory. ChangeDirectory isn't a distinct IR type — it's an
// Exec whose command is "cd" — so EvalRash recognizes it structurally.
const (
	tinyExecuteCommand      = "ExecuteCommand"
	tinySetEnvironmentVar   = "SetEnvironmentVariable"
	tinySequence            = "Sequence"
	tinyChangeDirectory     = "ChangeDirectory"
)

// EvalRash is eval_rash: structural recursion over the tiny ShellIR
// subset. It is defined for Let, Exec, and Sequence nodes, and treats
// nil and Noop as leaving the state unchanged; any other ShellIR variant is outside the subset the formal core proves
// equivalence over, and EvalRash reports that explicitly rather than
// guessing at semantics.
func EvalRash(node ir.ShellIR, s *AbstractState) (*AbstractState, error) {
	switch n := node.(type) {
	case nil:
		return s, nil

	case ir.Noop:
		return s, nil

	case ir.Let:
		val, err := resolveValue(n.Value, s)
		if err != nil {
			return s, fmt.Errorf("%s: %w", tinySetEnvironmentVar, err)
		}
		s.SetEnv(n.Name, val)
		return s, nil

	case ir.Exec:
		return evalExec(n.Cmd, s)

	case ir.Sequence:
		cur := s
		for _, item := range n.Items {
			var err error
			cur, err = EvalRash(item, cur)
			if err != nil {
				return cur, err
			}
		}
		return cur, nil

	default:
		return s, fmt.Errorf("eval_rash: %T is outside the tiny subset {%s,%s,%s,%s}",
			node, tinyExecuteCommand, tinySetEnvironmentVar, tinySequence, tinyChangeDirectory)
	}
}

func evalExec(cmd ir.Command, s *AbstractState) (*AbstractState, error) {
	args := make([]string, 0, len(cmd.Args))
	for _, a := range cmd.Args {
		v, err := resolveValue(a, s)
		if err != nil {
			return s, err
		}
		args = append(args, v)
	}

	switch cmd.Program {
	case "cd":
		if len(args) != 1 {
			return s, fmt.Errorf("%s: cd requires exactly one argument", tinyChangeDirectory)
		}
		_ = s.ChangeDirectory(args[0])
		return s, nil
	case "mkdir":
		target := lastNonFlag(args)
		_ = s.CreateDirectory(target)
		return s, nil
	case "rm":
		target := lastNonFlag(args)
		_ = s.RemoveEntry(target)
		return s, nil
	case "echo":
		s.WriteStdout(strings.Join(args, " "))
		return s, nil
	default:
		// An ordinary command outside the modeled builtins is recorded
		// as a stdout observation of its invocation, since the abstract
		// state has no process model to run it against.
		s.WriteStdout(strings.TrimSpace(cmd.Program + " " + strings.Join(args, " ")))
		return s, nil
	}
}

func lastNonFlag(args []string) string {
	for i := len(args) - 1; i >= 0; i-- {
		if !strings.HasPrefix(args[i], "-") {
			return args[i]
		}
	}
	if len(args) > 0 {
		return args[len(args)-1]
	}
	return ""
}

// resolveValue evaluates a ShellValue against the abstract state.
// Only the value forms reachable from the tiny subset (string
// literals, env reads, concatenation) are given semantics here.
func resolveValue(v ir.ShellValue, s *AbstractState) (string, error) {
	if str, ok := ir.AsConstantString(v); ok {
		return str, nil
	}
	switch x := v.(type) {
	case ir.Variable:
		val, ok := s.GetEnv(x.Name)
		if !ok {
			return "", nil
		}
		return val, nil
	case ir.EnvVar:
		val, ok := s.GetEnv(x.Name)
		if ok {
			return val, nil
		}
		if x.Default != nil {
			return *x.Default, nil
		}
		return "", nil
	case ir.Concat:
		var b strings.Builder
		for _, p := range x.Parts {
			part, err := resolveValue(p, s)
			if err != nil {
				return "", err
			}
			b.WriteString(part)
		}
		return b.String(), nil
	default:
		return "", fmt.Errorf("eval_rash: value %T is outside the tiny subset", v)
	}
}
