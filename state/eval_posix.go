package state

import (
	"fmt"
	"regexp"
	"strings"
)

// assignRe matches a POSIX assignment statement: NAME=VALUE, where
// VALUE may be empty or double-quoted.
var assignRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)=(.*)$`)

// EvalPosix is eval_posix: a small-step evaluator over emitted POSIX
// shell text, restricted to the same tiny subset eval_rash covers
// (simple commands, assignments, `cd`, and `;`-separated sequences).
// It skips blank lines, `#` comment lines (the shebang included) and
// `set -e`/`-u`/`-eu`. Assignments set the environment, cd/mkdir/rm
// change the filesystem model, and echo writes its arguments to stdout.
// Any other statement, control flow, pipelines and redirections
// included, is not interpreted: its words are recorded as one stdout
// line. The only error it returns is for a cd without exactly one
// argument.
func EvalPosix(script string, s *AbstractState) (*AbstractState, error) {
	cur := s
	for _, rawLine := range splitStatements(script) {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "set -eu" || line == "set -e" || line == "set -u" {
			continue
		}
		var err error
		cur, err = evalPosixStatement(line, cur)
		if err != nil {
			return cur, err
		}
	}
	return cur, nil
}

// splitStatements breaks a script into `;`- and newline-separated
// statements, honoring double-quoted segments so a `;` inside a
// quoted string argument isn't mistaken for a separator.
func splitStatements(script string) []string {
	var stmts []string
	var cur strings.Builder
	inQuotes := false
	for i := 0; i < len(script); i++ {
		c := script[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
			cur.WriteByte(c)
		case (c == ';' || c == '\n') && !inQuotes:
			stmts = append(stmts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		stmts = append(stmts, cur.String())
	}
	return stmts
}

func evalPosixStatement(line string, s *AbstractState) (*AbstractState, error) {
	if m := assignRe.FindStringSubmatch(line); m != nil {
		s.SetEnv(m[1], unquote(expandVars(m[2], s)))
		return s, nil
	}

	fields := tokenizeWords(line)
	if len(fields) == 0 {
		return s, nil
	}
	program := fields[0]
	args := make([]string, len(fields)-1)
	for i, f := range fields[1:] {
		args[i] = unquote(expandVars(f, s))
	}

	switch program {
	case "cd":
		if len(args) != 1 {
			return s, fmt.Errorf("eval_posix: cd requires exactly one argument: %q", line)
		}
		_ = s.ChangeDirectory(args[0])
		return s, nil
	case "mkdir":
		_ = s.CreateDirectory(lastNonFlag(args))
		return s, nil
	case "rm":
		_ = s.RemoveEntry(lastNonFlag(args))
		return s, nil
	case "echo":
		s.WriteStdout(strings.Join(args, " "))
		return s, nil
	default:
		s.WriteStdout(strings.TrimSpace(program + " " + strings.Join(args, " ")))
		return s, nil
	}
}

// tokenizeWords splits on unquoted whitespace, keeping double-quoted
// segments intact.
func tokenizeWords(line string) []string {
	var words []string
	var cur strings.Builder
	inQuotes := false
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
			cur.WriteByte(c)
		case (c == ' ' || c == '\t') && !inQuotes:
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return words
}

// expandVars substitutes $NAME / ${NAME} references against the
// current state's environment, the only expansion form the tiny
// subset's emitted output uses.
func expandVars(word string, s *AbstractState) string {
	var b strings.Builder
	for i := 0; i < len(word); i++ {
		if word[i] != '$' || i+1 >= len(word) {
			b.WriteByte(word[i])
			continue
		}
		rest := word[i+1:]
		braced := strings.HasPrefix(rest, "{")
		name := rest
		if braced {
			name = rest[1:]
		}
		end := 0
		for end < len(name) && (isNameByte(name[end], end == 0)) {
			end++
		}
		if end == 0 {
			b.WriteByte(word[i])
			continue
		}
		varName := name[:end]
		val, _ := s.GetEnv(varName)
		b.WriteString(val)
		i += len(varName)
		if braced {
			i += 2 // "{" + "}"
		}
	}
	return b.String()
}

func isNameByte(c byte, first bool) bool {
	if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
		return true
	}
	if !first && c >= '0' && c <= '9' {
		return true
	}
	return false
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
