package lint

import (
	"fmt"
	"strconv"
	"strings"
)

var validSignals = map[string]bool{
	"EXIT": true, "HUP": true, "INT": true, "QUIT": true, "TERM": true, "KILL": true,
	"USR1": true, "USR2": true, "PIPE": true, "ALRM": true, "CHLD": true, "CONT": true,
	"STOP": true, "TSTP": true, "TTIN": true, "TTOU": true, "ERR": true, "DEBUG": true,
	"RETURN": true, "SIGTERM": true, "SIGINT": true, "SIGHUP": true, "SIGQUIT": true,
	"SIGKILL": true, "SIGUSR1": true, "SIGUSR2": true, "SIGPIPE": true,
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// validateTrap checks the signal names and command-quoting style of
// one `trap` line, grounded on signal001.rs's validate_trap (F096).
func validateTrap(line string, lineNum int, result *LintResult) {
	parts := strings.Fields(line)
	trapIdx := -1
	for i, p := range parts {
		if p == "trap" {
			trapIdx = i
			break
		}
	}
	if trapIdx < 0 {
		return
	}

	if len(parts) > trapIdx+1 && (parts[trapIdx+1] == "''" || parts[trapIdx+1] == `""`) {
		return
	}

	for _, part := range parts[trapIdx+1:] {
		if strings.HasPrefix(part, "'") || strings.HasPrefix(part, `"`) || strings.HasPrefix(part, "$") {
			continue
		}
		if num, err := strconv.Atoi(part); err == nil {
			if num > 64 {
				result.Add(Diagnostic{
					Code:     "SIGNAL001",
					Severity: Warning,
					Message:  fmt.Sprintf("Invalid signal number %d in trap (F096)", num),
					Span:     NewSpan(lineNum, 1, min(len(line), 80)),
				})
			}
			continue
		}
		upper := strings.ToUpper(part)
		looksLikeSignal := strings.HasPrefix(upper, "SIG") || validSignals[upper]
		if looksLikeSignal && !validSignals[upper] {
			result.Add(Diagnostic{
				Code:     "SIGNAL001",
				Severity: Warning,
				Message:  fmt.Sprintf("Unrecognized signal name '%s' in trap (F096)", part),
				Span:     NewSpan(lineNum, 1, min(len(line), 80)),
			})
		}
	}

	if len(parts) > trapIdx+2 {
		cmd := parts[trapIdx+1]
		if !strings.HasPrefix(cmd, "'") && !strings.HasPrefix(cmd, `"`) && cmd != "''" && cmd != `""` {
			if !strings.HasPrefix(cmd, "-") && len(cmd) > 1 {
				result.Add(Diagnostic{
					Code:     "SIGNAL001",
					Severity: Info,
					Message:  "Consider quoting trap command to prevent early expansion (F096)",
					Span:     NewSpan(lineNum, 1, min(len(line), 80)),
				})
			}
		}
	}
}

// CheckSIGNAL001 validates trap syntax, PID-file write races, and
// background-job/cleanup discipline (§4.7, F096-F100).
func CheckSIGNAL001(source string) LintResult {
	var result LintResult

	hasBackgroundJob, hasWait := false, false
	hasPIDFileWrite, hasCleanupTrap := false, false

	lines := strings.Split(source, "\n")
	for lineIdx, line := range lines {
		lineNum := lineIdx + 1
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			continue
		}

		if strings.HasPrefix(trimmed, "trap ") || strings.Contains(trimmed, " trap ") {
			validateTrap(trimmed, lineNum, &result)
			if strings.Contains(trimmed, "EXIT") || strings.Contains(trimmed, "TERM") ||
				strings.Contains(trimmed, "INT") || strings.Contains(trimmed, "cleanup") ||
				strings.Contains(trimmed, "rm ") {
				hasCleanupTrap = true
			}
		}

		if (strings.Contains(trimmed, "echo $$") || (strings.Contains(trimmed, "printf") && strings.Contains(trimmed, "$$"))) &&
			(strings.Contains(trimmed, "> ") || strings.Contains(trimmed, ">>")) &&
			strings.Contains(trimmed, ".pid") {
			hasPIDFileWrite = true
			if !strings.Contains(trimmed, "exec") && !strings.Contains(trimmed, "flock") {
				result.Add(Diagnostic{
					Code:     "SIGNAL001",
					Severity: Info,
					Message:  "PID file write may have race condition - consider atomic write pattern (F098)",
					Span:     NewSpan(lineNum, 1, min(len(trimmed), 80)),
				})
			}
		}

		if strings.HasSuffix(trimmed, " &") || strings.Contains(trimmed, " & ") {
			hasBackgroundJob = true
		}
		if trimmed == "wait" || strings.HasPrefix(trimmed, "wait ") || strings.Contains(trimmed, "; wait") {
			hasWait = true
		}

		if (strings.HasPrefix(trimmed, "exit ") || trimmed == "exit") && hasPIDFileWrite && !hasCleanupTrap {
			result.Add(Diagnostic{
				Code:     "SIGNAL001",
				Severity: Warning,
				Message:  "Exit without cleanup trap - PID file may not be removed (F100)",
				Span:     NewSpan(lineNum, 1, min(len(trimmed), 80)),
			})
		}
	}

	if hasBackgroundJob && !hasWait {
		result.Add(Diagnostic{
			Code:     "SIGNAL001",
			Severity: Info,
			Message:  "Background job(s) without 'wait' - may leave zombie processes (F099)",
			Span:     NewSpan(1, 1, 1),
		})
	}

	return result
}
