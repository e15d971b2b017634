package lint

import (
	"fmt"
	"strings"
)

var hardcodedPathPatterns = []string{"/usr/bin/", "/usr/local/bin/", "/opt/", "/bin/", "/sbin/"}

func isShebangPath(line string) bool {
	for _, p := range []string{"/bin/bash", "/bin/sh", "/usr/bin/env", "/usr/bin/bash", "/usr/bin/sh"} {
		if strings.Contains(line, p) {
			return true
		}
	}
	return false
}

func isAcceptablePath(line, pattern string) bool {
	switch pattern {
	case "/dev/", "/tmp/", "/etc/", "/var/", "/proc/", "/sys/":
		return true
	}
	if pattern == "/bin/" || pattern == "/usr/bin/" {
		return isShebangPath(line)
	}
	return false
}

func isInVariableContext(line string) bool {
	if strings.Contains(line, "=") && !strings.Contains(line, "==") {
		beforeEquals := strings.SplitN(line, "=", 2)[0]
		allIdentChars := true
		for _, c := range beforeEquals {
			if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_') {
				allIdentChars = false
				break
			}
		}
		if allIdentChars {
			return true
		}
	}
	return false
}

// CheckBASH007 flags hardcoded absolute executable paths, which
// reduce portability across systems with different install layouts
// (§4.7).
func CheckBASH007(source string) LintResult {
	var result LintResult

	for lineIdx, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		codeOnly := trimmed
		if pos := strings.Index(trimmed, "#"); pos >= 0 {
			codeOnly = trimmed[:pos]
		}
		codeOnly = strings.TrimSpace(codeOnly)

		for _, pattern := range hardcodedPathPatterns {
			if !strings.Contains(codeOnly, pattern) {
				continue
			}
			if isAcceptablePath(codeOnly, pattern) || isInVariableContext(codeOnly) {
				continue
			}
			result.Add(Diagnostic{
				Code:     "BASH007",
				Severity: Warning,
				Message: fmt.Sprintf("Hardcoded absolute path '%s' reduces portability - use 'command -v' to find in PATH or use environment variable",
					strings.TrimSuffix(pattern, "/")),
				Span: NewSpan(lineIdx+1, 1, len(line)),
			})
			break
		}
	}

	return result
}
