package lint

import "strings"

func isPipedToShell(line string) bool {
	for _, pat := range []string{"| sh", "| bash", "|sh", "|bash", "| sudo sh", "| sudo bash"} {
		if strings.Contains(line, pat) {
			return true
		}
	}
	return false
}

// CheckSEC008 flags `curl`/`wget` piped directly into a shell
// interpreter — no auto-fix, since the right remediation is a
// download-then-inspect workflow change (§4.7).
func CheckSEC008(source string) LintResult {
	var result LintResult

	for lineIdx, line := range strings.Split(source, "\n") {
		lineNum := lineIdx + 1
		if isCommentLine(line) {
			continue
		}
		hasCurlOrWget := strings.Contains(line, "curl") || strings.Contains(line, "wget")
		if !hasCurlOrWget || !strings.Contains(line, "|") || !isPipedToShell(line) {
			continue
		}
		pipeCol := strings.Index(line, "|")
		endCol := len(line)
		if pipeCol+10 < endCol {
			endCol = pipeCol + 10
		}
		result.Add(Diagnostic{
			Code:     "SEC008",
			Severity: Error,
			Message:  "CRITICAL: Piping curl/wget to shell - download and inspect first",
			Span:     NewSpan(lineNum, pipeCol+1, endCol),
		})
	}

	return result
}
