package lint

import "strings"

// CheckSEC004 flags TLS verification disabled on wget/curl (§4.7).
func CheckSEC004(source string) LintResult {
	var result LintResult

	for lineIdx, line := range strings.Split(source, "\n") {
		lineNum := lineIdx + 1

		if strings.Contains(line, "wget") && strings.Contains(line, "--no-check-certificate") {
			col := strings.Index(line, "--no-check-certificate")
			result.Add(Diagnostic{
				Code:     "SEC004",
				Severity: Warning,
				Message:  "TLS verification disabled in wget - MITM attack risk",
				Span:     NewSpan(lineNum, col+1, col+23),
			}.WithFix("# Remove --no-check-certificate"))
			continue
		}

		if strings.Contains(line, "curl") {
			if col := strings.Index(line, " -k"); col >= 0 {
				result.Add(Diagnostic{
					Code:     "SEC004",
					Severity: Warning,
					Message:  "TLS verification disabled in curl (-k) - MITM attack risk",
					Span:     NewSpan(lineNum, col+2, col+4),
				}.WithFix("# Remove -k"))
			} else if col := strings.Index(line, "--insecure"); col >= 0 {
				result.Add(Diagnostic{
					Code:     "SEC004",
					Severity: Warning,
					Message:  "TLS verification disabled in curl (--insecure) - MITM attack risk",
					Span:     NewSpan(lineNum, col+1, col+11),
				}.WithFix("# Remove --insecure"))
			}
		}
	}

	return result
}
