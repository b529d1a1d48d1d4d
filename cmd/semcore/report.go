package main

import (
	"fmt"

	"github.com/sunholo/semcore/internal/diag"
)

// printReport renders one structured diagnostic the way a terminal
// host would: severity-colored prefix, code, message, and span if one
// was attached.
func printReport(r *diag.Report) {
	label := severityLabel(r.Severity)
	if r.Span != nil {
		fmt.Printf("  %s[%s] %s:%d:%d: %s\n", label, r.Code, r.Span.File, r.Span.StartLine, r.Span.StartCol, r.Message)
		return
	}
	fmt.Printf("  %s[%s] %s\n", label, r.Code, r.Message)
}

func severityLabel(sev diag.Severity) string {
	switch sev {
	case diag.SeverityError:
		return red("error")
	case diag.SeverityWarning:
		return yellow("warning")
	case diag.SeverityLint:
		return cyan("lint")
	default:
		return bold("info")
	}
}
