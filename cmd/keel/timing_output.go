package main

import (
	"fmt"
	"io"

	"keel/internal/observ"
)

func printTimings(out io.Writer, label string, report observ.Report, cached bool) {
	if out == nil || len(report.Phases) == 0 {
		return
	}
	suffix := ""
	if cached {
		suffix = " (cached)"
	}
	fmt.Fprintf(out, "%s: %.1f ms%s\n", label, report.TotalMS, suffix)
	for _, p := range report.Phases {
		if p.Note != "" {
			fmt.Fprintf(out, "  %-8s %7.2f ms  %s\n", p.Name, p.DurationMS, p.Note)
			continue
		}
		fmt.Fprintf(out, "  %-8s %7.2f ms\n", p.Name, p.DurationMS)
	}
}
