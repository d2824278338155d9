package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/devamjariwala24/pycodeadvisor/internal/core/config"
	"github.com/devamjariwala24/pycodeadvisor/internal/pipeline"
)

func render(w io.Writer, out config.OutputConfig, report *pipeline.Report) error {
	if out.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return renderText(w, out, report)
}

func renderText(w io.Writer, out config.OutputConfig, report *pipeline.Report) error {
	var b strings.Builder

	if len(report.Findings) == 0 {
		fmt.Fprintf(&b, "No faults found in %d file(s).\n", report.Summary.FilesScanned)
	}

	for i, f := range report.Findings {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, f.Event.String())
		if len(f.Event.Context) > 0 {
			for _, line := range strings.Split(f.Event.ContextSnippet(), "\n") {
				fmt.Fprintf(&b, "    %s\n", line)
			}
		}
		fmt.Fprintf(&b, "  Explanation: %s\n", f.Recommendation.Explanation)
		fmt.Fprintf(&b, "  Suggested fix: %s\n", f.Recommendation.SuggestedFix)
		fmt.Fprintf(&b, "  Confidence: %.2f (%s)\n", f.Recommendation.Confidence, f.Recommendation.Source)
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "Scanned %d file(s), %d fault(s): %d cached, %d fresh, %d local.\n",
		report.Summary.FilesScanned, report.Summary.Faults,
		report.Summary.Cached, report.Summary.Fresh, report.Summary.Local)
	if report.Summary.Truncated > 0 {
		fmt.Fprintf(&b, "Warning: %d file(s) skipped past the max_files ceiling.\n", report.Summary.Truncated)
	}
	for _, s := range report.Summary.Skipped {
		fmt.Fprintf(&b, "Warning: skipped unreadable file %s\n", s.Path)
	}
	if out.Verbose {
		fmt.Fprintf(&b, "Run %s finished in %s.\n", report.RunID, report.Summary.Duration)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
