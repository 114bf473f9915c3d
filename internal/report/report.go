// Package report renders pipeline results as human-readable text for the
// CLI: quality reports, validation outcomes, and finished migration jobs.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/gookit/color"

	"github.com/dbsmedya/migrion/internal/executor"
	"github.com/dbsmedya/migrion/internal/mapping"
	"github.com/dbsmedya/migrion/internal/profiler"
)

// Renderer formats results as text. With color disabled the output is plain
// ASCII, suitable for piping into files.
type Renderer struct {
	colored bool
}

// New creates a Renderer. Pass colored=false for non-TTY output.
func New(colored bool) *Renderer {
	return &Renderer{colored: colored}
}

func (r *Renderer) paint(c color.Color, s string) string {
	if !r.colored {
		return s
	}
	return c.Render(s)
}

func (r *Renderer) severity(s profiler.Severity) string {
	switch s {
	case profiler.SeverityHigh:
		return r.paint(color.FgRed, string(s))
	case profiler.SeverityMedium:
		return r.paint(color.FgYellow, string(s))
	default:
		return string(s)
	}
}

// Quality renders a dataset quality report.
func (r *Renderer) Quality(report *profiler.QualityReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Dataset %s: %d records, quality score %.2f\n\n",
		report.Dataset, report.RecordCount, report.Score)

	t := newTable("FIELD", "TYPE", "COMPLETE", "UNIQUE", "PII", "SAMPLES")
	for _, fp := range report.Profiles {
		pii := ""
		if fp.PIILikely {
			pii = r.paint(color.FgYellow, "likely")
		}
		t.addRow(fp.Name, string(fp.InferredType),
			fmt.Sprintf("%.2f", fp.Completeness),
			fmt.Sprintf("%.2f", fp.Uniqueness),
			pii,
			strings.Join(fp.Samples, ", "))
	}
	t.render(&b)

	if len(report.Issues) > 0 {
		b.WriteString("\nIssues:\n")
		for _, issue := range report.Issues {
			fmt.Fprintf(&b, "  [%s] %s (%s): %s\n",
				r.severity(issue.Severity), issue.Field, issue.Kind, issue.Detail)
		}
	}

	if len(report.Recommendations) > 0 {
		b.WriteString("\nRecommendations:\n")
		for _, rec := range report.Recommendations {
			fmt.Fprintf(&b, "  - %s\n", rec)
		}
	}

	return b.String()
}

// Validation renders the accepted rules and the rejected candidates.
func (r *Renderer) Validation(rs *mapping.RuleSet, rejected []mapping.Rejected) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Validated mapping: %d rule(s), %d candidate(s) rejected\n\n",
		len(rs.Rules), len(rejected))

	if len(rs.Rules) > 0 {
		t := newTable("TARGET", "SOURCE", "TRANSFORM", "CONFIDENCE", "")
		for _, rule := range rs.Rules {
			note := ""
			if rule.Downgraded {
				note = r.paint(color.FgYellow, "downgraded")
			}
			t.addRow(rule.TargetField, rule.SourceField,
				string(rule.Transform.Kind),
				fmt.Sprintf("%.2f", rule.Confidence), note)
		}
		t.render(&b)
	}

	if len(rejected) > 0 {
		b.WriteString("\nRejected candidates:\n")
		for _, rej := range rejected {
			line := fmt.Sprintf("  %s -> %s: %s", rej.Candidate.SourceField,
				rej.Candidate.TargetField, rej.Reason)
			if rej.Detail != "" {
				line += " (" + rej.Detail + ")"
			}
			b.WriteString(r.paint(color.FgRed, line) + "\n")
		}
	}

	return b.String()
}

func (r *Renderer) state(s executor.State) string {
	switch s {
	case executor.StateCompleted:
		return r.paint(color.FgGreen, string(s))
	case executor.StateFailed:
		return r.paint(color.FgRed, string(s))
	case executor.StateCancelled:
		return r.paint(color.FgYellow, string(s))
	default:
		return string(s)
	}
}

func (r *Renderer) outcome(o executor.BatchOutcome) string {
	switch o {
	case executor.BatchCommitted:
		return r.paint(color.FgGreen, string(o))
	case executor.BatchFailed:
		return r.paint(color.FgRed, string(o))
	case executor.BatchSkipped, executor.BatchPending:
		return r.paint(color.FgYellow, string(o))
	default:
		return string(o)
	}
}

// Job renders a finished migration job.
func (r *Renderer) Job(result *executor.JobResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Job %s %s (%s policy, %s)\n",
		result.JobID, r.state(result.State), result.Policy,
		result.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "Records: %d committed, %d failed of %d attempted; batches %d/%d\n\n",
		result.Progress.RecordsCommitted, result.Progress.RecordsFailed,
		result.Progress.RecordsAttempted,
		result.Progress.BatchesDone, result.Progress.BatchesTotal)

	t := newTable("BATCH", "RECORDS", "OUTCOME", "ATTEMPTS", "ERROR")
	for _, batch := range result.Batches {
		errText := batch.Error
		if len(errText) > 60 {
			errText = errText[:57] + "..."
		}
		t.addRow(fmt.Sprintf("%d", batch.Ordinal),
			fmt.Sprintf("%d", batch.Size()),
			r.outcome(batch.Outcome),
			fmt.Sprintf("%d", batch.Attempts),
			errText)
	}
	t.render(&b)

	if v := result.Verification; v != nil {
		b.WriteString("\nVerification (" + v.Method + "): ")
		if v.OK() {
			b.WriteString(r.paint(color.FgGreen, "ok") + "\n")
		} else {
			b.WriteString(r.paint(color.FgRed, fmt.Sprintf("%d mismatch(es)", len(v.Mismatches))) + "\n")
			for _, m := range v.Mismatches {
				fmt.Fprintf(&b, "  [%s] %s\n", m.Kind, m.Detail)
			}
		}
	}

	return b.String()
}
