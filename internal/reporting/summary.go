package reporting

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"

	"github.com/digimosa/gdpr-scan/internal/models"
)

var (
	infoColor    = color.New(color.FgBlue).SprintFunc()
	successColor = color.New(color.FgGreen).SprintFunc()
	warningColor = color.New(color.FgYellow).SprintFunc()
	errorColor   = color.New(color.FgRed).SprintFunc()
	alertColor   = color.New(color.FgRed, color.Bold).SprintFunc()
)

func riskColor(r models.RiskLevel) func(...interface{}) string {
	switch r {
	case models.RiskHigh:
		return alertColor
	case models.RiskMedium:
		return warningColor
	}
	return infoColor
}

func scoreColor(score float64) func(...interface{}) string {
	switch {
	case score >= 90:
		return successColor
	case score >= 60:
		return warningColor
	}
	return errorColor
}

// PrintSummary writes a human readable overview of the scan.
func PrintSummary(w io.Writer, res *models.ScanResult) {
	fmt.Fprintf(w, "Scan %s (region %s) of %s\n", res.ScanID, res.Region, res.Scope)
	fmt.Fprintf(w, "Files scanned: %d of %d\n", res.FileCount, res.FilesAttempted)

	for _, a := range res.Artifacts {
		if len(a.Findings) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s %s: %d findings\n", alertColor("[FOUND]"), a.FilePath, len(a.Findings))
		for _, f := range a.Findings {
			fmt.Fprintf(w, "  - %s line %d (%s, confidence %.2f)\n", f.Type, f.Line, riskColor(f.RiskLevel)(f.RiskLevel), f.Confidence)
		}
	}
	for _, e := range res.Errors {
		fmt.Fprintf(w, "%s %s: %s\n", errorColor("[ERROR]"), e.Path, e.Kind)
	}

	fmt.Fprintf(w, "\nFindings: %d (High %d, Medium %d, Low %d), suppressed %d\n",
		res.TotalPIIFound,
		res.CountsByRisk[models.RiskHigh], res.CountsByRisk[models.RiskMedium], res.CountsByRisk[models.RiskLow],
		res.SuppressedCount)
	fmt.Fprintf(w, "Compliance score: %s\n", scoreColor(res.ComplianceScore)(fmt.Sprintf("%.2f", res.ComplianceScore)))

	principles := make([]string, 0, len(res.PrincipleScores))
	for p := range res.PrincipleScores {
		principles = append(principles, p)
	}
	sort.Strings(principles)
	for _, p := range principles {
		s := res.PrincipleScores[p]
		fmt.Fprintf(w, "  %-26s %s\n", p, scoreColor(s)(fmt.Sprintf("%6.2f", s)))
	}

	if res.Partial {
		fmt.Fprintln(w, warningColor("Partial result: the scan was interrupted before every artifact was processed."))
	}
}
