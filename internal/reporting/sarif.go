package reporting

import (
	"fmt"
	"io"
	"sort"

	"github.com/owenrumney/go-sarif/sarif"

	"github.com/digimosa/gdpr-scan/internal/models"
	"github.com/digimosa/gdpr-scan/internal/rules"
)

const (
	toolName = "gdpr-scan"
	toolURI  = "https://github.com/digimosa/gdpr-scan"
)

func sarifLevel(r models.RiskLevel) string {
	switch r {
	case models.RiskHigh:
		return "error"
	case models.RiskMedium:
		return "warning"
	}
	return "note"
}

// ToSARIF converts the findings of a scan into a SARIF 2.1.0 log. reg is
// optional and only supplies rule descriptions.
func ToSARIF(res *models.ScanResult, reg *rules.Registry) (*sarif.Report, error) {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, err
	}
	run := sarif.NewRun(toolName, toolURI)

	findings := res.Findings()
	ruleIDs := make(map[string]bool)
	for _, f := range findings {
		ruleIDs[f.RuleID] = true
	}
	ids := make([]string, 0, len(ruleIDs))
	for id := range ruleIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		desc := id
		if reg != nil {
			if r, ok := reg.Rule(id); ok && r.Description != "" {
				desc = r.Description
			}
		}
		run.AddRule(id).WithDescription(desc)
	}

	for _, f := range findings {
		msg := fmt.Sprintf("%s detected (%s risk, confidence %.2f)", f.Type, f.RiskLevel, f.Confidence)
		if len(f.RegionFlags) > 0 {
			msg += fmt.Sprintf(" %v", f.RegionFlags)
		}
		run.AddResult(f.RuleID).
			WithLevel(sarifLevel(f.RiskLevel)).
			WithMessage(sarif.NewTextMessage(msg)).
			WithLocation(
				sarif.NewLocationWithPhysicalLocation(
					sarif.NewPhysicalLocation().
						WithArtifactLocation(sarif.NewSimpleArtifactLocation(f.File)).
						WithRegion(sarif.NewSimpleRegion(f.Line, f.Line)),
				),
			)
	}

	report.AddRun(run)
	return report, nil
}

func WriteSARIF(w io.Writer, res *models.ScanResult, reg *rules.Registry) error {
	report, err := ToSARIF(res, reg)
	if err != nil {
		return err
	}
	return report.PrettyWrite(w)
}

func SaveSARIF(filename string, res *models.ScanResult, reg *rules.Registry) error {
	return save(filename, func(w io.Writer) error { return WriteSARIF(w, res, reg) })
}
