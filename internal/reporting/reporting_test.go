package reporting

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digimosa/gdpr-scan/internal/models"
	"github.com/digimosa/gdpr-scan/internal/rules"
	"github.com/digimosa/gdpr-scan/internal/scoring"
)

func sampleResult(t *testing.T) *models.ScanResult {
	t.Helper()
	res, err := scoring.Aggregate([]models.ArtifactResult{
		{
			FilePath: "billing.go",
			Findings: []models.Finding{{
				File:           "billing.go",
				Line:           2,
				Columns:        models.ColumnRange{Start: 14, End: 46},
				Type:           "API_KEY",
				RuleID:         "stripe_secret_key",
				Category:       models.CategorySecret,
				Confidence:     1,
				RiskLevel:      models.RiskHigh,
				Entropy:        4.75,
				RegionFlags:    []string{"GDPR-Art32"},
				MatchedText:    "sk_l************************p7dc",
				ContextSnippet: `const key = "sk_l************************p7dc";`,
				Fingerprint:    "abc",
				CommitInfo:     &models.CommitInfo{Author: "dev@bedrijf.nl", CommitID: "deadbeef"},
			}},
		},
		{
			FilePath: "users.csv",
			Findings: []models.Finding{{
				File:      "users.csv",
				Line:      3,
				Type:      "EMAIL",
				RuleID:    "email",
				Category:  models.CategoryPII,
				RiskLevel: models.RiskMedium,
			}},
		},
		{FilePath: "big.bin", Error: models.NewArtifactError("big.bin", models.ErrKindTooLarge, "", nil)},
	}, scoring.DefaultScoringConfig())
	require.NoError(t, err)
	res.ScanID = "6f1c1c1e-0000-4000-8000-000000000001"
	res.Timestamp = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	res.Region = "NL"
	res.Scope = "local:."
	return res
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleResult(t)))

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	for _, key := range []string{
		"scan_id", "timestamp", "region", "file_count", "total_pii_found", "high_risk_count",
		"compliance_score", "principle_scores", "errors", "artifacts",
	} {
		assert.Contains(t, doc, key)
	}
	assert.Equal(t, "NL", doc["region"])
	assert.Equal(t, 93.0, doc["compliance_score"])

	artifacts := doc["artifacts"].([]interface{})
	require.Len(t, artifacts, 3)
	first := artifacts[1].(map[string]interface{})
	finding := first["findings"].([]interface{})[0].(map[string]interface{})
	for _, key := range []string{"file", "line", "type", "entropy", "region_flags", "context_snippet", "commit_info", "rule_id", "confidence", "risk_level"} {
		assert.Contains(t, finding, key)
	}
	assert.Equal(t, "deadbeef", finding["commit_info"].(map[string]interface{})["commit_id"])
	assert.NotContains(t, buf.String(), "scan_duration")
}

func TestSaveJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, SaveJSON(path, sampleResult(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var res models.ScanResult
	require.NoError(t, json.Unmarshal(data, &res))
	assert.Equal(t, 2, res.TotalPIIFound)
	assert.Equal(t, models.ErrKindTooLarge, res.Errors[0].Kind)

	assert.Error(t, SaveJSON(filepath.Join(t.TempDir(), "missing", "report.json"), sampleResult(t)))
}

func TestWriteSARIF(t *testing.T) {
	reg, err := rules.Load(rules.Defaults())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSARIF(&buf, sampleResult(t), reg))

	var doc struct {
		Version string `json:"version"`
		Runs    []struct {
			Tool struct {
				Driver struct {
					Name  string `json:"name"`
					Rules []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID    string `json:"ruleId"`
				Level     string `json:"level"`
				Locations []struct {
					PhysicalLocation struct {
						ArtifactLocation struct {
							URI string `json:"uri"`
						} `json:"artifactLocation"`
						Region struct {
							StartLine int `json:"startLine"`
						} `json:"region"`
					} `json:"physicalLocation"`
				} `json:"locations"`
			} `json:"results"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "2.1.0", doc.Version)
	require.Len(t, doc.Runs, 1)
	run := doc.Runs[0]
	assert.Equal(t, "gdpr-scan", run.Tool.Driver.Name)
	require.Len(t, run.Tool.Driver.Rules, 2)
	assert.Equal(t, "email", run.Tool.Driver.Rules[0].ID)

	require.Len(t, run.Results, 2)
	assert.Equal(t, "stripe_secret_key", run.Results[0].RuleID)
	assert.Equal(t, "error", run.Results[0].Level)
	assert.Equal(t, "billing.go", run.Results[0].Locations[0].PhysicalLocation.ArtifactLocation.URI)
	assert.Equal(t, 2, run.Results[0].Locations[0].PhysicalLocation.Region.StartLine)
	assert.Equal(t, "warning", run.Results[1].Level)
	assert.NotContains(t, buf.String(), "sk_live")
}

func TestSchema(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSchema(&buf))
	out := buf.String()
	for _, key := range []string{"compliance_score", "region_flags", "principle_scores", "commit_info"} {
		assert.Contains(t, out, key)
	}
	assert.NotContains(t, out, "ScanDuration")
}

func TestPrintSummary(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	res := sampleResult(t)
	PrintSummary(&buf, res)
	out := buf.String()

	assert.Contains(t, out, "Files scanned: 2 of 3")
	assert.Contains(t, out, "[FOUND] billing.go: 1 findings")
	assert.Contains(t, out, "  - API_KEY line 2 (High, confidence 1.00)")
	assert.Contains(t, out, "[ERROR] big.bin: too_large")
	assert.Contains(t, out, "Findings: 2 (High 1, Medium 1, Low 0), suppressed 0")
	assert.Contains(t, out, "Compliance score: 93.00")
	assert.NotContains(t, out, "Partial result")

	res.Partial = true
	buf.Reset()
	PrintSummary(&buf, res)
	assert.Contains(t, buf.String(), "Partial result")
}
