package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digimosa/gdpr-scan/internal/models"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "scans.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func scanResult(id, scope string, at time.Time, findings ...models.Finding) *models.ScanResult {
	var artifacts []models.ArtifactResult
	for _, f := range findings {
		artifacts = append(artifacts, models.ArtifactResult{FilePath: f.File, Findings: []models.Finding{f}})
	}
	return &models.ScanResult{
		ScanID:        id,
		Scope:         scope,
		Region:        "EU",
		Timestamp:     at,
		FileCount:     len(artifacts),
		TotalPIIFound: len(findings),
		Artifacts:     artifacts,
	}
}

func TestSaveAndLoadScan(t *testing.T) {
	s := openStore(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	res := scanResult("scan-1", "local:repo", at, models.Finding{
		File: "a.py", Line: 4, RuleID: "bsn", Type: "BSN", RiskLevel: models.RiskHigh,
		MatchedText: "1*******3", Fingerprint: models.Fingerprint("111222333"),
		CommitInfo: &models.CommitInfo{Author: "dev@bedrijf.nl", CommitID: "abc"},
	})
	res.Partial = true

	m, err := s.SaveScan(res)
	require.NoError(t, err)
	assert.NotZero(t, m.ID)
	assert.Equal(t, "Partial", m.Status)

	got, err := s.LatestScan("local:repo")
	require.NoError(t, err)
	require.Len(t, got.Findings, 1)
	assert.Equal(t, "abc", got.Findings[0].CommitID)
	assert.Equal(t, "1*******3", got.Findings[0].Value)

	env, err := got.Result()
	require.NoError(t, err)
	assert.Equal(t, "scan-1", env.ScanID)
	assert.True(t, env.Partial)
	assert.Equal(t, res.Findings(), env.Findings())
}

func TestLatestBaseline(t *testing.T) {
	s := openStore(t)
	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fp := models.Fingerprint("jan@bedrijf.nl")

	_, err := s.SaveScan(scanResult("scan-old", "local:repo", old,
		models.Finding{File: "a.py", Line: 1, RuleID: "email", RiskLevel: models.RiskMedium, Fingerprint: "stale"}))
	require.NoError(t, err)
	_, err = s.SaveScan(scanResult("scan-new", "local:repo", old.AddDate(0, 1, 0),
		models.Finding{File: "a.py", Line: 2, RuleID: "email", RiskLevel: models.RiskMedium, Fingerprint: fp}))
	require.NoError(t, err)
	_, err = s.SaveScan(scanResult("scan-other", "local:other", old.AddDate(0, 2, 0)))
	require.NoError(t, err)

	b, err := s.LatestBaseline("local:repo")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Len())
	assert.True(t, b.Contains("a.py", "email", 2, fp))
	assert.False(t, b.Contains("a.py", "email", 1, "stale"))

	scans, err := s.GetAllScans()
	require.NoError(t, err)
	require.Len(t, scans, 3)
	assert.Equal(t, "scan-other", scans[0].ScanID)

	_, err = s.LatestBaseline("local:nowhere")
	assert.True(t, errors.Is(err, ErrNoScans))
}

func TestDuplicateScanID(t *testing.T) {
	s := openStore(t)
	at := time.Now().UTC()
	_, err := s.SaveScan(scanResult("same", "x", at))
	require.NoError(t, err)
	_, err = s.SaveScan(scanResult("same", "x", at))
	assert.Error(t, err)
}
