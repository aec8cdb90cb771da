package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/digimosa/gdpr-scan/internal/models"
	"github.com/digimosa/gdpr-scan/internal/suppress"
)

var ErrNoScans = errors.New("no stored scans")

type ScanModel struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	ScanID          string         `gorm:"uniqueIndex" json:"scan_id"`
	Scope           string         `gorm:"index" json:"scope"`
	Region          string         `json:"region"`
	Status          string         `json:"status"` // "Completed" or "Partial"
	Timestamp       time.Time      `gorm:"index" json:"timestamp"`
	FileCount       int            `json:"file_count"`
	FilesAttempted  int            `json:"files_attempted"`
	TotalFindings   int            `json:"total_findings"`
	HighRiskCount   int            `json:"high_risk_count"`
	ComplianceScore float64        `json:"compliance_score"`
	Envelope        []byte         `json:"-"`
	Findings        []FindingModel `gorm:"foreignKey:ScanID" json:"findings"`
}

type FindingModel struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	ScanID      uint    `gorm:"index" json:"scan_id"`
	FilePath    string  `json:"file_path"`
	Line        int     `json:"line"`
	RuleID      string  `json:"rule_id"`
	Type        string  `json:"type"`
	RiskLevel   string  `json:"risk_level"`
	Confidence  float64 `json:"confidence"`
	Value       string  `json:"value"` // Redacted snippet when redaction is on
	Fingerprint string  `json:"fingerprint"`
	Author      string  `json:"author,omitempty"`
	CommitID    string  `json:"commit_id,omitempty"`
}

// Store persists scan envelopes in sqlite.
type Store struct {
	DB *gorm.DB
}

func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&ScanModel{}, &FindingModel{}); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveScan stores the envelope as-is plus one row per finding.
func (s *Store) SaveScan(res *models.ScanResult) (*ScanModel, error) {
	envelope, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("failed to encode scan %s: %w", res.ScanID, err)
	}

	status := "Completed"
	if res.Partial {
		status = "Partial"
	}
	m := &ScanModel{
		ScanID:          res.ScanID,
		Scope:           res.Scope,
		Region:          res.Region,
		Status:          status,
		Timestamp:       res.Timestamp,
		FileCount:       res.FileCount,
		FilesAttempted:  res.FilesAttempted,
		TotalFindings:   res.TotalPIIFound,
		HighRiskCount:   res.HighRiskCount,
		ComplianceScore: res.ComplianceScore,
		Envelope:        envelope,
	}
	for _, f := range res.Findings() {
		fm := FindingModel{
			FilePath:    f.File,
			Line:        f.Line,
			RuleID:      f.RuleID,
			Type:        f.Type,
			RiskLevel:   string(f.RiskLevel),
			Confidence:  f.Confidence,
			Value:       f.MatchedText,
			Fingerprint: f.Fingerprint,
		}
		if f.CommitInfo != nil {
			fm.Author = f.CommitInfo.Author
			fm.CommitID = f.CommitInfo.CommitID
		}
		m.Findings = append(m.Findings, fm)
	}

	if err := s.DB.Create(m).Error; err != nil {
		return nil, fmt.Errorf("failed to store scan %s: %w", res.ScanID, err)
	}
	return m, nil
}

func (s *Store) GetAllScans() ([]ScanModel, error) {
	var scans []ScanModel
	err := s.DB.Order("timestamp desc, id desc").Find(&scans).Error
	return scans, err
}

// LatestScan returns the most recent scan of scope with its findings.
func (s *Store) LatestScan(scope string) (*ScanModel, error) {
	var scan ScanModel
	err := s.DB.Preload("Findings").
		Where("scope = ?", scope).
		Order("timestamp desc, id desc").
		First(&scan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w for %s", ErrNoScans, scope)
	}
	return &scan, err
}

// Result decodes the stored envelope.
func (m *ScanModel) Result() (*models.ScanResult, error) {
	var res models.ScanResult
	if err := json.Unmarshal(m.Envelope, &res); err != nil {
		return nil, fmt.Errorf("failed to decode stored scan %s: %w", m.ScanID, err)
	}
	return &res, nil
}

// LatestBaseline builds a baseline from the most recent scan of scope.
func (s *Store) LatestBaseline(scope string) (*suppress.Baseline, error) {
	scan, err := s.LatestScan(scope)
	if err != nil {
		return nil, err
	}
	entries := make([]suppress.BaselineEntry, 0, len(scan.Findings))
	for _, f := range scan.Findings {
		entries = append(entries, suppress.BaselineEntry{
			File:        f.FilePath,
			RuleID:      f.RuleID,
			Line:        f.Line,
			Fingerprint: f.Fingerprint,
		})
	}
	return suppress.NewBaseline(entries...), nil
}
