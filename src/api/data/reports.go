package data

import (
	"time"

	"github.com/DeImOs-Sj/Dgk-gov/src/api/types"
)

func (s *Store) InsertReport(r *types.Report) error {
	return s.db.Create(r).Error
}

func (s *Store) GetReport(id uint64) (*types.Report, error) {
	var r types.Report
	if err := s.db.First(&r, "report_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) GetReportByPrivateHash(hash string) (*types.Report, error) {
	var r types.Report
	if err := s.db.First(&r, "private_data_hash = ?", hash).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) ListReportsByProposal(index uint64) ([]types.Report, error) {
	var out []types.Report
	err := s.db.Where("referendum_index = ?", index).
		Order("submitted_at desc").Find(&out).Error
	return out, err
}

func (s *Store) ListPremiumReportsByProposal(index uint64) ([]types.Report, error) {
	var out []types.Report
	err := s.db.Where("referendum_index = ? AND is_premium = ?", index, true).
		Order("submitted_at desc").Find(&out).Error
	return out, err
}

// UpdateVerification persists the verification outcome; issuesJSON is
// the JSON-serialized issue list.
func (s *Store) UpdateVerification(id uint64, status string, confidence float64, reasoning, issuesJSON string) error {
	now := time.Now().UTC()
	return s.db.Model(&types.Report{}).
		Where("report_id = ?", id).
		Updates(map[string]any{
			"verification_status": status,
			"ai_confidence":       confidence,
			"ai_reasoning":        reasoning,
			"verification_issues": issuesJSON,
			"verified_at":         now,
		}).Error
}

// MarkReportPublished sets the DKG fields once. Same conditional-update
// guard as MarkProposalPublished; a second publish attempt affects zero
// rows and leaves the existing fields untouched.
func (s *Store) MarkReportPublished(id uint64, ual, assetID, txHash, explorerURL string) error {
	now := time.Now().UTC()
	res := s.db.Model(&types.Report{}).
		Where("report_id = ? AND report_ual IS NULL", id).
		Updates(map[string]any{
			"report_ual":             ual,
			"dkg_asset_id":           assetID,
			"dkg_tx_hash":            txHash,
			"dkg_block_explorer_url": explorerURL,
			"dkg_published_at":       now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyPublished
	}
	return nil
}

// CreateMapping links a parent proposal UAL to a published report.
// Callers treat failures as best-effort: log and continue.
func (s *Store) CreateMapping(proposalUAL string, reportID uint64, reportUAL string) error {
	return s.db.Create(&types.UALMapping{
		ProposalUAL: proposalUAL,
		ReportID:    reportID,
		ReportUAL:   reportUAL,
	}).Error
}

func (s *Store) ListMappingsByProposalUAL(proposalUAL string) ([]types.UALMapping, error) {
	var out []types.UALMapping
	err := s.db.Where("proposal_ual = ?", proposalUAL).Find(&out).Error
	return out, err
}
