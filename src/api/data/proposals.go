package data

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/DeImOs-Sj/Dgk-gov/src/api/types"
)

// ErrAlreadyPublished is returned when a conditional publish update
// finds the UAL already set.
var ErrAlreadyPublished = errors.New("already published")

// Store is the persistence handle passed to handlers. It owns every
// entity; nothing else touches the database.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store { return &Store{db: db} }

func (s *Store) InsertProposal(p *types.Proposal) error {
	return s.db.Create(p).Error
}

func (s *Store) GetProposal(index uint64) (*types.Proposal, error) {
	var p types.Proposal
	if err := s.db.First(&p, "referendum_index = ?", index).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListProposals() ([]types.Proposal, error) {
	var out []types.Proposal
	err := s.db.Order("referendum_index desc").Find(&out).Error
	return out, err
}

func (s *Store) ListPublishedProposals() ([]types.Proposal, error) {
	var out []types.Proposal
	err := s.db.Where("ual IS NOT NULL").Order("referendum_index desc").Find(&out).Error
	return out, err
}

// MarkProposalPublished sets the DKG fields in a single conditional
// update. The "ual IS NULL" guard makes the publish a one-way door even
// under concurrent requests.
func (s *Store) MarkProposalPublished(index uint64, ual, assetID, txHash, explorerURL string) error {
	now := time.Now().UTC()
	res := s.db.Model(&types.Proposal{}).
		Where("referendum_index = ? AND ual IS NULL", index).
		Updates(map[string]any{
			"ual":                ual,
			"dkg_asset_id":       assetID,
			"dkg_tx_hash":        txHash,
			"dkg_status":         types.DKGPublished,
			"block_explorer_url": explorerURL,
			"published_at":       now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyPublished
	}
	return nil
}
