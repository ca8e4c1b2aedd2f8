package data

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/DeImOs-Sj/Dgk-gov/src/api/types"
)

// GetAccessRecord looks up the record for a (report, wallet) pair.
// Wallet comparison is case-insensitive.
func (s *Store) GetAccessRecord(reportID uint64, wallet string) (*types.PremiumAccess, error) {
	var rec types.PremiumAccess
	err := s.db.First(&rec, "report_id = ? AND LOWER(user_wallet) = ?",
		reportID, strings.ToLower(wallet)).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) CreateAccess(rec *types.PremiumAccess) error {
	return s.db.Create(rec).Error
}

func (s *Store) GrantAccess(accessID uint64) error {
	return s.db.Model(&types.PremiumAccess{}).
		Where("access_id = ?", accessID).
		Update("access_granted", true).Error
}

func (s *Store) ListAccessByWallet(wallet string) ([]types.PremiumAccess, error) {
	var out []types.PremiumAccess
	err := s.db.Where("LOWER(user_wallet) = ?", strings.ToLower(wallet)).
		Order("created_at desc").Find(&out).Error
	return out, err
}

// HasAccess reports whether wallet holds a granted record for the
// report. Missing records are simply "no access", not an error.
func (s *Store) HasAccess(reportID uint64, wallet string) (bool, error) {
	rec, err := s.GetAccessRecord(reportID, wallet)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return rec.AccessGranted, nil
}
