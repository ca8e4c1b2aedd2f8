package types

import "time"

// DKG publication states shared by proposals and reports.
const (
	DKGNotPublished = "not_published"
	DKGPending      = "pending"
	DKGPublished    = "published"
	DKGFailed       = "failed"
)

// Report verification states.
const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
	VerificationRejected = "rejected"
)

// Report author classification.
const (
	AuthorAdmin     = "admin"
	AuthorCommunity = "community"
)

// Governance proposals mirrored from chain by an external ingester.
// The referendum index is assigned on-chain and used as primary key.
type Proposal struct {
	ReferendumIndex    uint64 `gorm:"primaryKey" json:"referendum_index"`
	Title              string `gorm:"size:512;not null" json:"title"`
	Summary            string `gorm:"type:text" json:"summary"`
	Status             string `gorm:"size:64;index" json:"status"`
	Origin             string `gorm:"size:64" json:"origin"`
	ProposerAddress    string `gorm:"size:128" json:"proposer_address"`
	BeneficiaryAddress string `gorm:"size:128" json:"beneficiary_address"`
	AyesAmount         string `gorm:"size:64" json:"ayes_amount"`
	NaysAmount         string `gorm:"size:64" json:"nays_amount"`
	RequestedAmount    string `gorm:"size:64" json:"requested_amount"`
	TreasuryProposalID *uint64    `json:"treasury_proposal_id,omitempty"`
	CreatedBlock       uint64     `json:"created_block"`
	LatestBlock        uint64     `json:"latest_block"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	// DKG publication fields, set exactly once by the publish step.
	UAL              *string    `gorm:"uniqueIndex;size:256" json:"ual"`
	DKGAssetID       string     `gorm:"size:128" json:"dkg_asset_id"`
	DKGTxHash        string     `gorm:"size:128" json:"dkg_tx_hash"`
	DKGStatus        string     `gorm:"size:32;index;default:not_published" json:"dkg_status"`
	BlockExplorerURL string     `gorm:"size:512" json:"block_explorer_url"`
	PublishedAt      *time.Time `json:"published_at"`

	// Raw proposal payload as submitted by the ingester.
	ProposalData string `gorm:"type:text" json:"proposal_data"`
}

// Community and admin reports attached to a proposal.
type Report struct {
	ReportID        uint64 `gorm:"primaryKey;autoIncrement" json:"report_id"`
	ReferendumIndex uint64 `gorm:"index;not null" json:"referendum_index"`
	SubmitterWallet string `gorm:"size:128;index;not null" json:"submitter_wallet"`
	ReportName      string `gorm:"size:255" json:"report_name"`

	// Public content published to the DKG.
	JSONLDData    string `gorm:"type:text;not null" json:"jsonld_data"`
	DataSizeBytes int64  `json:"data_size_bytes"`

	// Private content stays local; only its salted hash goes public.
	PrivateJSONLDData    string  `gorm:"type:text" json:"-"`
	PrivateDataHash      *string `gorm:"uniqueIndex;size:64" json:"private_data_hash"`
	PrivateDataSizeBytes int64   `json:"private_data_size_bytes"`

	// Legacy submission fee fields, unused in the premium flow.
	RequiredPaymentTrac float64 `json:"required_payment_trac"`
	PaymentAddress      string  `gorm:"size:128" json:"payment_address"`
	PaymentConfirmed    bool    `gorm:"default:false" json:"payment_confirmed"`

	IsPremium        bool     `gorm:"default:false" json:"is_premium"`
	PremiumPriceTrac *float64 `json:"premium_price_trac"`
	PayeeWallet      *string  `gorm:"size:128" json:"payee_wallet"`
	AuthorType       string   `gorm:"size:16;default:community" json:"author_type"`

	VerificationStatus string     `gorm:"size:16;index;default:pending" json:"verification_status"`
	AIConfidence       *float64   `json:"ai_confidence"`
	AIReasoning        string     `gorm:"type:text" json:"ai_reasoning"`
	VerificationIssues string     `gorm:"type:text" json:"verification_issues"` // JSON array
	VerifiedAt         *time.Time `json:"verified_at"`

	ReportUAL           *string    `gorm:"uniqueIndex;size:256" json:"report_ual"`
	DKGAssetID          string     `gorm:"size:128" json:"dkg_asset_id"`
	DKGTxHash           string     `gorm:"size:128" json:"dkg_tx_hash"`
	DKGBlockExplorerURL string     `gorm:"size:512" json:"dkg_block_explorer_url"`
	DKGPublishedAt      *time.Time `json:"dkg_published_at"`

	SubmittedAt time.Time `gorm:"autoCreateTime" json:"submitted_at"`
}

// Published returns whether the report already holds a UAL.
func (r Report) Published() bool { return r.ReportUAL != nil && *r.ReportUAL != "" }

// Access grants for premium reports, one logical record per
// (report, wallet) pair.
type PremiumAccess struct {
	AccessID         uint64  `gorm:"primaryKey;autoIncrement" json:"access_id"`
	ReportID         uint64  `gorm:"index;not null" json:"report_id"`
	UserWallet       string  `gorm:"size:128;index;not null" json:"user_wallet"`
	AccessGranted    bool    `gorm:"default:false" json:"access_granted"`
	PaymentSignature string  `gorm:"type:text" json:"-"`
	PaymentMessage   string  `gorm:"size:256" json:"-"`
	PaidAmountTrac   float64 `json:"paid_amount_trac"`
	PaymentTxHash    *string `gorm:"size:128" json:"payment_tx_hash"`
	CreatedAt        time.Time `json:"created_at"`
}

// Parent-to-child UAL links, one per published report.
type UALMapping struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ProposalUAL string    `gorm:"index;size:256;not null" json:"proposal_ual"`
	ReportID    uint64    `gorm:"index;not null" json:"report_id"`
	ReportUAL   string    `gorm:"size:256;not null" json:"report_ual"`
	CreatedAt   time.Time `json:"created_at"`
}
