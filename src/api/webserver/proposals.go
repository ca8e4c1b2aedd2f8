package webserver

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/DeImOs-Sj/Dgk-gov/src/api/config"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/data"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/dkg"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/errs"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/types"
)

type Proposals struct {
	store     *data.Store
	cfg       config.Config
	publisher dkg.Publisher
}

func NewProposals(store *data.Store, cfg config.Config, publisher dkg.Publisher) Proposals {
	return Proposals{store: store, cfg: cfg, publisher: publisher}
}

func (h Proposals) List(c *gin.Context) {
	proposals, err := h.store.ListProposals()
	if err != nil {
		errs.Respond(c, errs.Wrap(errs.PersistenceFailure, "failed to list proposals", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "proposals": proposals, "count": len(proposals)})
}

func (h Proposals) ListPublished(c *gin.Context) {
	proposals, err := h.store.ListPublishedProposals()
	if err != nil {
		errs.Respond(c, errs.Wrap(errs.PersistenceFailure, "failed to list proposals", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "proposals": proposals, "count": len(proposals)})
}

func (h Proposals) Get(c *gin.Context) {
	index, err := strconv.ParseUint(c.Param("index"), 10, 64)
	if err != nil {
		errs.Respond(c, errs.New(errs.ValidationError, "invalid referendum index"))
		return
	}
	proposal, err := h.store.GetProposal(index)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		errs.Respond(c, errs.New(errs.NotFound, "proposal not found"))
		return
	} else if err != nil {
		errs.Respond(c, errs.Wrap(errs.PersistenceFailure, "failed to load proposal", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "proposal": proposal})
}

// Import stores a proposal mirrored from chain. Admin-only; the raw
// payload is kept verbatim for later verification and publication.
func (h Proposals) Import(c *gin.Context) {
	var req struct {
		ReferendumIndex    uint64          `json:"referendum_index" binding:"required"`
		Title              string          `json:"title" binding:"required,max=512"`
		Summary            string          `json:"summary"`
		Status             string          `json:"status"`
		Origin             string          `json:"origin"`
		ProposerAddress    string          `json:"proposer_address"`
		BeneficiaryAddress string          `json:"beneficiary_address"`
		AyesAmount         string          `json:"ayes_amount"`
		NaysAmount         string          `json:"nays_amount"`
		RequestedAmount    string          `json:"requested_amount"`
		CreatedBlock       uint64          `json:"created_block"`
		LatestBlock        uint64          `json:"latest_block"`
		ProposalData       json.RawMessage `json:"proposal_data"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errs.Respond(c, errs.Wrap(errs.ValidationError, "missing required fields", err))
		return
	}

	if _, err := h.store.GetProposal(req.ReferendumIndex); err == nil {
		errs.Respond(c, errs.New(errs.ValidationError, "proposal already exists"))
		return
	}

	proposal := &types.Proposal{
		ReferendumIndex:    req.ReferendumIndex,
		Title:              req.Title,
		Summary:            req.Summary,
		Status:             req.Status,
		Origin:             req.Origin,
		ProposerAddress:    req.ProposerAddress,
		BeneficiaryAddress: req.BeneficiaryAddress,
		AyesAmount:         req.AyesAmount,
		NaysAmount:         req.NaysAmount,
		RequestedAmount:    req.RequestedAmount,
		CreatedBlock:       req.CreatedBlock,
		LatestBlock:        req.LatestBlock,
		DKGStatus:          types.DKGNotPublished,
		ProposalData:       string(req.ProposalData),
	}
	if err := h.store.InsertProposal(proposal); err != nil {
		errs.Respond(c, errs.Wrap(errs.PersistenceFailure, "failed to store proposal", err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "proposal": proposal})
}

// Publish creates the proposal's knowledge asset. The DKG fields are
// set exactly once; the conditional update guards concurrent attempts.
func (h Proposals) Publish(c *gin.Context) {
	index, err := strconv.ParseUint(c.Param("index"), 10, 64)
	if err != nil {
		errs.Respond(c, errs.New(errs.ValidationError, "invalid referendum index"))
		return
	}
	proposal, err := h.store.GetProposal(index)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		errs.Respond(c, errs.New(errs.NotFound, "proposal not found"))
		return
	} else if err != nil {
		errs.Respond(c, errs.Wrap(errs.PersistenceFailure, "failed to load proposal", err))
		return
	}
	if proposal.UAL != nil && *proposal.UAL != "" {
		errs.Respond(c, errs.New(errs.PreconditionFailed, "proposal already published to DKG").
			With("ual", *proposal.UAL))
		return
	}

	doc := dkg.BuildProposalDocument(proposal, proposalPayload(proposal))
	result, err := h.publisher.Publish(c.Request.Context(), doc, dkg.Options{
		SourceID:        "proposal-" + strconv.FormatUint(index, 10),
		ReferendumIndex: index,
	})
	if err != nil {
		errs.Respond(c, errs.Wrap(errs.CollaboratorFailure, "failed to publish to DKG", err))
		return
	}

	explorerURL := h.publisher.ExplorerURL(result.UAL)
	if err := h.store.MarkProposalPublished(index, result.UAL, result.AssetID, result.TxHash, explorerURL); err != nil {
		if errors.Is(err, data.ErrAlreadyPublished) {
			errs.Respond(c, errs.New(errs.PreconditionFailed, "proposal already published to DKG"))
			return
		}
		errs.Respond(c, errs.Wrap(errs.PersistenceFailure, "failed to persist publication", err))
		return
	}

	log.Printf("proposals: referendum %d published to DKG: %s", index, result.UAL)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"dkg": gin.H{
			"ual":          result.UAL,
			"asset_id":     result.AssetID,
			"tx_hash":      result.TxHash,
			"explorer_url": explorerURL,
		},
	})
}
