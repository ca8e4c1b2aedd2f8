package webserver

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"

	"github.com/DeImOs-Sj/Dgk-gov/src/api/config"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/data"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/dkg"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/errs"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/hashutil"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/types"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/verify"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/x402"
)

type Reports struct {
	store     *data.Store
	cfg       config.Config
	verifier  verify.Verifier
	publisher dkg.Publisher
	sanitizer *bluemonday.Policy
}

func NewReports(store *data.Store, cfg config.Config, verifier verify.Verifier, publisher dkg.Publisher) Reports {
	return Reports{
		store:     store,
		cfg:       cfg,
		verifier:  verifier,
		publisher: publisher,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

func reportID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		errs.Respond(c, errs.New(errs.ValidationError, "invalid report id"))
		return 0, false
	}
	return id, true
}

func (h Reports) getReport(c *gin.Context, id uint64) (*types.Report, bool) {
	report, err := h.store.GetReport(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		errs.Respond(c, errs.New(errs.NotFound, "report not found"))
		return nil, false
	}
	if err != nil {
		errs.Respond(c, errs.Wrap(errs.PersistenceFailure, "failed to load report", err))
		return nil, false
	}
	return report, true
}

// canAccess applies the three-way access rule for premium content:
// owning submitter, allow-listed admin, or holder of a granted access
// record. Non-premium reports are open to everyone.
func (h Reports) canAccess(report *types.Report, wallet string) bool {
	if !report.IsPremium {
		return true
	}
	if wallet == "" {
		return false
	}
	if strings.EqualFold(report.SubmitterWallet, wallet) {
		return true
	}
	if h.cfg.IsAdmin(wallet) {
		return true
	}
	granted, err := h.store.HasAccess(report.ReportID, wallet)
	if err != nil {
		log.Printf("reports: access lookup failed for report %d: %v", report.ReportID, err)
		return false
	}
	return granted
}

// metadataView strips content fields for callers without access.
func metadataView(r *types.Report) gin.H {
	return gin.H{
		"report_id":           r.ReportID,
		"report_name":         r.ReportName,
		"referendum_index":    r.ReferendumIndex,
		"author_type":         r.AuthorType,
		"premium_price_trac":  r.PremiumPriceTrac,
		"data_size_bytes":     r.DataSizeBytes,
		"verification_status": r.VerificationStatus,
		"report_ual":          r.ReportUAL,
		"submitted_at":        r.SubmittedAt,
		"has_access":          false,
		"payment_required":    true,
	}
}

func (h Reports) reportView(r *types.Report, wallet string) gin.H {
	if !h.canAccess(r, wallet) {
		return metadataView(r)
	}
	return gin.H{"report": r, "has_access": true, "payment_required": false}
}

// proposalPayload returns the raw proposal blob as a document, falling
// back to the structured columns when no blob was ingested.
func proposalPayload(p *types.Proposal) map[string]any {
	if p.ProposalData != "" {
		var payload map[string]any
		if err := json.Unmarshal([]byte(p.ProposalData), &payload); err == nil {
			return payload
		}
	}
	return map[string]any{
		"referendum_index": p.ReferendumIndex,
		"title":            p.Title,
		"summary":          p.Summary,
		"status":           p.Status,
		"origin":           p.Origin,
	}
}

func reportContent(r *types.Report) (map[string]any, error) {
	var content map[string]any
	if err := json.Unmarshal([]byte(r.JSONLDData), &content); err != nil {
		return nil, err
	}
	return content, nil
}

// Submit stores a new report in pending_verification state. Publication
// to the DKG happens later, after verification.
func (h Reports) Submit(c *gin.Context) {
	var req struct {
		ReferendumIndex  uint64          `json:"referendum_index" binding:"required"`
		ReportName       string          `json:"report_name" binding:"max=255"`
		PublicJSONLD     json.RawMessage `json:"public_jsonld_data" binding:"required"`
		PrivateJSONLD    json.RawMessage `json:"private_jsonld_data"`
		IsPremium        bool            `json:"is_premium"`
		PremiumPriceTrac float64         `json:"premium_price_trac"`
		PayeeWallet      string          `json:"payee_wallet"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errs.Respond(c, errs.Wrap(errs.ValidationError, "missing required fields", err))
		return
	}
	wallet := c.GetString("addr")

	proposal, err := h.store.GetProposal(req.ReferendumIndex)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		errs.Respond(c, errs.New(errs.NotFound, "proposal not found"))
		return
	} else if err != nil {
		errs.Respond(c, errs.Wrap(errs.PersistenceFailure, "failed to load proposal", err))
		return
	}
	if proposal.UAL == nil || *proposal.UAL == "" {
		errs.Respond(c, errs.New(errs.ValidationError,
			"proposal must be published to DKG before reports can be submitted"))
		return
	}

	if req.IsPremium {
		if req.PremiumPriceTrac <= 0 {
			errs.Respond(c, errs.New(errs.ValidationError, "premium reports must have a positive price"))
			return
		}
		if req.PayeeWallet == "" {
			errs.Respond(c, errs.New(errs.ValidationError,
				"premium reports must have a payee_wallet to receive payments"))
			return
		}
	}

	var publicContent map[string]any
	if err := json.Unmarshal(req.PublicJSONLD, &publicContent); err != nil {
		errs.Respond(c, errs.Wrap(errs.ValidationError, "invalid public JSON-LD format", err))
		return
	}
	if publicContent["@context"] == nil || publicContent["@type"] == nil {
		errs.Respond(c, errs.New(errs.ValidationError, "invalid public JSON-LD: missing @context or @type"))
		return
	}
	publicJSON, _ := json.Marshal(publicContent)

	report := &types.Report{
		ReferendumIndex: req.ReferendumIndex,
		SubmitterWallet: wallet,
		ReportName:      h.sanitizer.Sanitize(req.ReportName),
		JSONLDData:      string(publicJSON),
		DataSizeBytes:   int64(len(publicJSON)),
		IsPremium:       req.IsPremium,
		AuthorType:      types.AuthorCommunity,
	}
	if report.ReportName == "" {
		report.ReportName = "Report for referendum " + strconv.FormatUint(req.ReferendumIndex, 10)
	}
	if h.cfg.IsAdmin(wallet) {
		report.AuthorType = types.AuthorAdmin
	}
	if req.IsPremium {
		report.PremiumPriceTrac = &req.PremiumPriceTrac
		report.PayeeWallet = &req.PayeeWallet
	}

	// Private payloads stay local: mint a salted identifier, store the
	// blob, and never forward it to any collaborator.
	if len(req.PrivateJSONLD) > 0 && strings.TrimSpace(string(req.PrivateJSONLD)) != "" {
		var privateContent map[string]any
		if err := json.Unmarshal(req.PrivateJSONLD, &privateContent); err != nil {
			errs.Respond(c, errs.Wrap(errs.ValidationError, "invalid private JSON-LD format", err))
			return
		}
		privateJSON, _ := json.Marshal(privateContent)
		hash, err := hashutil.SaltedIdentifier(privateJSON, req.ReferendumIndex)
		if err != nil {
			errs.Respond(c, errs.Wrap(errs.PersistenceFailure, "failed to hash private data", err))
			return
		}
		report.PrivateJSONLDData = string(privateJSON)
		report.PrivateDataHash = &hash
		report.PrivateDataSizeBytes = int64(len(privateJSON))
	}

	if err := h.store.InsertReport(report); err != nil {
		errs.Respond(c, errs.Wrap(errs.PersistenceFailure, "failed to store report", err))
		return
	}

	log.Printf("reports: report %d submitted by %s (premium=%v)", report.ReportID, wallet, report.IsPremium)
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"report": gin.H{
			"report_id":           report.ReportID,
			"referendum_index":    report.ReferendumIndex,
			"submitter_wallet":    report.SubmitterWallet,
			"report_name":         report.ReportName,
			"data_size_bytes":     report.DataSizeBytes,
			"is_premium":          report.IsPremium,
			"premium_price_trac":  report.PremiumPriceTrac,
			"payee_wallet":        report.PayeeWallet,
			"author_type":         report.AuthorType,
			"verification_status": report.VerificationStatus,
			"private_hash":        report.PrivateDataHash,
			"has_private_data":    report.PrivateDataHash != nil,
		},
	})
}

// runVerification calls the verification collaborator with the
// proposal payload and the report's public content only, then persists
// the decision.
func (h Reports) runVerification(c *gin.Context, report *types.Report, proposal *types.Proposal) (verify.Result, string, error) {
	content, err := reportContent(report)
	if err != nil {
		return verify.Result{}, "", errs.Wrap(errs.ValidationError, "stored report content is not valid JSON", err)
	}

	result, err := h.verifier.VerifyReport(c.Request.Context(), proposalPayload(proposal), content, report.ReferendumIndex)
	if err != nil {
		return verify.Result{}, "", errs.Wrap(errs.CollaboratorFailure, "verification service error", err)
	}

	status := verify.Status(result, h.cfg.VerificationThreshold)
	issuesJSON, _ := json.Marshal(result.Issues)
	if err := h.store.UpdateVerification(report.ReportID, status, result.Confidence, result.Reasoning, string(issuesJSON)); err != nil {
		return verify.Result{}, "", errs.Wrap(errs.PersistenceFailure, "failed to persist verification", err)
	}
	report.VerificationStatus = status
	report.AIConfidence = &result.Confidence
	return result, status, nil
}

func (h Reports) Verify(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}
	report, ok := h.getReport(c, id)
	if !ok {
		return
	}
	proposal, err := h.store.GetProposal(report.ReferendumIndex)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		errs.Respond(c, errs.New(errs.NotFound, "proposal not found"))
		return
	} else if err != nil {
		errs.Respond(c, errs.Wrap(errs.PersistenceFailure, "failed to load proposal", err))
		return
	}

	result, status, verr := h.runVerification(c, report, proposal)
	if verr != nil {
		errs.Respond(c, verr)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"verification": gin.H{
			"status":     status,
			"valid":      result.Valid,
			"confidence": result.Confidence,
			"reasoning":  result.Reasoning,
			"issues":     result.Issues,
		},
	})
}

// publishReport shapes the document, publishes it and persists the
// outcome. The conditional update in the store is the real idempotency
// guard; the UAL pre-check just gives early callers a clean error.
func (h Reports) publishReport(c *gin.Context, report *types.Report, proposal *types.Proposal) (gin.H, error) {
	content, err := reportContent(report)
	if err != nil {
		return nil, errs.Wrap(errs.ValidationError, "stored report content is not valid JSON", err)
	}
	doc := dkg.BuildReportDocument(report, content, *proposal.UAL)

	result, err := h.publisher.Publish(c.Request.Context(), doc, dkg.Options{
		SourceID:        "report-" + strconv.FormatUint(report.ReportID, 10),
		ReferendumIndex: report.ReferendumIndex,
		ReportID:        report.ReportID,
	})
	if err != nil {
		return nil, errs.Wrap(errs.CollaboratorFailure, "failed to publish to DKG", err)
	}

	explorerURL := h.publisher.ExplorerURL(result.UAL)
	if err := h.store.MarkReportPublished(report.ReportID, result.UAL, result.AssetID, result.TxHash, explorerURL); err != nil {
		if errors.Is(err, data.ErrAlreadyPublished) {
			return nil, errs.New(errs.PreconditionFailed, "report already published to DKG")
		}
		return nil, errs.Wrap(errs.PersistenceFailure, "failed to persist publication", err)
	}

	// Best-effort: the mapping write is never rolled back and never
	// fails the publish response.
	if err := h.store.CreateMapping(*proposal.UAL, report.ReportID, result.UAL); err != nil {
		log.Printf("reports: failed to create UAL mapping for report %d: %v", report.ReportID, err)
	}

	log.Printf("reports: report %d published to DKG: %s", report.ReportID, result.UAL)
	return gin.H{
		"ual":          result.UAL,
		"asset_id":     result.AssetID,
		"tx_hash":      result.TxHash,
		"explorer_url": explorerURL,
	}, nil
}

func (h Reports) Publish(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}
	report, ok := h.getReport(c, id)
	if !ok {
		return
	}
	if report.Published() {
		errs.Respond(c, errs.New(errs.PreconditionFailed, "report already published to DKG").
			With("ual", *report.ReportUAL))
		return
	}
	if report.VerificationStatus != types.VerificationVerified {
		errs.Respond(c, errs.New(errs.PreconditionFailed, "report must be verified before publishing").
			With("current_status", report.VerificationStatus))
		return
	}

	proposal, err := h.store.GetProposal(report.ReferendumIndex)
	if err != nil || proposal.UAL == nil || *proposal.UAL == "" {
		errs.Respond(c, errs.New(errs.PreconditionFailed,
			"proposal must have a DKG UAL before reports can be published"))
		return
	}

	dkgInfo, perr := h.publishReport(c, report, proposal)
	if perr != nil {
		errs.Respond(c, perr)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "report published to DKG",
		"dkg":        dkgInfo,
		"parent_ual": *proposal.UAL,
	})
}

// VerifyAndPublish runs the whole pipeline in one call, gated to the
// submitter or an admin.
func (h Reports) VerifyAndPublish(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}
	report, ok := h.getReport(c, id)
	if !ok {
		return
	}

	wallet := c.GetString("addr")
	if !strings.EqualFold(report.SubmitterWallet, wallet) && !h.cfg.IsAdmin(wallet) {
		errs.Respond(c, errs.New(errs.Forbidden,
			"only the report submitter or admin can trigger verification"))
		return
	}
	if report.Published() {
		errs.Respond(c, errs.New(errs.PreconditionFailed, "report already published to DKG").
			With("ual", *report.ReportUAL))
		return
	}

	proposal, err := h.store.GetProposal(report.ReferendumIndex)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		errs.Respond(c, errs.New(errs.NotFound, "proposal not found"))
		return
	} else if err != nil {
		errs.Respond(c, errs.Wrap(errs.PersistenceFailure, "failed to load proposal", err))
		return
	}
	if proposal.UAL == nil || *proposal.UAL == "" {
		errs.Respond(c, errs.New(errs.PreconditionFailed,
			"proposal must have a DKG UAL before reports can be published"))
		return
	}

	result, status, verr := h.runVerification(c, report, proposal)
	if verr != nil {
		errs.Respond(c, verr)
		return
	}
	verification := gin.H{
		"status":     status,
		"confidence": result.Confidence,
		"reasoning":  result.Reasoning,
		"issues":     result.Issues,
	}
	if status != types.VerificationVerified {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":      false,
			"err":          "verification_rejected",
			"detail":       "report did not meet quality standards",
			"verification": verification,
		})
		return
	}

	dkgInfo, perr := h.publishReport(c, report, proposal)
	if perr != nil {
		errs.Respond(c, perr)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "report verified and published to DKG",
		"verification": verification,
		"dkg":          dkgInfo,
		"parent_ual":   *proposal.UAL,
	})
}

// Get serves a single report with access gating. A verified x402
// payment on this request grants durable access as a side effect.
func (h Reports) Get(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}
	report, ok := h.getReport(c, id)
	if !ok {
		return
	}

	if !report.IsPremium {
		c.JSON(http.StatusOK, gin.H{"success": true, "report": report, "has_access": true})
		return
	}

	wallet := c.GetString("addr")
	if wallet == "" {
		wallet = c.Query("wallet")
	}

	if c.GetBool(x402.CtxPaymentVerified) && wallet != "" {
		h.grantAccess(report, wallet, c.GetString(x402.CtxPaymentProof))
		c.JSON(http.StatusOK, gin.H{"success": true, "report": report, "has_access": true, "access_granted": true})
		return
	}

	if h.canAccess(report, wallet) {
		c.JSON(http.StatusOK, gin.H{"success": true, "report": report, "has_access": true})
		return
	}

	price := 0.0
	if report.PremiumPriceTrac != nil {
		price = *report.PremiumPriceTrac
	}
	errs.Respond(c, errs.New(errs.PaymentRequired, "payment required for premium report").
		With("report_id", report.ReportID).
		With("report_name", report.ReportName).
		With("price", price).
		With("report", metadataView(report)))
}

// grantAccess records a paid access grant, reusing an existing record
// for the pair when one exists.
func (h Reports) grantAccess(report *types.Report, wallet, proof string) {
	price := 0.0
	if report.PremiumPriceTrac != nil {
		price = *report.PremiumPriceTrac
	}
	existing, err := h.store.GetAccessRecord(report.ReportID, wallet)
	if err == nil {
		if !existing.AccessGranted {
			if err := h.store.GrantAccess(existing.AccessID); err != nil {
				log.Printf("reports: failed to grant access %d: %v", existing.AccessID, err)
			}
		}
		return
	}
	rec := &types.PremiumAccess{
		ReportID:         report.ReportID,
		UserWallet:       wallet,
		AccessGranted:    true,
		PaymentSignature: proof,
		PaymentMessage:   "x402 payment protocol",
		PaidAmountTrac:   price,
	}
	if err := h.store.CreateAccess(rec); err != nil {
		log.Printf("reports: failed to create access record for report %d: %v", report.ReportID, err)
	}
}

// ListByProposal returns every report for a proposal, premium content
// filtered per caller.
func (h Reports) ListByProposal(c *gin.Context) {
	index, err := strconv.ParseUint(c.Param("index"), 10, 64)
	if err != nil {
		errs.Respond(c, errs.New(errs.ValidationError, "invalid referendum index"))
		return
	}
	reports, err := h.store.ListReportsByProposal(index)
	if err != nil {
		errs.Respond(c, errs.Wrap(errs.PersistenceFailure, "failed to list reports", err))
		return
	}

	wallet := c.GetString("addr")
	out := make([]gin.H, 0, len(reports))
	for i := range reports {
		out = append(out, h.reportView(&reports[i], wallet))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reports": out, "count": len(out)})
}

// PrivateData serves a private blob by its salted hash, under the same
// access rule as the owning report's content.
func (h Reports) PrivateData(c *gin.Context) {
	hash := c.Param("hash")
	report, err := h.store.GetReportByPrivateHash(hash)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		errs.Respond(c, errs.New(errs.NotFound, "no report with this private data hash"))
		return
	} else if err != nil {
		errs.Respond(c, errs.Wrap(errs.PersistenceFailure, "failed to load report", err))
		return
	}
	if report.PrivateJSONLDData == "" {
		errs.Respond(c, errs.New(errs.NotFound, "no private data available for this hash"))
		return
	}

	wallet := c.GetString("addr")
	if report.IsPremium && !h.canAccess(report, wallet) {
		e := errs.New(errs.Forbidden,
			"access denied: purchase access to this premium report to view private data").
			With("report_id", report.ReportID)
		if report.PremiumPriceTrac != nil {
			e = e.With("premium_price", *report.PremiumPriceTrac)
		}
		errs.Respond(c, e)
		return
	}

	var privateData any
	if err := json.Unmarshal([]byte(report.PrivateJSONLDData), &privateData); err != nil {
		privateData = report.PrivateJSONLDData
	}
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"private_data":    privateData,
		"report_id":       report.ReportID,
		"private_hash":    report.PrivateDataHash,
		"data_size_bytes": report.PrivateDataSizeBytes,
		"submitted_at":    report.SubmittedAt,
	})
}
