package webserver

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/DeImOs-Sj/Dgk-gov/src/api/config"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/data"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/errs"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/types"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/x402"
)

// StorePriceSource adapts the persistence layer to the payment
// resolver: premium, payable reports cost their configured price,
// everything else is free.
type StorePriceSource struct {
	Store *data.Store
	Cfg   config.Config
}

func (s StorePriceSource) PaymentRequirement(id uint64) *x402.Requirement {
	report, err := s.Store.GetReport(id)
	if err != nil || !report.IsPremium || report.PayeeWallet == nil || report.PremiumPriceTrac == nil {
		return nil
	}
	return &x402.Requirement{
		Price:       *report.PremiumPriceTrac,
		Payee:       *report.PayeeWallet,
		Token:       s.Cfg.TokenAddress,
		Network:     s.Cfg.Network,
		ChainID:     s.Cfg.ChainID,
		Description: fmt.Sprintf("Access to premium report: %s", report.ReportName),
	}
}

// RequestAccess runs after the payment middleware has verified the
// x402 proof. It grants durable access for the (report, wallet) pair,
// reusing an existing record when one exists.
func (h Reports) RequestAccess(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}
	var req struct {
		Wallet string `json:"wallet" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errs.Respond(c, errs.Wrap(errs.ValidationError, "missing required field: wallet", err))
		return
	}

	report, ok := h.getReport(c, id)
	if !ok {
		return
	}
	if !report.IsPremium {
		errs.Respond(c, errs.New(errs.ValidationError, "this is not a premium report"))
		return
	}
	if !report.Published() {
		errs.Respond(c, errs.New(errs.PreconditionFailed, "report has not been published to DKG yet"))
		return
	}

	existing, err := h.store.GetAccessRecord(id, req.Wallet)
	if err == nil && existing.AccessGranted {
		c.JSON(http.StatusOK, gin.H{
			"success":          true,
			"message":          "you already have access to this report",
			"access_id":        existing.AccessID,
			"report_id":        id,
			"report_ual":       report.ReportUAL,
			"alreadyHadAccess": true,
		})
		return
	}

	var accessID uint64
	switch {
	case err == nil:
		accessID = existing.AccessID
	case errors.Is(err, gorm.ErrRecordNotFound):
		price := 0.0
		if report.PremiumPriceTrac != nil {
			price = *report.PremiumPriceTrac
		}
		rec := &types.PremiumAccess{
			ReportID:         id,
			UserWallet:       req.Wallet,
			PaymentSignature: c.GetString(x402.CtxPaymentProof),
			PaymentMessage:   "x402 payment protocol",
			PaidAmountTrac:   price,
		}
		if cerr := h.store.CreateAccess(rec); cerr != nil {
			errs.Respond(c, errs.Wrap(errs.PersistenceFailure, "failed to create access record", cerr))
			return
		}
		accessID = rec.AccessID
	default:
		errs.Respond(c, errs.Wrap(errs.PersistenceFailure, "failed to look up access record", err))
		return
	}

	if err := h.store.GrantAccess(accessID); err != nil {
		errs.Respond(c, errs.Wrap(errs.PersistenceFailure, "failed to grant access", err))
		return
	}

	log.Printf("reports: access granted to report %d for %s", id, req.Wallet)
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "access granted via x402 payment",
		"access_id":  accessID,
		"report_id":  id,
		"report_ual": report.ReportUAL,
	})
}

// MyAccess lists the caller's access grants, enriched with report
// summaries.
func (h Reports) MyAccess(c *gin.Context) {
	wallet := c.GetString("addr")
	records, err := h.store.ListAccessByWallet(wallet)
	if err != nil {
		errs.Respond(c, errs.Wrap(errs.PersistenceFailure, "failed to list access records", err))
		return
	}

	out := make([]gin.H, 0, len(records))
	for _, rec := range records {
		entry := gin.H{"access": rec}
		if report, err := h.store.GetReport(rec.ReportID); err == nil {
			entry["report"] = gin.H{
				"report_id":        report.ReportID,
				"report_name":      report.ReportName,
				"referendum_index": report.ReferendumIndex,
				"report_ual":       report.ReportUAL,
				"author_type":      report.AuthorType,
			}
		}
		out = append(out, entry)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "access_records": out, "count": len(out)})
}

// LinkedReports lists the reports mapped under a proposal UAL, premium
// content filtered per caller.
func (h Reports) LinkedReports(c *gin.Context) {
	proposalUAL := c.Param("ual")
	mappings, err := h.store.ListMappingsByProposalUAL(proposalUAL)
	if err != nil {
		errs.Respond(c, errs.Wrap(errs.PersistenceFailure, "failed to list mappings", err))
		return
	}

	wallet := c.GetString("addr")
	out := make([]gin.H, 0, len(mappings))
	for _, m := range mappings {
		report, err := h.store.GetReport(m.ReportID)
		if err != nil {
			continue
		}
		out = append(out, h.reportView(report, wallet))
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"proposal_ual": proposalUAL,
		"reports":      out,
		"count":        len(out),
	})
}
