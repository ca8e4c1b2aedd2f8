package dkg

import (
	"fmt"
	"time"

	"github.com/DeImOs-Sj/Dgk-gov/src/api/types"
)

// Base vocabularies every published document carries.
var baseContext = map[string]any{
	"schema":   "https://schema.org/",
	"polkadot": "https://polkadot.network/governance/",
	"dkg":      "https://dkg.origintrail.io/",
}

// BuildReportDocument shapes a report's public content for publication.
// One precedence rule applies everywhere: user content is the starting
// point, required fields overwrite it on key collision, and @id, @type
// and @context are always forced to computed values (the context being
// the base vocabularies merged with the user's own context map). The
// name and creation date are computed from the user's value when one
// is present.
func BuildReportDocument(report *types.Report, content map[string]any, proposalUAL string) map[string]any {
	doc := make(map[string]any, len(content)+16)
	for k, v := range content {
		doc[k] = v
	}

	mergedContext := make(map[string]any, len(baseContext)+4)
	if userCtx, ok := content["@context"].(map[string]any); ok {
		for k, v := range userCtx {
			mergedContext[k] = v
		}
	}
	for k, v := range baseContext {
		mergedContext[k] = v
	}
	doc["@context"] = mergedContext
	doc["@type"] = "schema:Report"
	doc["@id"] = fmt.Sprintf("polkadot:referendum:%d:report:%d", report.ReferendumIndex, report.ReportID)

	doc["schema:name"] = pickString(content["schema:name"], content["name"], report.ReportName,
		fmt.Sprintf("Report %d", report.ReportID))
	doc["schema:about"] = fmt.Sprintf("polkadot:referendum:%d", report.ReferendumIndex)
	doc["schema:dateCreated"] = pickString(content["schema:dateCreated"], nil, "",
		report.SubmittedAt.UTC().Format(time.RFC3339))
	doc["schema:isPartOf"] = proposalUAL
	doc["schema:author"] = map[string]any{
		"@type":             "schema:Person",
		"schema:identifier": report.SubmitterWallet,
	}

	doc["polkadot:verificationStatus"] = report.VerificationStatus
	if report.AIConfidence != nil {
		doc["polkadot:aiConfidence"] = *report.AIConfidence
	}

	doc["dkg:reportId"] = report.ReportID
	if report.IsPremium {
		doc["dkg:reportType"] = "premium"
		if report.PremiumPriceTrac != nil {
			doc["dkg:premiumPrice"] = *report.PremiumPriceTrac
		}
		if report.PayeeWallet != nil {
			doc["dkg:payeeWallet"] = *report.PayeeWallet
		}
	} else {
		doc["dkg:reportType"] = "standard"
	}

	// The private payload never leaves the database; only its salted
	// hash rides along on the public asset.
	if report.PrivateDataHash != nil {
		doc["dkg:privateDataHash"] = *report.PrivateDataHash
	}
	return doc
}

// BuildProposalDocument shapes a proposal for publication, same
// precedence rule as reports applied to the raw proposal payload.
func BuildProposalDocument(p *types.Proposal, payload map[string]any) map[string]any {
	doc := make(map[string]any, len(payload)+8)
	for k, v := range payload {
		doc[k] = v
	}

	mergedContext := make(map[string]any, len(baseContext)+4)
	if userCtx, ok := payload["@context"].(map[string]any); ok {
		for k, v := range userCtx {
			mergedContext[k] = v
		}
	}
	for k, v := range baseContext {
		mergedContext[k] = v
	}
	doc["@context"] = mergedContext
	doc["@type"] = "polkadot:Referendum"
	doc["@id"] = fmt.Sprintf("polkadot:referendum:%d", p.ReferendumIndex)

	doc["schema:name"] = pickString(payload["schema:name"], payload["title"], p.Title,
		fmt.Sprintf("Referendum %d", p.ReferendumIndex))
	doc["polkadot:status"] = p.Status
	doc["polkadot:origin"] = p.Origin
	doc["polkadot:referendumIndex"] = p.ReferendumIndex
	return doc
}

func pickString(candidates ...any) string {
	for _, c := range candidates {
		if s, ok := c.(string); ok && s != "" {
			return s
		}
	}
	return ""
}
