package webserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeImOs-Sj/Dgk-gov/src/api/config"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/data"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/dkg"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/types"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/verify"
	"github.com/DeImOs-Sj/Dgk-gov/src/api/x402"
)

const (
	adminWallet  = "5AdminWalletAddress"
	authorWallet = "5AuthorWalletAddress"
	buyerWallet  = "5BuyerWalletAddress"
)

type stubVerifier struct {
	result verify.Result
	err    error
}

func (s stubVerifier) VerifyReport(ctx context.Context, proposal, report map[string]any, index uint64) (verify.Result, error) {
	return s.result, s.err
}

type stubPublisher struct {
	calls int
	err   error
}

func (s *stubPublisher) Publish(ctx context.Context, content map[string]any, opts dkg.Options) (dkg.Result, error) {
	s.calls++
	if s.err != nil {
		return dkg.Result{}, s.err
	}
	return dkg.Result{
		UAL:     fmt.Sprintf("did:dkg:otp/0x1/%d", 1000+s.calls),
		AssetID: fmt.Sprintf("asset-%d", s.calls),
		TxHash:  "0xfeed",
		Status:  "completed",
	}, nil
}

func (s *stubPublisher) ExplorerURL(ual string) string { return "https://explorer?ual=" + ual }

type stubFacilitator struct{ err error }

func (s stubFacilitator) VerifyPayment(ctx context.Context, header string, req x402.Requirement) error {
	return s.err
}

type env struct {
	router    *gin.Engine
	store     *data.Store
	cfg       config.Config
	verifier  *stubVerifier
	publisher *stubPublisher
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := data.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	store := data.NewStore(db)

	cfg := config.Config{
		JWTSecret:             "test-secret",
		AdminAddresses:        config.ParseAdminAddresses(adminWallet),
		VerificationThreshold: 0.7,
		TokenAddress:          "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
		Network:               "base-sepolia",
		ChainID:               84532,
	}

	verifier := &stubVerifier{result: verify.Result{Valid: true, Confidence: 0.9, Reasoning: "ok"}}
	publisher := &stubPublisher{}
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})

	r := gin.New()
	attachRoutes(r, cfg, store, rdb, verifier, publisher, stubFacilitator{})
	return &env{router: r, store: store, cfg: cfg, verifier: verifier, publisher: publisher}
}

func (e *env) token(t *testing.T, wallet string) string {
	t.Helper()
	tok, err := issueJWT(wallet, []byte(e.cfg.JWTSecret))
	require.NoError(t, err)
	return "Bearer " + tok
}

func (e *env) do(t *testing.T, method, path, auth string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (e *env) seedPublishedProposal(t *testing.T, index uint64) {
	t.Helper()
	require.NoError(t, e.store.InsertProposal(&types.Proposal{
		ReferendumIndex: index,
		Title:           "Treasury Proposal",
		DKGStatus:       types.DKGNotPublished,
	}))
	require.NoError(t, e.store.MarkProposalPublished(index,
		fmt.Sprintf("did:dkg:otp/0x1/%d", index), "asset", "0xabc", ""))
}

func (e *env) seedReport(t *testing.T, index uint64, premium bool) *types.Report {
	t.Helper()
	r := &types.Report{
		ReferendumIndex:    index,
		SubmitterWallet:    authorWallet,
		ReportName:         "Analysis",
		JSONLDData:         `{"@context":{"schema":"http://schema.org/"},"@type":"schema:Report","schema:text":"body"}`,
		VerificationStatus: types.VerificationPending,
		AuthorType:         types.AuthorCommunity,
		IsPremium:          premium,
	}
	if premium {
		price := 2.5
		payee := authorWallet
		r.PremiumPriceTrac = &price
		r.PayeeWallet = &payee
	}
	require.NoError(t, e.store.InsertReport(r))
	return r
}

func submitBody(index uint64, premium bool) map[string]any {
	body := map[string]any{
		"referendum_index": index,
		"report_name":      "Quarterly analysis",
		"public_jsonld_data": map[string]any{
			"@context":    map[string]any{"schema": "http://schema.org/"},
			"@type":       "schema:Report",
			"schema:text": "analysis body",
		},
	}
	if premium {
		body["is_premium"] = true
		body["premium_price_trac"] = 2.5
		body["payee_wallet"] = authorWallet
	}
	return body
}

func TestSubmitRequiresAuth(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, "POST", "/api/reports/submit", "", submitBody(1, false), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmitRequiresPublishedProposal(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.store.InsertProposal(&types.Proposal{ReferendumIndex: 5, Title: "t"}))

	w := e.do(t, "POST", "/api/reports/submit", e.token(t, authorWallet), submitBody(5, false), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decode(t, w)["err"])

	w = e.do(t, "POST", "/api/reports/submit", e.token(t, authorWallet), submitBody(999, false), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitPremiumValidation(t *testing.T) {
	e := newEnv(t)
	e.seedPublishedProposal(t, 6)

	body := submitBody(6, true)
	delete(body, "payee_wallet")
	w := e.do(t, "POST", "/api/reports/submit", e.token(t, authorWallet), body, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body = submitBody(6, true)
	body["premium_price_trac"] = 0
	w = e.do(t, "POST", "/api/reports/submit", e.token(t, authorWallet), body, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitStoresPrivateHash(t *testing.T) {
	e := newEnv(t)
	e.seedPublishedProposal(t, 7)

	body := submitBody(7, false)
	body["private_jsonld_data"] = map[string]any{"secret": "internal notes"}
	w := e.do(t, "POST", "/api/reports/submit", e.token(t, authorWallet), body, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	report := decode(t, w)["report"].(map[string]any)
	assert.Equal(t, true, report["has_private_data"])
	hash, _ := report["private_hash"].(string)
	assert.Len(t, hash, 64)
	assert.Equal(t, "community", report["author_type"])

	// Private blob is retrievable by hash, never part of the report JSON.
	w = e.do(t, "GET", "/api/reports/private/"+hash, "", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	private := decode(t, w)["private_data"].(map[string]any)
	assert.Equal(t, "internal notes", private["secret"])
}

func TestSubmitAdminAuthorType(t *testing.T) {
	e := newEnv(t)
	e.seedPublishedProposal(t, 8)

	w := e.do(t, "POST", "/api/reports/submit", e.token(t, adminWallet), submitBody(8, false), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	report := decode(t, w)["report"].(map[string]any)
	assert.Equal(t, "admin", report["author_type"])
}

func TestGetNonPremiumIsOpen(t *testing.T) {
	e := newEnv(t)
	e.seedPublishedProposal(t, 10)
	r := e.seedReport(t, 10, false)

	w := e.do(t, "GET", fmt.Sprintf("/api/reports/%d", r.ReportID), "", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, true, out["has_access"])
}

func TestGetPremiumWithoutPayment(t *testing.T) {
	e := newEnv(t)
	e.seedPublishedProposal(t, 11)
	r := e.seedReport(t, 11, true)

	w := e.do(t, "GET", fmt.Sprintf("/api/reports/%d", r.ReportID), "", nil, nil)
	require.Equal(t, http.StatusPaymentRequired, w.Code)
	out := decode(t, w)
	assert.Equal(t, "payment_required", out["err"])
	assert.Equal(t, float64(r.ReportID), out["report_id"])
	assert.Equal(t, 2.5, out["price"])
	// Metadata only, never content.
	meta := out["report"].(map[string]any)
	assert.NotContains(t, meta, "jsonld_data")
}

func TestGetPremiumAsSubmitter(t *testing.T) {
	e := newEnv(t)
	e.seedPublishedProposal(t, 12)
	r := e.seedReport(t, 12, true)

	w := e.do(t, "GET", fmt.Sprintf("/api/reports/%d", r.ReportID), e.token(t, authorWallet), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["has_access"])

	// Admin wallets read everything too.
	w = e.do(t, "GET", fmt.Sprintf("/api/reports/%d", r.ReportID), e.token(t, adminWallet), nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetPremiumWithPaymentGrantsAccess(t *testing.T) {
	e := newEnv(t)
	e.seedPublishedProposal(t, 13)
	r := e.seedReport(t, 13, true)

	headers := map[string]string{"X-Payment": "eyJwcm9vZiI6IjB4ZGVhZGJlZWYifQ=="}
	w := e.do(t, "GET", fmt.Sprintf("/api/reports/%d?wallet=%s", r.ReportID, buyerWallet), "", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, true, out["access_granted"])

	// Durable grant: follow-up read without any payment succeeds.
	w = e.do(t, "GET", fmt.Sprintf("/api/reports/%d", r.ReportID), e.token(t, buyerWallet), nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	ok, err := e.store.HasAccess(r.ReportID, buyerWallet)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRequestAccessChallenge(t *testing.T) {
	e := newEnv(t)
	e.seedPublishedProposal(t, 14)
	r := e.seedReport(t, 14, true)
	require.NoError(t, e.store.MarkReportPublished(r.ReportID, "did:dkg:otp/0x1/500", "a", "0x1", ""))

	w := e.do(t, "POST", fmt.Sprintf("/api/reports/%d/request-access", r.ReportID), "",
		map[string]any{"wallet": buyerWallet}, nil)
	require.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Payment-Required"))
	out := decode(t, w)
	assert.Equal(t, "$2.50", out["price"])
	assert.Equal(t, "base-sepolia", out["network"])
}

func TestRequestAccessIdempotent(t *testing.T) {
	e := newEnv(t)
	e.seedPublishedProposal(t, 15)
	r := e.seedReport(t, 15, true)
	require.NoError(t, e.store.MarkReportPublished(r.ReportID, "did:dkg:otp/0x1/501", "a", "0x1", ""))

	headers := map[string]string{"X-Payment": "eyJwcm9vZiI6IjB4ZGVhZGJlZWYifQ=="}
	path := fmt.Sprintf("/api/reports/%d/request-access", r.ReportID)

	w := e.do(t, "POST", path, "", map[string]any{"wallet": buyerWallet}, headers)
	require.Equal(t, http.StatusOK, w.Code)
	first := decode(t, w)
	assert.Nil(t, first["alreadyHadAccess"])

	w = e.do(t, "POST", path, "", map[string]any{"wallet": buyerWallet}, headers)
	require.Equal(t, http.StatusOK, w.Code)
	second := decode(t, w)
	assert.Equal(t, true, second["alreadyHadAccess"])
	assert.Equal(t, first["access_id"], second["access_id"])

	records, err := e.store.ListAccessByWallet(buyerWallet)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestRequestAccessUnpublishedReport(t *testing.T) {
	e := newEnv(t)
	e.seedPublishedProposal(t, 16)
	r := e.seedReport(t, 16, true)

	headers := map[string]string{"X-Payment": "eyJwcm9vZiI6IjB4ZGVhZGJlZWYifQ=="}
	w := e.do(t, "POST", fmt.Sprintf("/api/reports/%d/request-access", r.ReportID), "",
		map[string]any{"wallet": buyerWallet}, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "precondition_failed", decode(t, w)["err"])
}

func TestVerifyAndPublishAuthGate(t *testing.T) {
	e := newEnv(t)
	e.seedPublishedProposal(t, 20)
	r := e.seedReport(t, 20, false)

	w := e.do(t, "POST", fmt.Sprintf("/api/reports/%d/verify-and-publish", r.ReportID),
		e.token(t, buyerWallet), nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestVerifyAndPublishHappyPath(t *testing.T) {
	e := newEnv(t)
	e.seedPublishedProposal(t, 21)
	r := e.seedReport(t, 21, false)

	w := e.do(t, "POST", fmt.Sprintf("/api/reports/%d/verify-and-publish", r.ReportID),
		e.token(t, authorWallet), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)

	verification := out["verification"].(map[string]any)
	assert.Equal(t, "verified", verification["status"])
	dkgInfo := out["dkg"].(map[string]any)
	assert.NotEmpty(t, dkgInfo["ual"])
	assert.Equal(t, "did:dkg:otp/0x1/21", out["parent_ual"])
	assert.Equal(t, 1, e.publisher.calls)

	// The UAL mapping landed too.
	mappings, err := e.store.ListMappingsByProposalUAL("did:dkg:otp/0x1/21")
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	assert.Equal(t, r.ReportID, mappings[0].ReportID)

	// Publication is a one-way door.
	w = e.do(t, "POST", fmt.Sprintf("/api/reports/%d/verify-and-publish", r.ReportID),
		e.token(t, authorWallet), nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "precondition_failed", decode(t, w)["err"])
}

func TestVerifyAndPublishRejected(t *testing.T) {
	e := newEnv(t)
	e.seedPublishedProposal(t, 22)
	r := e.seedReport(t, 22, false)
	e.verifier.result = verify.Result{Valid: true, Confidence: 0.5, Reasoning: "thin", Issues: []string{"no sources"}}

	w := e.do(t, "POST", fmt.Sprintf("/api/reports/%d/verify-and-publish", r.ReportID),
		e.token(t, authorWallet), nil, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	out := decode(t, w)
	assert.Equal(t, "verification_rejected", out["err"])
	assert.Equal(t, 0, e.publisher.calls)

	got, err := e.store.GetReport(r.ReportID)
	require.NoError(t, err)
	assert.Equal(t, types.VerificationRejected, got.VerificationStatus)
}

func TestPublishRequiresVerification(t *testing.T) {
	e := newEnv(t)
	e.seedPublishedProposal(t, 23)
	r := e.seedReport(t, 23, false)

	w := e.do(t, "POST", fmt.Sprintf("/api/reports/%d/publish", r.ReportID), "", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	out := decode(t, w)
	assert.Equal(t, "precondition_failed", out["err"])
	assert.Equal(t, "pending", out["current_status"])
}

func TestStandaloneVerify(t *testing.T) {
	e := newEnv(t)
	e.seedPublishedProposal(t, 24)
	r := e.seedReport(t, 24, false)

	w := e.do(t, "POST", fmt.Sprintf("/api/reports/%d/verify", r.ReportID), "", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	verification := decode(t, w)["verification"].(map[string]any)
	assert.Equal(t, "verified", verification["status"])
	assert.Equal(t, 0.9, verification["confidence"])
	assert.Equal(t, 0, e.publisher.calls)
}

func TestVerifierFailure(t *testing.T) {
	e := newEnv(t)
	e.seedPublishedProposal(t, 25)
	r := e.seedReport(t, 25, false)
	e.verifier.err = errors.New("upstream timeout")

	w := e.do(t, "POST", fmt.Sprintf("/api/reports/%d/verify", r.ReportID), "", nil, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "collaborator_failure", decode(t, w)["err"])
}

func TestListReportsFiltersPremium(t *testing.T) {
	e := newEnv(t)
	e.seedPublishedProposal(t, 30)
	e.seedReport(t, 30, false)
	e.seedReport(t, 30, true)

	w := e.do(t, "GET", "/api/proposals/30/reports", "", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	reports := decode(t, w)["reports"].([]any)
	require.Len(t, reports, 2)

	var metadataOnly int
	for _, entry := range reports {
		m := entry.(map[string]any)
		if m["payment_required"] == true {
			metadataOnly++
			assert.NotContains(t, m, "report")
		}
	}
	assert.Equal(t, 1, metadataOnly)

	// The submitter sees both in full.
	w = e.do(t, "GET", "/api/proposals/30/reports", e.token(t, authorWallet), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	for _, entry := range decode(t, w)["reports"].([]any) {
		assert.Equal(t, false, entry.(map[string]any)["payment_required"])
	}
}

func TestPrivateDataPremiumGating(t *testing.T) {
	e := newEnv(t)
	e.seedPublishedProposal(t, 31)
	hash := "aa11bb22cc33dd44ee55ff660011223344556677889900aabbccddeeff001122"
	price := 3.0
	payee := authorWallet
	require.NoError(t, e.store.InsertReport(&types.Report{
		ReferendumIndex:   31,
		SubmitterWallet:   authorWallet,
		JSONLDData:        "{}",
		PrivateJSONLDData: `{"secret":true}`,
		PrivateDataHash:   &hash,
		IsPremium:         true,
		PremiumPriceTrac:  &price,
		PayeeWallet:       &payee,
	}))

	w := e.do(t, "GET", "/api/reports/private/"+hash, "", nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	out := decode(t, w)
	assert.Equal(t, 3.0, out["premium_price"])

	w = e.do(t, "GET", "/api/reports/private/"+hash, e.token(t, authorWallet), nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, "GET", "/api/reports/private/unknownhash", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMyAccess(t *testing.T) {
	e := newEnv(t)
	e.seedPublishedProposal(t, 32)
	r := e.seedReport(t, 32, true)
	rec := &types.PremiumAccess{ReportID: r.ReportID, UserWallet: buyerWallet, PaidAmountTrac: 2.5}
	require.NoError(t, e.store.CreateAccess(rec))
	require.NoError(t, e.store.GrantAccess(rec.AccessID))

	w := e.do(t, "GET", "/api/reports/user/my-access", e.token(t, buyerWallet), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, float64(1), out["count"])
	entry := out["access_records"].([]any)[0].(map[string]any)
	report := entry["report"].(map[string]any)
	assert.Equal(t, "Analysis", report["report_name"])
}

func TestLinkedReports(t *testing.T) {
	e := newEnv(t)
	e.seedPublishedProposal(t, 33)
	r := e.seedReport(t, 33, false)
	require.NoError(t, e.store.MarkReportPublished(r.ReportID, "did:dkg:otp:0x1:600", "a", "0x1", ""))
	require.NoError(t, e.store.CreateMapping("did:dkg:otp:0x1:33", r.ReportID, "did:dkg:otp:0x1:600"))

	w := e.do(t, "GET", "/api/reports/ual/did:dkg:otp:0x1:33/linked", "", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, float64(1), out["count"])
}

func TestProposalImportAdminOnly(t *testing.T) {
	e := newEnv(t)
	body := map[string]any{"referendum_index": 40, "title": "New spend"}

	w := e.do(t, "POST", "/api/proposals", "", body, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, "POST", "/api/proposals", e.token(t, authorWallet), body, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, "POST", "/api/proposals", e.token(t, adminWallet), body, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	// Duplicate index is rejected.
	w = e.do(t, "POST", "/api/proposals", e.token(t, adminWallet), body, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProposalPublishOneWay(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.store.InsertProposal(&types.Proposal{ReferendumIndex: 41, Title: "t"}))

	w := e.do(t, "POST", "/api/proposals/41/publish", e.token(t, adminWallet), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	dkgInfo := decode(t, w)["dkg"].(map[string]any)
	assert.NotEmpty(t, dkgInfo["ual"])

	w = e.do(t, "POST", "/api/proposals/41/publish", e.token(t, adminWallet), nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	out := decode(t, w)
	assert.Equal(t, "precondition_failed", out["err"])
	assert.NotEmpty(t, out["ual"])
}

func TestProposalListEndpoints(t *testing.T) {
	e := newEnv(t)
	e.seedPublishedProposal(t, 50)
	require.NoError(t, e.store.InsertProposal(&types.Proposal{ReferendumIndex: 51, Title: "draft"}))

	w := e.do(t, "GET", "/api/proposals", "", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w)["count"])

	w = e.do(t, "GET", "/api/proposals/published", "", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	w = e.do(t, "GET", "/api/proposals/50", "", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, "GET", "/api/proposals/999", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	assert.True(t, rl.allow("a"))
	assert.True(t, rl.allow("a"))
	assert.False(t, rl.allow("a"))
	assert.True(t, rl.allow("b"))
}
