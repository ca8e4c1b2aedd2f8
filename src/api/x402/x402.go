package x402

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/DeImOs-Sj/Dgk-gov/src/webclient"
)

// Requirement describes the payment a route demands before the
// handler may run.
type Requirement struct {
	Price       float64 `json:"price"`
	Payee       string  `json:"payee"`
	Token       string  `json:"token"`
	Network     string  `json:"network"`
	ChainID     int64   `json:"chainId"`
	Description string  `json:"description"`
	Resource    string  `json:"resource"`
}

// AtomicAmount renders the price in the token's 6-decimal base units,
// the format facilitators settle in.
func (r Requirement) AtomicAmount() string {
	return strconv.FormatInt(int64(math.Round(r.Price*1e6)), 10)
}

// DisplayPrice renders the price the way 402 responses advertise it.
func (r Requirement) DisplayPrice() string {
	return fmt.Sprintf("$%.2f", r.Price)
}

// PriceSource answers what a given report costs. Reports that are not
// premium (or unknown) resolve to nil.
type PriceSource interface {
	PaymentRequirement(reportID uint64) *Requirement
}

var (
	requestAccessPath = regexp.MustCompile(`^/api/reports/(\d+)/request-access$`)
	reportReadPath    = regexp.MustCompile(`^/api/reports/(\d+)$`)
)

// Resolver maps (path, method) pairs to payment requirements. It is a
// plain lookup with no knowledge of any web framework; the middleware
// adapter lives separately.
type Resolver struct {
	source PriceSource
}

func NewResolver(source PriceSource) *Resolver { return &Resolver{source: source} }

// ResolvePaymentRequirement returns the requirement guarding the given
// route, or nil when the route is free.
func (r *Resolver) ResolvePaymentRequirement(path, method string) *Requirement {
	var m []string
	switch method {
	case http.MethodPost:
		m = requestAccessPath.FindStringSubmatch(path)
	case http.MethodGet:
		m = reportReadPath.FindStringSubmatch(path)
	default:
		return nil
	}
	if m == nil {
		return nil
	}
	reportID, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return nil
	}
	req := r.source.PaymentRequirement(reportID)
	if req != nil {
		req.Resource = path
	}
	return req
}

// Facilitator verifies x402 payment proofs. Settlement is skipped: the
// facilitator's signature check is what gates access, actual transfers
// are out of band.
type Facilitator interface {
	VerifyPayment(ctx context.Context, paymentHeader string, req Requirement) error
}

type FacilitatorClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewFacilitatorClient(baseURL string, timeout time.Duration) *FacilitatorClient {
	return &FacilitatorClient{baseURL: baseURL, httpClient: webclient.NewDefault(timeout)}
}

// requirementsPayload is the x402 "accepts" entry for a requirement.
func requirementsPayload(req Requirement) map[string]any {
	return map[string]any{
		"scheme":            "exact",
		"network":           req.Network,
		"maxAmountRequired": req.AtomicAmount(),
		"resource":          req.Resource,
		"description":       req.Description,
		"payTo":             req.Payee,
		"asset":             req.Token,
		"maxTimeoutSeconds": 60,
	}
}

func (f *FacilitatorClient) VerifyPayment(ctx context.Context, paymentHeader string, req Requirement) error {
	raw, err := base64.StdEncoding.DecodeString(paymentHeader)
	if err != nil {
		return fmt.Errorf("malformed payment header: %w", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("malformed payment payload: %w", err)
	}

	body, _ := json.Marshal(map[string]any{
		"x402Version":         1,
		"paymentPayload":      payload,
		"paymentRequirements": requirementsPayload(req),
	})
	httpReq, err := http.NewRequestWithContext(ctx, "POST", f.baseURL+"/verify", bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("facilitator unreachable: %w", err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var out struct {
		IsValid       bool   `json:"isValid"`
		InvalidReason string `json:"invalidReason"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return fmt.Errorf("bad facilitator response: %w", err)
	}
	if !out.IsValid {
		if out.InvalidReason == "" {
			out.InvalidReason = "payment rejected"
		}
		return fmt.Errorf("payment verification failed: %s", out.InvalidReason)
	}
	return nil
}
