package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/DeImOs-Sj/Dgk-gov/src/api/types"
	"github.com/DeImOs-Sj/Dgk-gov/src/webclient"
)

// Result is the verdict returned by the verification collaborator.
type Result struct {
	Valid      bool     `json:"valid"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
	Issues     []string `json:"issues"`
}

// Verifier checks a report's public content against its proposal.
type Verifier interface {
	VerifyReport(ctx context.Context, proposal, report map[string]any, referendumIndex uint64) (Result, error)
}

// Status applies the decision rule: verified iff the collaborator
// accepted the report and its confidence meets the threshold.
func Status(r Result, threshold float64) string {
	if r.Valid && r.Confidence >= threshold {
		return types.VerificationVerified
	}
	return types.VerificationRejected
}

const systemPrompt = `You are a reviewer of Polkadot governance reports. ` +
	`Given a referendum and a community report about it, judge whether the report ` +
	`is accurate and substantive. Respond with JSON only: ` +
	`{"valid": bool, "confidence": number 0..1, "reasoning": string, "issues": [string]}`

// Client calls an OpenAI-compatible chat completions endpoint.
type Client struct {
	apiKey     string
	apiURL     string
	model      string
	httpClient *http.Client
}

func NewClient(apiKey, apiURL, model string, timeout time.Duration) *Client {
	return &Client{
		apiKey:     apiKey,
		apiURL:     apiURL,
		model:      model,
		httpClient: webclient.NewDefault(timeout),
	}
}

func (c *Client) VerifyReport(ctx context.Context, proposal, report map[string]any, referendumIndex uint64) (Result, error) {
	proposalJSON, _ := json.Marshal(proposal)
	reportJSON, _ := json.Marshal(report)

	reqBody := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": fmt.Sprintf(
				"Referendum #%d:\n%s\n\nReport:\n%s",
				referendumIndex, proposalJSON, reportJSON)},
		},
		"temperature":     0,
		"response_format": map[string]string{"type": "json_object"},
	}
	b, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewBuffer(b))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("verification API error: %s", string(body))
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &completion); err != nil {
		return Result{}, err
	}
	if len(completion.Choices) == 0 {
		return Result{}, fmt.Errorf("no response from verification API")
	}
	return parseVerdict(completion.Choices[0].Message.Content)
}

func parseVerdict(content string) (Result, error) {
	// Models occasionally wrap JSON in a code fence despite the
	// response_format hint.
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var res Result
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &res); err != nil {
		return Result{}, fmt.Errorf("failed to parse verification verdict: %w", err)
	}
	if res.Issues == nil {
		res.Issues = []string{}
	}
	return res, nil
}
