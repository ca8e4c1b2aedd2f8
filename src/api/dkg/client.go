package dkg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/DeImOs-Sj/Dgk-gov/src/webclient"
)

// Options accompany a publish call; they end up in the asset metadata
// on the node side.
type Options struct {
	SourceID        string `json:"sourceId,omitempty"`
	ReferendumIndex uint64 `json:"referendumIndex,omitempty"`
	ReportID        uint64 `json:"reportId,omitempty"`
	Epochs          int    `json:"epochs,omitempty"`
}

// Result is what the DKG node returns for a published asset.
type Result struct {
	UAL     string
	AssetID string
	TxHash  string
	Status  string
}

// Publisher creates knowledge assets on the DKG.
type Publisher interface {
	Publish(ctx context.Context, content map[string]any, opts Options) (Result, error)
	ExplorerURL(ual string) string
}

// Client talks to a DKG node agent's REST API.
type Client struct {
	baseURL     string
	explorerURL string
	httpClient  *http.Client
}

func NewClient(baseURL, explorerURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:     baseURL,
		explorerURL: explorerURL,
		httpClient:  webclient.NewDefault(timeout),
	}
}

func (c *Client) Publish(ctx context.Context, content map[string]any, opts Options) (Result, error) {
	epochs := opts.Epochs
	if epochs == 0 {
		epochs = 2
	}
	reqBody := map[string]any{
		"content": content,
		"metadata": map[string]any{
			"sourceId":        opts.SourceID,
			"referendumIndex": opts.ReferendumIndex,
			"reportId":        opts.ReportID,
		},
		"publishOptions": map[string]any{
			"privacy": "public",
			"epochs":  epochs,
		},
	}
	b, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/dkg/assets", bytes.NewBuffer(b))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, err
	}

	var out struct {
		Success bool   `json:"success"`
		UAL     string `json:"ual"`
		ID      string `json:"id"`
		TxHash  string `json:"txHash"`
		Status  string `json:"status"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return Result{}, fmt.Errorf("bad DKG node response: %w", err)
	}
	if !out.Success || out.UAL == "" {
		if out.Error == "" {
			out.Error = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return Result{}, fmt.Errorf("DKG publish failed: %s", out.Error)
	}
	assetID := out.ID
	if assetID == "" {
		assetID = "pending"
	}
	return Result{UAL: out.UAL, AssetID: assetID, TxHash: out.TxHash, Status: out.Status}, nil
}

func (c *Client) ExplorerURL(ual string) string {
	if ual == "" {
		return ""
	}
	return c.explorerURL + url.QueryEscape(ual)
}
