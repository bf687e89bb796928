package voucherhub

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a voucher server API client
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a new voucher server client
func NewClient(config *ClientConfig) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// NewClientWithHTTPClient creates a new voucher server client with a custom HTTP client
func NewClientWithHTTPClient(config *ClientConfig, httpClient *http.Client) *Client {
	return &Client{
		config:     config,
		httpClient: httpClient,
	}
}

// computeHMAC computes the HMAC-SHA256 signature for the request body
func (c *Client) computeHMAC(body []byte) string {
	h := hmac.New(sha256.New, []byte(c.config.APISecret))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// doRequest performs an HTTP request with HMAC signing
func (c *Client) doRequest(ctx context.Context, endpoint string, reqBody interface{}, result interface{}) error {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.config.BaseURL + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.config.APIKey)
	req.Header.Set("x-api-hmac", c.computeHMAC(bodyBytes))

	var resp *http.Response
	var lastErr error
	retryCount := c.config.RetryCount
	if retryCount == 0 {
		retryCount = 1
	}

	for i := 0; i < retryCount; i++ {
		resp, err = c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		break
	}

	if resp == nil {
		return fmt.Errorf("request failed after %d retries: %w", retryCount, lastErr)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

// Check looks up a voucher without consuming it. Attendants use this
// before paying out a ticket by hand.
func (c *Client) Check(ctx context.Context, code, terminalID string) (*CheckResult, error) {
	req := &CheckRequest{
		Code:       code,
		FloorCode:  c.config.FloorCode,
		TerminalID: terminalID,
	}

	var resp Response[CheckResult]
	if err := c.doRequest(ctx, "/check", req, &resp); err != nil {
		return nil, err
	}

	if resp.Error != nil {
		return nil, resp.Error
	}

	return resp.Result, nil
}

// Redeem consumes a voucher and returns the amount to credit.
// The server guarantees a code redeems at most once across the floor.
func (c *Client) Redeem(ctx context.Context, req *RedeemRequest) (*RedeemResult, error) {
	req.FloorCode = c.config.FloorCode

	var resp Response[RedeemResult]
	if err := c.doRequest(ctx, "/redeem", req, &resp); err != nil {
		return nil, err
	}

	if resp.Error != nil {
		return nil, resp.Error
	}

	return resp.Result, nil
}

// Issue registers a cashout on the voucher server, which generates and
// owns the code. Used when vouchers must be redeemable on any cabinet.
func (c *Client) Issue(ctx context.Context, req *IssueRequest) (*IssueResult, error) {
	req.FloorCode = c.config.FloorCode

	var resp Response[IssueResult]
	if err := c.doRequest(ctx, "/issue", req, &resp); err != nil {
		return nil, err
	}

	if resp.Error != nil {
		return nil, resp.Error
	}

	return resp.Result, nil
}

// Void cancels an issued voucher, for instance after a misprint.
func (c *Client) Void(ctx context.Context, req *VoidRequest) (*VoidResult, error) {
	req.FloorCode = c.config.FloorCode

	var resp Response[VoidResult]
	if err := c.doRequest(ctx, "/void", req, &resp); err != nil {
		return nil, err
	}

	if resp.Error != nil {
		return nil, resp.Error
	}

	return resp.Result, nil
}
