/**
 * @description
 * This package provides a client for the Billstack account-provisioning
 * aggregator. It encapsulates the logic for making authenticated HTTP requests
 * to Billstack's virtual-account endpoint.
 *
 * Key features:
 * - Manages the API base URL and bearer credential.
 * - Surfaces Billstack's logical failures (`status=false`) to the caller even
 *   when they arrive with a non-2xx HTTP status, so the provisioner can record
 *   the partner's message and fall back to the next bank.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, io, net/http, time: Standard Go libraries.
 * - internal/domain: Billstack request/response models.
 */
package billstackclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/s00laimang01/kinta-backend/internal/domain"
)

// Client is a client for the Billstack API.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// NewClient creates a new Billstack API client.
func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GenerateVirtualAccount asks Billstack to issue a dedicated virtual account
// against the partner bank named in the request. A reply with `status=false`
// is returned as-is, not as an error: the caller decides how to handle partner
// rejection.
func (c *Client) GenerateVirtualAccount(ctx context.Context, req domain.GenerateVirtualAccountRequest) (*domain.GenerateVirtualAccountResponse, error) {
	url := fmt.Sprintf("%s/v2/thirdparty/generateVirtualAccount/", c.baseURL)

	jsonBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)

	log.Printf("level=info component=billstack msg=\"provisioning request\" bank=%s reference=%s", req.Bank, req.Reference)
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, _ := io.ReadAll(httpResp.Body)

	var resp domain.GenerateVirtualAccountResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
			return nil, fmt.Errorf("billstack API error: status %d, body: %s", httpResp.StatusCode, string(respBody))
		}
		return nil, fmt.Errorf("failed to unmarshal response body: %w", err)
	}

	if !resp.Status {
		log.Printf("level=warn component=billstack msg=\"partner rejected provisioning\" bank=%s http_status=%d message=%q", req.Bank, httpResp.StatusCode, resp.Message)
	}
	return &resp, nil
}
