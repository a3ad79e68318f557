// Package feishu implements the narrow Feishu Open API surface the bridge
// needs: approval instance fetch, batch temporary download URL resolution
// and file download, behind a tenant-token cache.
package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://open.feishu.cn/open-apis"
	defaultTimeout = 30 * time.Second

	// Tokens are refreshed this much before their advertised expiry so
	// an in-flight request never races the upstream clock.
	tokenExpirySkew = 5 * time.Minute
)

// HTTPClient interface for testability
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds Feishu client configuration
type Config struct {
	AppID     string
	AppSecret string
	BaseURL   string
	Timeout   time.Duration
}

// Client is a token-cached Feishu Open API client. It is safe for
// concurrent use: the token cache serializes refreshes, and a duplicate
// refresh wastes one call but causes no corruption.
type Client struct {
	baseURL    string
	appID      string
	appSecret  string
	httpClient HTTPClient
	tokens     *TokenCache
	logger     *zap.Logger
}

// NewClient creates a new Feishu client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		appID:      cfg.AppID,
		appSecret:  cfg.AppSecret,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		tokens:     NewTokenCache(),
		logger:     logger,
	}
}

// Instance is the slice of an approval instance the bridge consumes. Form
// is the raw form JSON blob, passed through untouched for the form walker.
type Instance struct {
	ApprovalName string `json:"approval_name"`
	SerialNumber string `json:"serial_number"`
	Form         string `json:"form"`
}

// apiEnvelope is the common {code, msg, data} response wrapper.
type apiEnvelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// GetApprovalInstance retrieves detailed information about an approval
// instance, including its raw form JSON.
func (c *Client) GetApprovalInstance(ctx context.Context, instanceCode string) (*Instance, error) {
	path := "/approval/v4/instances/" + url.PathEscape(instanceCode)

	data, err := c.getJSON(ctx, path, nil)
	if err != nil {
		c.logger.Error("Failed to get approval instance",
			zap.String("instance_code", instanceCode),
			zap.Error(err))
		return nil, err
	}

	var instance Instance
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, fmt.Errorf("failed to decode approval instance: %w", err)
	}

	return &instance, nil
}

// GetFileDownloadURLs resolves file tokens into temporary download URLs.
// An empty token set yields an empty map without an upstream call.
func (c *Client) GetFileDownloadURLs(ctx context.Context, fileTokens []string) (map[string]string, error) {
	if len(fileTokens) == 0 {
		return map[string]string{}, nil
	}

	query := url.Values{}
	query.Set("file_tokens", strings.Join(fileTokens, ","))

	data, err := c.getJSON(ctx, "/drive/v1/medias/batch_get_tmp_download_url", query)
	if err != nil {
		c.logger.Error("Failed to get file download URLs",
			zap.Int("token_count", len(fileTokens)),
			zap.Error(err))
		return nil, err
	}

	var payload struct {
		TmpDownloadURLs []struct {
			FileToken      string `json:"file_token"`
			TmpDownloadURL string `json:"tmp_download_url"`
		} `json:"tmp_download_urls"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode download URLs: %w", err)
	}

	urls := make(map[string]string, len(payload.TmpDownloadURLs))
	for _, item := range payload.TmpDownloadURLs {
		urls[item.FileToken] = item.TmpDownloadURL
	}
	return urls, nil
}

// DownloadFile fetches file content from a resolved download URL. The URL
// is presigned, so no Authorization header is attached.
func (c *Client) DownloadFile(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &RemoteError{
			Endpoint:   fileURL,
			StatusCode: resp.StatusCode,
			Msg:        "download returned non-200 status",
		}
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file body: %w", err)
	}
	return content, nil
}

// getJSON performs an authenticated GET against the API and unwraps the
// {code, msg, data} envelope, mapping failures to *RemoteError.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	token, err := c.tenantAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RemoteError{Endpoint: path, StatusCode: resp.StatusCode}
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	if envelope.Code != 0 {
		return nil, &RemoteError{
			Endpoint:   path,
			StatusCode: resp.StatusCode,
			Code:       envelope.Code,
			Msg:        envelope.Msg,
		}
	}

	return envelope.Data, nil
}

// tenantAccessToken returns the cached tenant access token, refreshing it
// from the auth endpoint when expired.
func (c *Client) tenantAccessToken(ctx context.Context) (string, error) {
	return c.tokens.Get(ctx, c.fetchTenantAccessToken)
}

func (c *Client) fetchTenantAccessToken(ctx context.Context) (string, time.Duration, error) {
	payload, err := json.Marshal(map[string]string{
		"app_id":     c.appID,
		"app_secret": c.appSecret,
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to encode token request: %w", err)
	}

	endpoint := c.baseURL + "/auth/v3/tenant_access_token/internal"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, &RemoteError{
			Endpoint:   "/auth/v3/tenant_access_token/internal",
			StatusCode: resp.StatusCode,
		}
	}

	var tokenResp struct {
		Code              int    `json:"code"`
		Msg               string `json:"msg"`
		TenantAccessToken string `json:"tenant_access_token"`
		Expire            int    `json:"expire"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", 0, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.Code != 0 {
		return "", 0, &RemoteError{
			Endpoint:   "/auth/v3/tenant_access_token/internal",
			StatusCode: resp.StatusCode,
			Code:       tokenResp.Code,
			Msg:        tokenResp.Msg,
		}
	}

	ttl := time.Duration(tokenResp.Expire)*time.Second - tokenExpirySkew
	c.logger.Debug("Refreshed tenant access token",
		zap.Duration("ttl", ttl))
	return tokenResp.TenantAccessToken, ttl, nil
}

// SetHTTPClient replaces the transport. Used in tests.
func (c *Client) SetHTTPClient(client HTTPClient) {
	c.httpClient = client
}
