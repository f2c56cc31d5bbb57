// Package printclient submits composed receipts to the print service over HTTP.
package printclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/erp/receipt/internal/application/printing"
	"github.com/erp/receipt/internal/interfaces/http/dto"
)

const (
	defaultPath    = "/imprimir-direto"
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 1 << 20
)

// Config holds the print service endpoint
type Config struct {
	BaseURL string
	// Path of the direct print endpoint. Default: /imprimir-direto
	Path string
	// Timeout of one submission. Default: 30s
	Timeout time.Duration
	// Token is sent as a bearer token when set
	Token  string
	Logger *zap.Logger
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c == nil || strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("printclient: base URL is required")
	}
	return nil
}

// Client is an HTTP Submitter
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a new print service client
func New(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Path == "" {
		config.Path = defaultPath
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}, nil
}

// Submit posts the document. A non-JSON answer or a network failure is a
// transport error. A JSON answer is returned as a result even with an error
// status, so rejections by the service's auth or rate limiting carry their
// message.
func (c *Client) Submit(ctx context.Context, req printing.SubmitRequest) (printing.SubmitResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return printing.SubmitResult{}, fmt.Errorf("printclient: failed to encode request: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + c.config.Path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return printing.SubmitResult{}, fmt.Errorf("printclient: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.config.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return printing.SubmitResult{}, fmt.Errorf("printclient: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return printing.SubmitResult{}, fmt.Errorf("printclient: failed to read response: %w", err)
	}

	result, err := decodeResult(respBody)
	if err != nil {
		return printing.SubmitResult{}, fmt.Errorf("printclient: unexpected response (HTTP %d): %w", resp.StatusCode, err)
	}
	if !result.Success && result.Error == "" && resp.StatusCode >= 400 {
		result.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}

	c.logger.Debug("print submission answered",
		zap.Int("status", resp.StatusCode),
		zap.Bool("success", result.Success),
		zap.String("printer", req.PrinterName))
	return result, nil
}

// submitResponse accepts both answers of the print service: the direct print
// body, where error is a string, and the API envelope written by its
// middleware, where error is a dto.ErrorInfo object.
type submitResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
}

func decodeResult(body []byte) (printing.SubmitResult, error) {
	var raw submitResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return printing.SubmitResult{}, err
	}
	result := printing.SubmitResult{Success: raw.Success, Message: raw.Message}

	errBody := bytes.TrimSpace(raw.Error)
	switch {
	case len(errBody) == 0 || bytes.Equal(errBody, []byte("null")):
	case errBody[0] == '"':
		if err := json.Unmarshal(errBody, &result.Error); err != nil {
			return printing.SubmitResult{}, err
		}
	default:
		var info dto.ErrorInfo
		if err := json.Unmarshal(errBody, &info); err != nil {
			return printing.SubmitResult{}, err
		}
		result.Error = info.Message
		if result.Error == "" {
			result.Error = info.Code
		}
	}
	return result, nil
}

var _ printing.Submitter = (*Client)(nil)
