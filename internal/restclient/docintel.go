// Package restclient contains the HTTP adapters for the external
// document-intelligence and face-identification collaborators. They own no
// validation logic; they only fetch structured records for the engine.
package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/example/board-check/internal/config"
	"github.com/example/board-check/internal/extract"
	"github.com/example/board-check/internal/logging"
)

const apiKeyHeader = "Ocp-Apim-Subscription-Key"

// DocIntelligenceClient analyzes ID documents and boarding passes through the
// document analysis service.
type DocIntelligenceClient struct {
	endpoint     string
	apiKey       string
	modelID      string
	pollInterval time.Duration
	pollTimeout  time.Duration
	httpClient   *http.Client
	logger       *zap.Logger
}

// NewDocIntelligenceClient constructs a client from the collaborator config.
func NewDocIntelligenceClient(cfg config.DocIntelligenceConfig, logger *zap.Logger) (*DocIntelligenceClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("document intelligence endpoint is not configured")
	}
	return &DocIntelligenceClient{
		endpoint:     cfg.Endpoint,
		apiKey:       cfg.APIKey,
		modelID:      cfg.BoardingPassModelID,
		pollInterval: cfg.PollInterval,
		pollTimeout:  cfg.PollTimeout,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       logger.Named("doc_intelligence"),
	}, nil
}

type analyzeResponse struct {
	Status    string             `json:"status"`
	Documents []extract.Document `json:"documents"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// AnalyzeID runs the prebuilt ID document model over the scanned image.
func (c *DocIntelligenceClient) AnalyzeID(ctx context.Context, image []byte) (*extract.Identity, error) {
	result, err := c.analyze(ctx, c.endpoint+"/analyze/prebuilt-id", image)
	if err != nil {
		wrapped := logging.NewOperationError("restclient.analyze_id", "", err)
		c.logger.Error("ID analysis failed", zap.Error(wrapped))
		return nil, wrapped
	}
	return &extract.Identity{Documents: result.Documents}, nil
}

// AnalyzeBoardingPass runs the custom boarding pass model over the image.
func (c *DocIntelligenceClient) AnalyzeBoardingPass(ctx context.Context, image []byte) (*extract.BoardingPass, error) {
	if c.modelID == "" {
		err := logging.NewOperationError("restclient.analyze_boarding_pass", "", errors.New("boarding pass model id is not configured"))
		c.logger.Error("boarding pass analysis failed", zap.Error(err))
		return nil, err
	}
	result, err := c.analyze(ctx, fmt.Sprintf("%s/analyze/custom/%s", c.endpoint, c.modelID), image)
	if err != nil {
		wrapped := logging.NewOperationError("restclient.analyze_boarding_pass", "", err)
		c.logger.Error("boarding pass analysis failed", zap.Error(wrapped))
		return nil, wrapped
	}
	return &extract.BoardingPass{Documents: result.Documents}, nil
}

// analyze submits the image and, when the service answers 202 with an
// operation location, polls it at a fixed interval until the analysis settles
// or the poll timeout elapses.
func (c *DocIntelligenceClient) analyze(ctx context.Context, url string, image []byte) (*analyzeResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(image))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return decodeAnalyzeResponse(resp.Body)
	case http.StatusAccepted:
		operationURL := resp.Header.Get("Operation-Location")
		if operationURL == "" {
			return nil, errors.New("analysis accepted without an operation location")
		}
		return c.pollOperation(ctx, operationURL)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("analysis request failed: %s: %s", resp.Status, bytes.TrimSpace(body))
	}
}

func (c *DocIntelligenceClient) pollOperation(ctx context.Context, operationURL string) (*analyzeResponse, error) {
	deadline := time.Now().Add(c.pollTimeout)
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("analysis did not complete within %s", c.pollTimeout)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, operationURL, nil)
		if err != nil {
			return nil, err
		}
		if c.apiKey != "" {
			req.Header.Set(apiKeyHeader, c.apiKey)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			resp.Body.Close()
			return nil, fmt.Errorf("operation poll failed: %s: %s", resp.Status, bytes.TrimSpace(body))
		}
		result, err := decodeAnalyzeResponse(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}

		switch result.Status {
		case "succeeded":
			return result, nil
		case "failed":
			if result.Error != nil {
				return nil, fmt.Errorf("analysis failed: %s", result.Error.Message)
			}
			return nil, errors.New("analysis failed")
		default:
			c.logger.Debug("analysis still running", zap.String("status", result.Status))
		}
	}
}

func decodeAnalyzeResponse(body io.Reader) (*analyzeResponse, error) {
	var result analyzeResponse
	if err := json.NewDecoder(body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode analysis response: %w", err)
	}
	return &result, nil
}
