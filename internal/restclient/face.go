package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/example/board-check/internal/config"
	"github.com/example/board-check/internal/extract"
	"github.com/example/board-check/internal/logging"
)

// FaceClient asks the face identification service to compare the ID portrait
// against the faces seen in the passenger video.
type FaceClient struct {
	endpoint   string
	apiKey     string
	threshold  float64
	httpClient *http.Client
	logger     *zap.Logger
}

// NewFaceClient constructs a client from the collaborator config.
func NewFaceClient(cfg config.FaceConfig, logger *zap.Logger) (*FaceClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("face service endpoint is not configured")
	}
	return &FaceClient{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		threshold:  cfg.Threshold,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		logger:     logger.Named("face_client"),
	}, nil
}

type identifyResponse struct {
	Matches []extract.FaceMatch `json:"matches"`
}

// IdentifyFaces uploads the ID portrait and passenger video and returns the
// service's match candidates. The configured confidence threshold is passed
// along so the service pre-filters weak candidates.
func (c *FaceClient) IdentifyFaces(ctx context.Context, idImage, video []byte) ([]extract.FaceMatch, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	idPart, err := writer.CreateFormFile("id_image", "id_image.jpg")
	if err != nil {
		return nil, logging.NewOperationError("restclient.identify_faces", "", err)
	}
	if _, err := idPart.Write(idImage); err != nil {
		return nil, logging.NewOperationError("restclient.identify_faces", "", err)
	}

	videoPart, err := writer.CreateFormFile("video", "passenger.mp4")
	if err != nil {
		return nil, logging.NewOperationError("restclient.identify_faces", "", err)
	}
	if _, err := videoPart.Write(video); err != nil {
		return nil, logging.NewOperationError("restclient.identify_faces", "", err)
	}

	if err := writer.WriteField("confidence_threshold", fmt.Sprintf("%.2f", c.threshold)); err != nil {
		return nil, logging.NewOperationError("restclient.identify_faces", "", err)
	}
	if err := writer.Close(); err != nil {
		return nil, logging.NewOperationError("restclient.identify_faces", "", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/identify", &body)
	if err != nil {
		return nil, logging.NewOperationError("restclient.identify_faces", "", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		wrapped := logging.NewOperationError("restclient.identify_faces", "", err)
		c.logger.Error("face identification call failed", zap.Error(wrapped))
		return nil, wrapped
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf("face identification failed: %s: %s", resp.Status, bytes.TrimSpace(payload))
		wrapped := logging.NewOperationError("restclient.identify_faces", "", err)
		c.logger.Error("face identification call failed", zap.Error(wrapped))
		return nil, wrapped
	}

	var result identifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		wrapped := logging.NewOperationError("restclient.identify_faces", "", fmt.Errorf("decode identify response: %w", err))
		c.logger.Error("face identification call failed", zap.Error(wrapped))
		return nil, wrapped
	}

	c.logger.Info("face identification completed", zap.Int("faces", len(result.Matches)))
	return result.Matches, nil
}
