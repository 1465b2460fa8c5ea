package analysisclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"go.uber.org/zap"

	"terrain-bot/internal/domain/entity"
	"terrain-bot/internal/domain/port"
	"terrain-bot/internal/logging"
)

const (
	predictPath = "/predict"
	fileField   = "file"

	// maxErrorBody ограничивает чтение тела ответа с ошибкой
	maxErrorBody = 64 << 10
)

// Client HTTP-клиент сервиса анализа снимков.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// New создаёт клиента. baseURL задаётся конфигурацией, timeout 0 означает без ограничения.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout}, logger)
}

// NewWithHTTPClient создаёт клиента поверх готового http.Client.
func NewWithHTTPClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger.Named("analysisclient"),
	}
}

// Predict отправляет снимок multipart-запросом в поле file и разбирает ответ.
func (c *Client) Predict(ctx context.Context, requestID string, image entity.ImageFile) (*entity.AnalysisResult, error) {
	log := logging.WithOperation(c.logger, "analysisclient.predict", requestID)

	body, contentType, err := encodeUpload(image)
	if err != nil {
		return nil, logging.NewOperationError("analysisclient.encode_upload", requestID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+predictPath, body)
	if err != nil {
		return nil, logging.NewOperationError("analysisclient.predict", requestID, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("analysis service call failed", zap.Error(err), zap.String("url", req.URL.String()))
		return nil, logging.NewOperationError("analysisclient.predict", requestID,
			fmt.Errorf("%w: %v", entity.ErrServiceUnreachable, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serverErr := &entity.ServerError{
			StatusCode: resp.StatusCode,
			Detail:     readDetail(resp.Body),
		}
		log.Warn("analysis service returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("detail", serverErr.Detail))
		return nil, logging.NewOperationError("analysisclient.predict", requestID, serverErr)
	}

	result, err := decodeResult(resp.Body)
	if err != nil {
		log.Error("failed to decode analysis result", zap.Error(err))
		return nil, logging.NewOperationError("analysisclient.decode_result", requestID, err)
	}

	log.Debug("analysis result received",
		zap.Int("status", resp.StatusCode),
		zap.String("viability", result.Viability.Status.String()))
	return result, nil
}

// predictResponse ответ /predict; viability обязателен.
type predictResponse struct {
	Filename        string            `json:"filename"`
	SegmentationMap string            `json:"segmentation_map"`
	Viability       *entity.Viability `json:"viability"`
}

func decodeResult(r io.Reader) (*entity.AnalysisResult, error) {
	var payload predictResponse
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if payload.Viability == nil {
		return nil, errors.New("decode response: missing viability")
	}

	return &entity.AnalysisResult{
		Filename:        payload.Filename,
		SegmentationMap: payload.SegmentationMap,
		Viability:       *payload.Viability,
	}, nil
}

func encodeUpload(image entity.ImageFile) (io.Reader, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	contentType := image.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fileField, escapeQuotes(image.Name)))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create part: %w", err)
	}
	if _, err := part.Write(image.Data); err != nil {
		return nil, "", fmt.Errorf("write part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}

	return body, writer.FormDataContentType(), nil
}

// readDetail достаёт строковое поле detail из тела ошибки.
// Не-JSON тело и detail другого типа дают пустую строку.
func readDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil {
		return ""
	}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err != nil || strings.TrimSpace(detail) == "" {
		return ""
	}
	return detail
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// Проверка реализации интерфейса
var _ port.AnalysisService = (*Client)(nil)
