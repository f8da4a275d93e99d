package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sitestock/internal"
	"sitestock/internal/config"
)

// Client is the typed facade over the remote materials API: catalog list
// queries, fuzzy material search, delivery-note analysis and the bulk
// storage-item commit. It performs no retries and no caching; callers own
// both concerns.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.StockAPITimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.StockAPIRateRPS),
	}
}

func (c *Client) ListMaterials(ctx context.Context) ([]internal.Material, error) {
	body, err := c.fetchJSON(ctx, "materials", nil)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Materials []internal.Material `json:"materials"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	return payload.Materials, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]internal.Category, error) {
	body, err := c.fetchJSON(ctx, "categories", nil)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Categories []internal.Category `json:"categories"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	return payload.Categories, nil
}

func (c *Client) ListUnits(ctx context.Context) ([]internal.Unit, error) {
	body, err := c.fetchJSON(ctx, "units", nil)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Units []internal.Unit `json:"units"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	return payload.Units, nil
}

func (c *Client) ListConstructions(ctx context.Context) ([]internal.Construction, error) {
	body, err := c.fetchJSON(ctx, "constructions", nil)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Constructions []internal.Construction `json:"constructions"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	return payload.Constructions, nil
}

// SearchMaterials returns ranked partial-name matches. Every failure mode is
// wrapped in *NetworkError so callers can degrade to zero results.
func (c *Client) SearchMaterials(ctx context.Context, query string) ([]internal.MaterialSearchResult, error) {
	body, err := c.fetchJSON(ctx, "materials/search", map[string]string{"q": query})
	if err != nil {
		return nil, &NetworkError{Op: "search materials", Err: err}
	}
	var payload struct {
		Results []internal.MaterialSearchResult `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &NetworkError{Op: "search materials", Err: err}
	}
	return payload.Results, nil
}

// AnalyzeDeliveryNote uploads a document for one construction and returns the
// extracted line items with their ranked match candidates. Any failure is a
// *DocumentAnalysisError whose message is meant for display.
func (c *Client) AnalyzeDeliveryNote(ctx context.Context, constructionID, filename string, content []byte) ([]internal.ExtractedItem, error) {
	if strings.TrimSpace(c.cfg.StockAPIToken) == "" {
		return nil, &DocumentAnalysisError{Message: "missing STOCK_API_TOKEN"}
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, &DocumentAnalysisError{Message: err.Error()}
	}
	if _, err := part.Write(content); err != nil {
		return nil, &DocumentAnalysisError{Message: err.Error()}
	}
	if err := writer.Close(); err != nil {
		return nil, &DocumentAnalysisError{Message: err.Error()}
	}

	endpoint := fmt.Sprintf("constructions/%s/delivery-notes/analyze", url.PathEscape(constructionID))
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, &DocumentAnalysisError{Message: err.Error()}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	body, err := c.do(req)
	if err != nil {
		return nil, &DocumentAnalysisError{Message: analysisMessage(err)}
	}

	var payload struct {
		ExtractedItems []internal.ExtractedItem `json:"extractedItems"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &DocumentAnalysisError{Message: "document analysis returned an unreadable response"}
	}
	return payload.ExtractedItems, nil
}

// BulkCreateStorageItems persists the given quantities against a
// construction. The batch is all-or-nothing from this module's view.
func (c *Client) BulkCreateStorageItems(ctx context.Context, constructionID string, items []internal.StorageItemInput) error {
	if len(items) == 0 {
		return errors.New("no storage items to create")
	}

	blob, err := json.Marshal(map[string]any{"items": items})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("constructions/%s/storage-items/bulk", url.PathEscape(constructionID))
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(blob))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	_, err = c.do(req)
	return err
}

func (c *Client) fetchJSON(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	q := req.URL.Query()
	for k, v := range params {
		if strings.TrimSpace(v) != "" {
			q.Set(k, v)
		}
	}
	req.URL.RawQuery = q.Encode()

	return c.do(req)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	if strings.TrimSpace(c.cfg.StockAPIToken) == "" {
		return nil, errors.New("missing STOCK_API_TOKEN")
	}

	baseURL := strings.TrimRight(c.cfg.StockAPIBaseURL, "/") + "/"
	u, err := url.Parse(baseURL + endpoint)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.StockAPIToken)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	c.limiter.WaitTurn()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	body, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiResp apiResponse
		if err := json.Unmarshal(body, &apiResp); err == nil && strings.TrimSpace(apiResp.Message) != "" {
			return nil, &statusError{status: resp.StatusCode, message: apiResp.Message}
		}
		return nil, &statusError{status: resp.StatusCode, message: strings.TrimSpace(string(body))}
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, err
	}
	if !apiResp.Success {
		return nil, fmt.Errorf("stock api unsuccessful: %s", apiResp.Message)
	}
	return apiResp.Data, nil
}

type statusError struct {
	status  int
	message string
}

func (e *statusError) Error() string {
	if e.message == "" {
		return fmt.Sprintf("stock api error: status=%d", e.status)
	}
	return fmt.Sprintf("stock api error: status=%d message=%s", e.status, e.message)
}

func analysisMessage(err error) string {
	var se *statusError
	if errors.As(err, &se) && se.message != "" {
		return se.message
	}
	return err.Error()
}
