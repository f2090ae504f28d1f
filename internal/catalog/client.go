package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"quire/internal/logging"
)

// ErrUnexpectedStatus tags responses outside the 2xx range.
var ErrUnexpectedStatus = errors.New("unexpected status")

const registDateLayout = "2006-01-02 15:04:05"

// HTTPDoer describes the HTTP client used by the catalog client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client queries the public product-info endpoint. No authentication is
// required.
type Client struct {
	baseURL string
	locale  string
	http    HTTPDoer
	logger  *slog.Logger
}

// NewClient constructs a catalog client. Locale may be empty; when set it
// is passed through to the API in the vendor's ja_JP form.
func NewClient(baseURL, locale string, doer HTTPDoer, logger *slog.Logger) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		locale:  strings.TrimSpace(locale),
		http:    doer,
		logger:  logging.NewComponentLogger(logger, "catalog"),
	}
}

type rawProductInfo struct {
	SiteID      string `json:"site_id"`
	MakerID     string `json:"maker_id"`
	WorkName    string `json:"work_name"`
	AgeCategory int    `json:"age_category"`
	WorkType    string `json:"work_type"`
	BookType    *struct {
		Value string `json:"value"`
	} `json:"book_type"`
	CircleName string `json:"circle_name"`
	BrandName  string `json:"brand_name"`
	Publisher  string `json:"publisher"`
	SeriesName string `json:"series_name"`
	PageCount  int    `json:"page_count"`
	RegistDate string `json:"regist_date"`
}

// ProductInfo returns the ajax product info for a product ID.
func (c *Client) ProductInfo(ctx context.Context, productID string) (Work, error) {
	params := url.Values{"product_id": {productID}}
	if c.locale != "" {
		params.Set("locale", c.locale)
	}
	endpoint := c.baseURL + "/maniax/product/info/ajax?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Work{}, fmt.Errorf("build product info request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Work{}, fmt.Errorf("product info for %s: %w", productID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return Work{}, fmt.Errorf("%w: %d for product info %s", ErrUnexpectedStatus, resp.StatusCode, productID)
	}

	var payload map[string]rawProductInfo
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Work{}, fmt.Errorf("decode product info for %s: %w", productID, err)
	}
	raw, ok := payload[productID]
	if !ok {
		return Work{}, fmt.Errorf("no product info for %s", productID)
	}

	work := Work{
		ProductID:   productID,
		SiteID:      raw.SiteID,
		MakerID:     raw.MakerID,
		Name:        raw.WorkName,
		AgeCategory: AgeCategory(raw.AgeCategory),
		WorkType:    WorkType(raw.WorkType),
		Circle:      raw.CircleName,
		Brand:       raw.BrandName,
		Publisher:   raw.Publisher,
		Series:      raw.SeriesName,
		PageCount:   raw.PageCount,
	}
	if raw.BookType != nil {
		work.BookType = raw.BookType.Value
	}
	if raw.RegistDate != "" {
		ts, err := time.Parse(registDateLayout, raw.RegistDate)
		if err != nil {
			return Work{}, fmt.Errorf("product info for %s: regist_date %q: %w", productID, raw.RegistDate, err)
		}
		work.RegistDate = ts
	}
	c.logger.Debug("fetched product info",
		logging.String(logging.FieldWorkno, productID),
		logging.String("work_name", work.Name))
	return work, nil
}
