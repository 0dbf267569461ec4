package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"

	"github.com/RutamBhagat/automated-price-tracking/internal/domain"
)

var (
	ErrScrapeFailed    = errors.New("scrape request failed")
	ErrIncompleteData  = errors.New("scrape returned incomplete product data")
	ErrScraperDegraded = errors.New("scraper circuit open")
)

// Client scrapes product pages through an extraction API: the service fetches
// the page and returns the structured fields we ask for, so the client never
// parses storefront HTML itself.
type Client struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*extractedProduct]
}

type extractedProduct struct {
	URL          string           `json:"url"`
	Name         string           `json:"name"`
	Price        *decimal.Decimal `json:"price"`
	Currency     string           `json:"currency"`
	MainImageURL string           `json:"main_image_url"`
	IsAvailable  *bool            `json:"is_available"`
}

type scrapeRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats"`
	Extract struct {
		Prompt string `json:"prompt"`
	} `json:"extract"`
}

type scrapeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    struct {
		Extract extractedProduct `json:"extract"`
	} `json:"data"`
}

const extractPrompt = "Extract the product name, current price as a number, " +
	"ISO currency code, main image URL, and whether the product is currently available."

func NewClient(apiURL, apiKey string) *Client {
	breaker := gobreaker.NewCircuitBreaker[*extractedProduct](gobreaker.Settings{
		Name:    "scraper",
		Timeout: 2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Client{
		apiURL:     apiURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		breaker:    breaker,
	}
}

// Scrape fetches a snapshot for the product URL. The timestamp is assigned
// here, after the extraction call returns.
func (c *Client) Scrape(ctx context.Context, url string) (*domain.ProductSnapshot, error) {
	extracted, err := c.breaker.Execute(func() (*extractedProduct, error) {
		return c.doScrape(ctx, url)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrScraperDegraded, err)
		}
		return nil, err
	}

	snapshot := &domain.ProductSnapshot{
		URL:          url,
		Name:         extracted.Name,
		Price:        *extracted.Price,
		Currency:     extracted.Currency,
		MainImageURL: extracted.MainImageURL,
		IsAvailable:  *extracted.IsAvailable,
		Timestamp:    time.Now().UTC(),
	}
	return snapshot, nil
}

func (c *Client) doScrape(ctx context.Context, url string) (*extractedProduct, error) {
	reqBody := scrapeRequest{
		URL:     url,
		Formats: []string{"extract"},
	}
	reqBody.Extract.Prompt = extractPrompt

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal scrape request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build scrape request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScrapeFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrScrapeFailed, resp.StatusCode)
	}

	var body scrapeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrScrapeFailed, err)
	}
	if !body.Success {
		return nil, fmt.Errorf("%w: %s", ErrScrapeFailed, body.Error)
	}

	extracted := body.Data.Extract
	if err := validate(&extracted); err != nil {
		return nil, err
	}
	return &extracted, nil
}

// validate enforces the snapshot contract: a missing required field is an
// error, never a partial snapshot.
func validate(p *extractedProduct) error {
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: missing name", ErrIncompleteData)
	case p.Price == nil:
		return fmt.Errorf("%w: missing price", ErrIncompleteData)
	case p.Price.IsNegative():
		return fmt.Errorf("%w: negative price %s", ErrIncompleteData, p.Price)
	case p.Currency == "":
		return fmt.Errorf("%w: missing currency", ErrIncompleteData)
	case p.IsAvailable == nil:
		return fmt.Errorf("%w: missing availability", ErrIncompleteData)
	}
	return nil
}
