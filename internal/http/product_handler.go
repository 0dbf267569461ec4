package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RutamBhagat/automated-price-tracking/internal/domain"
	"github.com/RutamBhagat/automated-price-tracking/internal/pricing"
	"github.com/RutamBhagat/automated-price-tracking/internal/repository"
	"github.com/RutamBhagat/automated-price-tracking/internal/scraper"
)

// ProductService is what the handlers need from the service layer.
type ProductService interface {
	Track(ctx context.Context, url string) (*domain.PriceRecord, error)
	Latest(ctx context.Context, url string) (*domain.PriceRecord, error)
	List(ctx context.Context) ([]domain.ProductSummary, error)
	History(ctx context.Context, url string, limit, offset int) (domain.PriceHistory, error)
	Remove(ctx context.Context, url string) error
}

type ProductHandler struct {
	service ProductService
	timeout time.Duration
}

func NewProductHandler(service ProductService, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		service: service,
		timeout: timeout,
	}
}

type TrackRequestDTO struct {
	URL string `json:"url"`
}

type ProductResponse struct {
	URL          string           `json:"url"`
	LatestName   string           `json:"latest_name,omitempty"`
	LatestPrice  *decimal.Decimal `json:"latest_price,omitempty"`
	Currency     string           `json:"currency,omitempty"`
	IsAvailable  bool             `json:"is_available"`
	MainImageURL string           `json:"main_image_url,omitempty"`
}

type PriceHistoryResponse struct {
	Timestamp    time.Time       `json:"timestamp"`
	Price        decimal.Decimal `json:"price"`
	Name         string          `json:"name"`
	Currency     string          `json:"currency"`
	IsAvailable  bool            `json:"is_available"`
	MainImageURL string          `json:"main_image_url,omitempty"`
}

type ProductDetailResponse struct {
	Product      ProductResponse        `json:"product"`
	PriceHistory []PriceHistoryResponse `json:"price_history"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Track handles POST /api/v1/products.
func (h *ProductHandler) Track(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req TrackRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if !isValidURL(req.URL) {
		respondError(w, http.StatusBadRequest, "invalid_url", "url must be an absolute http(s) URL")
		return
	}

	record, err := h.service.Track(ctx, req.URL)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, recordToProductResponse(record))
}

// List handles GET /api/v1/products.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	summaries, err := h.service.List(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	products := make([]ProductResponse, len(summaries))
	for i, s := range summaries {
		products[i] = ProductResponse{
			URL:          s.URL,
			LatestName:   s.LatestName,
			LatestPrice:  s.LatestPrice,
			Currency:     s.Currency,
			IsAvailable:  s.IsAvailable,
			MainImageURL: s.MainImageURL,
		}
	}

	respondJSON(w, http.StatusOK, products)
}

// Latest handles GET /api/v1/products/latest?url=. Served from the
// latest-record cache when warm.
func (h *ProductHandler) Latest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productURL := r.URL.Query().Get("url")
	if !isValidURL(productURL) {
		respondError(w, http.StatusBadRequest, "invalid_url", "url query parameter is required")
		return
	}

	record, err := h.service.Latest(ctx, productURL)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, recordToProductResponse(record))
}

// Details handles GET /api/v1/products/details?url=.
func (h *ProductHandler) Details(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productURL := r.URL.Query().Get("url")
	if !isValidURL(productURL) {
		respondError(w, http.StatusBadRequest, "invalid_url", "url query parameter is required")
		return
	}

	history, err := h.service.History(ctx, productURL, 0, 0)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	latest, _ := history.MostRecent()
	detail := ProductDetailResponse{
		Product:      recordToProductResponse(&latest),
		PriceHistory: make([]PriceHistoryResponse, len(history)),
	}
	for i, record := range history {
		detail.PriceHistory[i] = recordToHistoryResponse(record)
	}

	respondJSON(w, http.StatusOK, detail)
}

// History handles GET /api/v1/products/price-history?url=&limit=&offset=.
func (h *ProductHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productURL := r.URL.Query().Get("url")
	if !isValidURL(productURL) {
		respondError(w, http.StatusBadRequest, "invalid_url", "url query parameter is required")
		return
	}

	limit, ok := queryInt(r, "limit", 0)
	if !ok || limit < 0 {
		respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
		return
	}
	offset, ok := queryInt(r, "offset", 0)
	if !ok || offset < 0 {
		respondError(w, http.StatusBadRequest, "invalid_offset", "offset must be a non-negative integer")
		return
	}

	history, err := h.service.History(ctx, productURL, limit, offset)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	records := make([]PriceHistoryResponse, len(history))
	for i, record := range history {
		records[i] = recordToHistoryResponse(record)
	}

	respondJSON(w, http.StatusOK, records)
}

// Remove handles DELETE /api/v1/products?url=.
func (h *ProductHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productURL := r.URL.Query().Get("url")
	if !isValidURL(productURL) {
		respondError(w, http.StatusBadRequest, "invalid_url", "url query parameter is required")
		return
	}

	if err := h.service.Remove(ctx, productURL); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func recordToProductResponse(record *domain.PriceRecord) ProductResponse {
	price := record.Price
	return ProductResponse{
		URL:          record.ProductURL,
		LatestName:   record.Name,
		LatestPrice:  &price,
		Currency:     record.Currency,
		IsAvailable:  record.IsAvailable,
		MainImageURL: record.MainImageURL,
	}
}

func recordToHistoryResponse(record domain.PriceRecord) PriceHistoryResponse {
	return PriceHistoryResponse{
		Timestamp:    record.Timestamp,
		Price:        record.Price,
		Name:         record.Name,
		Currency:     record.Currency,
		IsAvailable:  record.IsAvailable,
		MainImageURL: record.MainImageURL,
	}
}

func isValidURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func queryInt(r *http.Request, key string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return value, true
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "not_found", "product not found")
	case errors.Is(err, pricing.ErrNonMonotonicTimestamp), errors.Is(err, repository.ErrDuplicateRecord):
		respondError(w, http.StatusConflict, "conflict", "a newer record for this product already exists")
	case errors.Is(err, scraper.ErrScraperDegraded):
		respondError(w, http.StatusServiceUnavailable, "scraper_degraded", "scraper temporarily unavailable")
	case errors.Is(err, scraper.ErrScrapeFailed), errors.Is(err, scraper.ErrIncompleteData):
		respondError(w, http.StatusServiceUnavailable, "scrape_failed", "error scraping product data")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		log.Printf("internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
