package api

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"homie/internal/analysis"
	"homie/internal/demographics"
	"homie/internal/models"
	"homie/internal/scraper"
)

const (
	maxListLimit = 500
	maxBodyBytes = 16 << 20
)

var postcodePattern = regexp.MustCompile(`^\d{4}$`)

// Store is the read side of the caches.
type Store interface {
	GetProperty(ctx context.Context, url string) (*models.PropertyRecord, error)
	ListProperties(ctx context.Context, f models.PropertyFilter) (*models.PropertyListResponse, error)
	GetAnalysis(ctx context.Context, url string) (*models.SavedAnalysis, error)
	ListAnalyses(ctx context.Context, limit, offset int) ([]models.SavedAnalysis, error)
}

// Pipeline extracts and stores records.
type Pipeline interface {
	Process(ctx context.Context, page *scraper.Page) (*models.PropertyRecord, error)
	Scrape(ctx context.Context, url string) (*models.PropertyRecord, error)
}

// Analyzer runs and renders analyses.
type Analyzer interface {
	Analyze(ctx context.Context, rec *models.PropertyRecord, refresh bool) (*analysis.Result, error)
	Report(ctx context.Context, rec *models.PropertyRecord, parsed *analysis.Parsed) *analysis.Report
}

// Forecaster projects listing prices.
type Forecaster interface {
	Forecast(ctx context.Context, price float64, suburb, postcode string) (*analysis.PriceForecast, error)
}

// Deps are the components behind the handlers.
type Deps struct {
	Store      Store
	Pipeline   Pipeline
	Analyzer   Analyzer
	Forecaster Forecaster
	Normalizer *demographics.Normalizer
}

// Handlers contains HTTP handlers and their dependencies
type Handlers struct {
	Deps
	log *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(deps Deps, log *zap.Logger) *Handlers {
	if deps.Normalizer == nil {
		deps.Normalizer = demographics.NewNormalizer(nil, nil, log)
	}
	return &Handlers{Deps: deps, log: log}
}

// Health handles GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type extractRequest struct {
	URL  string `json:"url"`
	HTML string `json:"html"`
}

// Extract handles POST /api/extract
func (h *Handlers) Extract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if !decode(w, r, &req) {
		return
	}
	if req.URL == "" || req.HTML == "" {
		badRequest(w, "url and html are required")
		return
	}

	rec, err := h.Pipeline.Process(r.Context(), &scraper.Page{URL: req.URL, HTML: req.HTML})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Fetch handles POST /api/fetch
func (h *Handlers) Fetch(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if !decode(w, r, &req) {
		return
	}
	if req.URL == "" {
		badRequest(w, "url is required")
		return
	}

	rec, err := h.Pipeline.Scrape(r.Context(), req.URL)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ListProperties handles GET /api/properties
func (h *Handlers) ListProperties(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := pagination(q.Get("limit"), q.Get("offset"))
	filter := models.PropertyFilter{
		Suburb:   q.Get("suburb"),
		Postcode: q.Get("postcode"),
		Limit:    limit,
		Offset:   offset,
	}

	resp, err := h.Store.ListProperties(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetProperty handles GET /api/property?url=
func (h *Handlers) GetProperty(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		badRequest(w, "url is required")
		return
	}

	rec, err := h.Store.GetProperty(r.Context(), url)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type analyzeRequest struct {
	URL     string `json:"url"`
	Refresh bool   `json:"refresh"`
}

// Analyze handles POST /api/analyze
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !decode(w, r, &req) {
		return
	}
	if req.URL == "" {
		badRequest(w, "url is required")
		return
	}

	rec, err := h.Store.GetProperty(r.Context(), req.URL)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.Analyzer.Analyze(r.Context(), rec, req.Refresh)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListAnalyses handles GET /api/analyses
func (h *Handlers) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := pagination(q.Get("limit"), q.Get("offset"))

	analyses, err := h.Store.ListAnalyses(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"analyses": analyses,
		"count":    len(analyses),
	})
}

// GetAnalysis handles GET /api/analysis?url=
func (h *Handlers) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		badRequest(w, "url is required")
		return
	}

	saved, err := h.Store.GetAnalysis(r.Context(), url)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	parsed, err := analysis.DecodeSaved(saved)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// the stored record supplies the price for projections when present
	rec, err := h.Store.GetProperty(r.Context(), url)
	if err != nil {
		rec = &models.PropertyRecord{URL: saved.URL, Address: saved.Address, Price: models.PriceNotSpecified}
	}

	writeJSON(w, http.StatusOK, &analysis.Result{
		Saved:  saved,
		Parsed: parsed,
		Report: h.Analyzer.Report(r.Context(), rec, parsed),
		Cached: true,
	})
}

// Demographics handles GET /api/demographics/{postcode}
func (h *Handlers) Demographics(w http.ResponseWriter, r *http.Request) {
	postcode := chi.URLParam(r, "postcode")
	if !postcodePattern.MatchString(postcode) {
		badRequest(w, "postcode must be four digits")
		return
	}

	result := h.Normalizer.Normalize(r.Context(), demographics.Input{
		Suburb:   r.URL.Query().Get("suburb"),
		Postcode: postcode,
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"postcode": postcode,
		"profile":  result.Profile,
		"source":   result.Source,
		"defaults": result.Defaults,
	})
}

// Forecast handles GET /api/forecast
func (h *Handlers) Forecast(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	price := parseAmount(q.Get("price"))
	if price <= 0 {
		badRequest(w, "price must be a positive amount")
		return
	}
	postcode := q.Get("postcode")
	if !postcodePattern.MatchString(postcode) {
		badRequest(w, "postcode must be four digits")
		return
	}

	forecast, err := h.Forecaster.Forecast(r.Context(), price, q.Get("suburb"), postcode)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, forecast)
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "invalid JSON body")
		return false
	}
	return true
}

func pagination(limitStr, offsetStr string) (int, int) {
	limit, offset := 0, 0
	if val, err := strconv.Atoi(limitStr); err == nil && val > 0 && val <= maxListLimit {
		limit = val
	}
	if val, err := strconv.Atoi(offsetStr); err == nil && val >= 0 {
		offset = val
	}
	return limit, offset
}

// parseAmount accepts plain numbers and listing-style prices such as
// "$1.2m" or "$850,000".
func parseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return v
	}
	if !strings.HasPrefix(s, "$") {
		s = "$" + s
	}
	return analysis.ParsePrice(s)
}
