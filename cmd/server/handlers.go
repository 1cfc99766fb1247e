package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/thelpatil/quotal/internal/catalog"
	"github.com/thelpatil/quotal/internal/currency"
	"github.com/thelpatil/quotal/internal/pricing"
	"github.com/thelpatil/quotal/internal/quotes"
	"github.com/thelpatil/quotal/internal/revshare"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeDomainError maps calculation and storage errors onto HTTP status
// codes. Anything unrecognized is a 500.
func (s *server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pricing.ErrUnknownVariant),
		errors.Is(err, pricing.ErrInvalidDiscount),
		errors.Is(err, currency.ErrUnknownCurrency),
		errors.Is(err, revshare.ErrNoParticipants),
		errors.Is(err, revshare.ErrInvalidShare),
		errors.Is(err, revshare.ErrOverAllocated),
		errors.Is(err, revshare.ErrInvalidTotal):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, quotes.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		s.logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	valid, err := s.auth.validateCredentials(body.Email, body.Password)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if !valid {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	s.auth.setSessionCookie(w, body.Email)
	writeJSON(w, http.StatusOK, map[string]string{"email": body.Email})
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// estimateResponse wraps an estimate with an optional conversion of the
// total into the requested display currency.
type estimateResponse struct {
	pricing.Estimate
	Currency       string  `json:"currency,omitempty"`
	ConvertedTotal float64 `json:"convertedTotal,omitempty"`
}

func (s *server) respondEstimate(w http.ResponseWriter, r *http.Request, est pricing.Estimate) {
	resp := estimateResponse{Estimate: est}

	if code := strings.ToUpper(r.URL.Query().Get("currency")); code != "" && code != currency.Base {
		rates, err := s.rates.Load()
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		converted, err := currency.FromBase(est.Total, code, rates)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		resp.Currency = code
		resp.ConvertedTotal = converted
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleCalculateWeb(w http.ResponseWriter, r *http.Request) {
	var req pricing.WebRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cat, err := s.catalog.Load()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	est, err := pricing.Web(cat, req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.respondEstimate(w, r, est)
}

func (s *server) handleCalculateDesign(w http.ResponseWriter, r *http.Request) {
	var req pricing.DesignRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cat, err := s.catalog.Load()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	est, err := pricing.Design(cat, req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.respondEstimate(w, r, est)
}

func (s *server) handleCalculateVideo(w http.ResponseWriter, r *http.Request) {
	var req pricing.VideoRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cat, err := s.catalog.Load()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	est, err := pricing.Video(cat, req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.respondEstimate(w, r, est)
}

func (s *server) handleApplyDiscount(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Total    float64          `json:"total"`
		Discount pricing.Discount `json:"discount"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	result, err := pricing.ApplyDiscount(body.Total, body.Discount)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type saveQuoteRequest struct {
	ID          string `json:"id,omitempty"`
	ProjectName string `json:"projectName"`
	ServiceType string `json:"serviceType"`
	Currency    string `json:"currency,omitempty"`
	Notes       string `json:"notes,omitempty"`
	Client      struct {
		Name    string `json:"name"`
		Email   string `json:"email,omitempty"`
		Company string `json:"company,omitempty"`
	} `json:"client"`
	Request  json.RawMessage   `json:"request"`
	Discount *pricing.Discount `json:"discount,omitempty"`
}

// handleSaveQuote recomputes the estimate from the submitted request so
// the stored totals always come from the current catalog, never from
// client-supplied numbers.
func (s *server) handleSaveQuote(w http.ResponseWriter, r *http.Request) {
	var body saveQuoteRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.ProjectName) == "" {
		writeError(w, http.StatusBadRequest, "projectName is required")
		return
	}

	cat, err := s.catalog.Load()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	est, err := s.estimateFor(cat, body.ServiceType, body.Request)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	breakdown := est.Breakdown
	total := est.Total
	if body.Discount != nil {
		discounted, err := pricing.ApplyDiscount(total, *body.Discount)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		total = discounted.Total
		breakdown = append(breakdown, discounted.Line)
	}

	code := strings.ToUpper(body.Currency)
	if code == "" {
		code = currency.Base
	}
	var originalTotal float64
	if code != currency.Base {
		rates, err := s.rates.Load()
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		if originalTotal, err = currency.FromBase(total, code, rates); err != nil {
			s.writeDomainError(w, err)
			return
		}
	}

	var clientID string
	if strings.TrimSpace(body.Client.Name) != "" {
		client, err := s.repo.FindOrCreateClient(body.Client.Name, body.Client.Email, body.Client.Company)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		clientID = client.ID
	}

	breakdownJSON, err := json.Marshal(breakdown)
	if err != nil {
		s.writeDomainError(w, fmt.Errorf("encode breakdown: %w", err))
		return
	}

	quote := &quotes.Quote{
		ID:            body.ID,
		ClientID:      clientID,
		ProjectName:   strings.TrimSpace(body.ProjectName),
		ServiceType:   body.ServiceType,
		Currency:      code,
		Subtotal:      est.Subtotal,
		Total:         total,
		OriginalTotal: originalTotal,
		Notes:         body.Notes,
		Request:       body.Request,
		Breakdown:     breakdownJSON,
		Discount:      body.Discount,
	}
	if err := s.repo.SaveQuote(quote); err != nil {
		s.writeDomainError(w, err)
		return
	}

	saved, err := s.repo.GetQuote(quote.ID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *server) estimateFor(cat catalog.Catalog, serviceType string, raw json.RawMessage) (pricing.Estimate, error) {
	switch serviceType {
	case "web":
		var req pricing.WebRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return pricing.Estimate{}, fmt.Errorf("%w: malformed web request", pricing.ErrUnknownVariant)
		}
		return pricing.Web(cat, req)
	case "design":
		var req pricing.DesignRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return pricing.Estimate{}, fmt.Errorf("%w: malformed design request", pricing.ErrUnknownVariant)
		}
		return pricing.Design(cat, req)
	case "video":
		var req pricing.VideoRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return pricing.Estimate{}, fmt.Errorf("%w: malformed video request", pricing.ErrUnknownVariant)
		}
		return pricing.Video(cat, req)
	default:
		return pricing.Estimate{}, fmt.Errorf("%w: service type %q", pricing.ErrUnknownVariant, serviceType)
	}
}

func (s *server) handleListQuotes(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	summaries, err := s.repo.ListQuotes(query)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *server) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	quote, err := s.repo.GetQuote(chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (s *server) handleDeleteQuote(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteQuote(chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleQuoteStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.repo.UpdateQuoteStatus(id, body.Status); err != nil {
		if errors.Is(err, quotes.ErrNotFound) {
			s.writeDomainError(w, err)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	quote, err := s.repo.GetQuote(id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (s *server) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.repo.ListClients()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

func (s *server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.repo.ListMembers()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (s *server) handleSaveMember(w http.ResponseWriter, r *http.Request) {
	var member quotes.TeamMember
	if !decodeBody(w, r, &member) {
		return
	}

	if err := s.repo.SaveMember(&member); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

func (s *server) handleMemberActive(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Active bool `json:"active"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	if err := s.repo.SetMemberActive(chi.URLParam(r, "id"), body.Active); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteMember(chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleTeamShares splits a project total across the active roster. The
// project can come from a saved quote or be given inline; with commit
// set, each member's completion counters are updated.
func (s *server) handleTeamShares(w http.ResponseWriter, r *http.Request) {
	var body struct {
		QuoteID       string  `json:"quoteId,omitempty"`
		Total         float64 `json:"total,omitempty"`
		OriginalTotal float64 `json:"originalTotal,omitempty"`
		Currency      string  `json:"currency,omitempty"`
		Commit        bool    `json:"commit,omitempty"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	project := revshare.Project{
		TotalBase:     body.Total,
		OriginalTotal: body.OriginalTotal,
		Currency:      strings.ToUpper(body.Currency),
	}
	if body.QuoteID != "" {
		quote, err := s.repo.GetQuote(body.QuoteID)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		project = revshare.Project{
			TotalBase:     quote.Total,
			OriginalTotal: quote.OriginalTotal,
			Currency:      quote.Currency,
		}
	}

	members, err := s.repo.ListMembers()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	participants := make([]revshare.Participant, 0, len(members))
	for _, m := range members {
		participants = append(participants, m.Participant())
	}

	allocations, err := revshare.Allocate(project, participants)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	if body.Commit {
		earnings := make(map[string]float64, len(allocations))
		for _, alloc := range allocations {
			if alloc.ParticipantID == "company" {
				continue
			}
			earnings[alloc.ParticipantID] = alloc.Amount
		}
		if err := s.repo.RecordProjectCompletions(earnings); err != nil {
			s.writeDomainError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, allocations)
}

func (s *server) handleGetRates(w http.ResponseWriter, r *http.Request) {
	cat, err := s.catalog.Load()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

func (s *server) handlePutRates(w http.ResponseWriter, r *http.Request) {
	var overrides catalog.Catalog
	if !decodeBody(w, r, &overrides) {
		return
	}

	effective, err := s.catalog.SaveOverrides(overrides)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, effective)
}

func (s *server) handleGetExchangeRates(w http.ResponseWriter, r *http.Request) {
	rates, err := s.rates.Load()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rates)
}

func (s *server) handlePutExchangeRates(w http.ResponseWriter, r *http.Request) {
	var rates map[string]float64
	if !decodeBody(w, r, &rates) {
		return
	}

	if err := s.rates.Save(rates); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := s.rates.Load()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
