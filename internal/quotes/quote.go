package quotes

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/thelpatil/quotal/internal/pricing"
)

// Quote statuses, in lifecycle order.
const (
	StatusDraft    = "draft"
	StatusSent     = "sent"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// Quote is a saved price estimate. Request and Breakdown are stored as
// the JSON produced at calculation time so a saved quote renders exactly
// as it was computed, even after the catalog changes.
type Quote struct {
	ID            string            `json:"id"`
	ClientID      string            `json:"clientId"`
	ProjectName   string            `json:"projectName"`
	ServiceType   string            `json:"serviceType"`
	Status        string            `json:"status"`
	Currency      string            `json:"currency"`
	Subtotal      float64           `json:"subtotal"`
	Total         float64           `json:"total"`
	OriginalTotal float64           `json:"originalTotal,omitempty"`
	Notes         string            `json:"notes,omitempty"`
	Request       json.RawMessage   `json:"request"`
	Breakdown     json.RawMessage   `json:"breakdown"`
	Discount      *pricing.Discount `json:"discount,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// Summary is the list view of a quote.
type Summary struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"clientId"`
	ProjectName string    `json:"projectName"`
	ServiceType string    `json:"serviceType"`
	Status      string    `json:"status"`
	Currency    string    `json:"currency"`
	Total       float64   `json:"total"`
	CreatedAt   time.Time `json:"createdAt"`
}

func validStatus(status string) bool {
	switch status {
	case StatusDraft, StatusSent, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// SaveQuote inserts the quote, or updates it in place when the id already
// exists (edit-and-resave keeps the same id). A missing id is assigned
// and a missing status defaults to draft. On update the stored status is
// preserved; status moves only through UpdateQuoteStatus.
func (r *Repository) SaveQuote(q *Quote) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.Status == "" {
		q.Status = StatusDraft
	}
	if !validStatus(q.Status) {
		return fmt.Errorf("invalid quote status %q", q.Status)
	}

	discountJSON := ""
	if q.Discount != nil {
		encoded, err := json.Marshal(q.Discount)
		if err != nil {
			return fmt.Errorf("encode quote discount: %w", err)
		}
		discountJSON = string(encoded)
	}

	// client_id is a nullable foreign key; an unlinked quote must store
	// NULL, not the empty string.
	var clientID any
	if q.ClientID != "" {
		clientID = q.ClientID
	}

	_, err := r.db.Exec(`
		INSERT INTO quotes (
			id, client_id, project_name, service_type, status, currency,
			subtotal, total, original_total, notes,
			request_json, breakdown_json, discount_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			client_id = excluded.client_id,
			project_name = excluded.project_name,
			service_type = excluded.service_type,
			currency = excluded.currency,
			subtotal = excluded.subtotal,
			total = excluded.total,
			original_total = excluded.original_total,
			notes = excluded.notes,
			request_json = excluded.request_json,
			breakdown_json = excluded.breakdown_json,
			discount_json = excluded.discount_json,
			updated_at = CURRENT_TIMESTAMP
	`,
		q.ID, clientID, q.ProjectName, q.ServiceType, q.Status, q.Currency,
		q.Subtotal, q.Total, q.OriginalTotal, q.Notes,
		string(q.Request), string(q.Breakdown), discountJSON,
	)
	if err != nil {
		return fmt.Errorf("save quote: %w", err)
	}
	return nil
}

// ListQuotes returns summaries newest first, optionally filtered by a
// substring match on project name or notes.
func (r *Repository) ListQuotes(query string) ([]Summary, error) {
	search := "%" + query + "%"
	rows, err := r.db.Query(`
		SELECT id, COALESCE(client_id, ''), project_name, service_type, status, currency, total, created_at
		FROM quotes
		WHERE (? = '' OR project_name LIKE ? OR COALESCE(notes, '') LIKE ?)
		ORDER BY datetime(created_at) DESC, id DESC
	`, query, search, search)
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	summaries := make([]Summary, 0)
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.ClientID, &s.ProjectName, &s.ServiceType, &s.Status, &s.Currency, &s.Total, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotes: %w", err)
	}

	return summaries, nil
}

// GetQuote loads a full quote by id.
func (r *Repository) GetQuote(id string) (Quote, error) {
	var q Quote
	var requestJSON, breakdownJSON, discountJSON string
	err := r.db.QueryRow(`
		SELECT id, COALESCE(client_id, ''), project_name, service_type, status, currency,
			subtotal, total, original_total, COALESCE(notes, ''),
			request_json, breakdown_json, COALESCE(discount_json, ''),
			created_at, updated_at
		FROM quotes
		WHERE id = ?
	`, id).Scan(
		&q.ID, &q.ClientID, &q.ProjectName, &q.ServiceType, &q.Status, &q.Currency,
		&q.Subtotal, &q.Total, &q.OriginalTotal, &q.Notes,
		&requestJSON, &breakdownJSON, &discountJSON,
		&q.CreatedAt, &q.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Quote{}, ErrNotFound
	}
	if err != nil {
		return Quote{}, fmt.Errorf("query quote: %w", err)
	}

	q.Request = json.RawMessage(requestJSON)
	q.Breakdown = json.RawMessage(breakdownJSON)
	if discountJSON != "" {
		var d pricing.Discount
		if err := json.Unmarshal([]byte(discountJSON), &d); err != nil {
			return Quote{}, fmt.Errorf("decode quote discount: %w", err)
		}
		q.Discount = &d
	}

	return q, nil
}

// UpdateQuoteStatus moves a quote through its lifecycle.
func (r *Repository) UpdateQuoteStatus(id, status string) error {
	if !validStatus(status) {
		return fmt.Errorf("invalid quote status %q", status)
	}

	result, err := r.db.Exec(`
		UPDATE quotes
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, status, id)
	if err != nil {
		return fmt.Errorf("update quote status: %w", err)
	}
	return requireAffected(result)
}

// DeleteQuote removes a quote by id.
func (r *Repository) DeleteQuote(id string) error {
	result, err := r.db.Exec(`DELETE FROM quotes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete quote: %w", err)
	}
	return requireAffected(result)
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
