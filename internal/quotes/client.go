package quotes

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client is a party a quote is prepared for.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Company   string    `json:"company,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// FindOrCreateClient returns the existing client matched by email, or by
// case-insensitive name when no email is given, creating the record on a
// miss. Saving a quote never forces the caller to pre-register clients.
func (r *Repository) FindOrCreateClient(name, email, company string) (Client, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return Client{}, fmt.Errorf("client name is required")
	}

	var (
		existing Client
		err      error
	)
	if email != "" {
		err = r.db.QueryRow(`
			SELECT id, name, email, COALESCE(company, ''), created_at
			FROM clients WHERE email = ?
		`, email).Scan(&existing.ID, &existing.Name, &existing.Email, &existing.Company, &existing.CreatedAt)
	} else {
		err = r.db.QueryRow(`
			SELECT id, name, COALESCE(email, ''), COALESCE(company, ''), created_at
			FROM clients WHERE lower(name) = lower(?)
		`, name).Scan(&existing.ID, &existing.Name, &existing.Email, &existing.Company, &existing.CreatedAt)
	}
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Client{}, fmt.Errorf("query client: %w", err)
	}

	created := Client{
		ID:      uuid.NewString(),
		Name:    name,
		Email:   email,
		Company: strings.TrimSpace(company),
	}
	_, err = r.db.Exec(`
		INSERT INTO clients (id, name, email, company) VALUES (?, ?, ?, ?)
	`, created.ID, created.Name, created.Email, created.Company)
	if err != nil {
		return Client{}, fmt.Errorf("insert client: %w", err)
	}
	return created, nil
}

// ListClients returns all clients ordered by name.
func (r *Repository) ListClients() ([]Client, error) {
	rows, err := r.db.Query(`
		SELECT id, name, COALESCE(email, ''), COALESCE(company, ''), created_at
		FROM clients
		ORDER BY lower(name)
	`)
	if err != nil {
		return nil, fmt.Errorf("query clients: %w", err)
	}
	defer rows.Close()

	clients := make([]Client, 0)
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Company, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}

	return clients, nil
}
