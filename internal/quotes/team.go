package quotes

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thelpatil/quotal/internal/revshare"
)

// TeamMember is a roster entry used for revenue sharing.
type TeamMember struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Role              string    `json:"role"`
	Country           string    `json:"country,omitempty"`
	HourlyRate        float64   `json:"hourlyRate"`
	SharePercentage   float64   `json:"sharePercentage"`
	Active            bool      `json:"active"`
	ProjectsCompleted int       `json:"projectsCompleted"`
	TotalEarnings     float64   `json:"totalEarnings"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Participant converts the roster entry into the allocation input.
func (m TeamMember) Participant() revshare.Participant {
	return revshare.Participant{
		ID:              m.ID,
		Name:            m.Name,
		Role:            m.Role,
		Country:         m.Country,
		SharePercentage: m.SharePercentage,
		Active:          m.Active,
	}
}

// SaveMember inserts or updates a roster entry. Shares must sit in
// (0, 100] and the hourly rate must be positive; the cross-member sum is
// checked at allocation time, not here.
func (r *Repository) SaveMember(m *TeamMember) error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("member name is required")
	}
	if m.SharePercentage <= 0 || m.SharePercentage > 100 {
		return fmt.Errorf("share percentage %v outside (0, 100]", m.SharePercentage)
	}
	if m.HourlyRate <= 0 {
		return fmt.Errorf("hourly rate must be positive, got %v", m.HourlyRate)
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
		m.Active = true
	}

	_, err := r.db.Exec(`
		INSERT INTO team_members (id, name, role, country, hourly_rate, share_percentage, active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			role = excluded.role,
			country = excluded.country,
			hourly_rate = excluded.hourly_rate,
			share_percentage = excluded.share_percentage
	`, m.ID, m.Name, m.Role, m.Country, m.HourlyRate, m.SharePercentage, m.Active)
	if err != nil {
		return fmt.Errorf("save team member: %w", err)
	}
	return nil
}

// ListMembers returns the full roster, active members first.
func (r *Repository) ListMembers() ([]TeamMember, error) {
	rows, err := r.db.Query(`
		SELECT id, name, role, COALESCE(country, ''), hourly_rate, share_percentage,
			active, projects_completed, total_earnings, created_at
		FROM team_members
		ORDER BY active DESC, lower(name)
	`)
	if err != nil {
		return nil, fmt.Errorf("query team members: %w", err)
	}
	defer rows.Close()

	members := make([]TeamMember, 0)
	for rows.Next() {
		var m TeamMember
		if err := rows.Scan(&m.ID, &m.Name, &m.Role, &m.Country, &m.HourlyRate, &m.SharePercentage,
			&m.Active, &m.ProjectsCompleted, &m.TotalEarnings, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate team members: %w", err)
	}

	return members, nil
}

// GetMember loads one roster entry.
func (r *Repository) GetMember(id string) (TeamMember, error) {
	var m TeamMember
	err := r.db.QueryRow(`
		SELECT id, name, role, COALESCE(country, ''), hourly_rate, share_percentage,
			active, projects_completed, total_earnings, created_at
		FROM team_members
		WHERE id = ?
	`, id).Scan(&m.ID, &m.Name, &m.Role, &m.Country, &m.HourlyRate, &m.SharePercentage,
		&m.Active, &m.ProjectsCompleted, &m.TotalEarnings, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return TeamMember{}, ErrNotFound
	}
	if err != nil {
		return TeamMember{}, fmt.Errorf("query team member: %w", err)
	}
	return m, nil
}

// SetMemberActive toggles whether a member participates in allocations.
func (r *Repository) SetMemberActive(id string, active bool) error {
	result, err := r.db.Exec(`UPDATE team_members SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("toggle team member: %w", err)
	}
	return requireAffected(result)
}

// DeleteMember removes a roster entry.
func (r *Repository) DeleteMember(id string) error {
	result, err := r.db.Exec(`DELETE FROM team_members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete team member: %w", err)
	}
	return requireAffected(result)
}

// RecordProjectCompletions bumps each listed member's completed-project
// count and adds the amount they earned. The updates run in one
// transaction, so either every counter moves or none do.
func (r *Repository) RecordProjectCompletions(earnings map[string]float64) error {
	if len(earnings) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin completion transaction: %w", err)
	}

	for id, earned := range earnings {
		result, err := tx.Exec(`
			UPDATE team_members
			SET projects_completed = projects_completed + 1,
				total_earnings = total_earnings + ?
			WHERE id = ?
		`, earned, id)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record completion for %s: %w", id, err)
		}
		if err := requireAffected(result); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record completion for %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit completion transaction: %w", err)
	}
	return nil
}
