// Package revshare distributes a project total among team members by
// percentage share. Inactive members are excluded entirely; whatever
// share of 100% remains unclaimed is assigned to a synthesized "Company"
// participant appended after the members.
//
// Each participant amount is rounded independently, so the sum of the
// output can drift from the rounded project total by up to one currency
// unit per line. That tolerance is deliberate and is not corrected.
package revshare

import (
	"errors"
	"fmt"
	"math"

	"github.com/thelpatil/quotal/internal/currency"
)

// Allocation failure modes.
var (
	ErrNoParticipants = errors.New("no active participants")
	ErrOverAllocated  = errors.New("total share percentage exceeds 100")
	ErrInvalidShare   = errors.New("share percentage must be in (0,100]")
	ErrInvalidTotal   = errors.New("project total must be greater than 0")
)

// Participant is a candidate for a revenue share.
type Participant struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Role            string  `json:"role"`
	Country         string  `json:"country"`
	SharePercentage float64 `json:"sharePercentage"`
	Active          bool    `json:"active"`
}

// LocalAmount is an informational equivalent of a share in the project's
// original (non-base) currency.
type LocalAmount struct {
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
}

// Allocation is one participant's cut of the project total, in base
// currency.
type Allocation struct {
	ParticipantID   string       `json:"participantId"`
	Name            string       `json:"name"`
	Role            string       `json:"role"`
	Percentage      float64      `json:"percentage"`
	Amount          float64      `json:"amount"`
	LocalEquivalent *LocalAmount `json:"localEquivalent,omitempty"`
}

// Project carries the totals being distributed. TotalBase is the amount
// allocated; OriginalTotal and Currency describe the pre-conversion
// figure and drive the informational local equivalents.
type Project struct {
	TotalBase     float64 `json:"totalBase"`
	OriginalTotal float64 `json:"originalTotal"`
	Currency      string  `json:"currency"`
}

// Allocate splits p.TotalBase among the active participants and appends
// the Company remainder when the active shares sum below 100%. On any
// validation failure no partial allocation is returned.
func Allocate(p Project, participants []Participant) ([]Allocation, error) {
	if p.TotalBase <= 0 || math.IsNaN(p.TotalBase) {
		return nil, ErrInvalidTotal
	}

	var active []Participant
	for _, member := range participants {
		if member.Active {
			active = append(active, member)
		}
	}
	if len(active) == 0 {
		return nil, ErrNoParticipants
	}

	totalShare := 0.0
	for _, member := range active {
		if member.SharePercentage <= 0 || member.SharePercentage > 100 {
			return nil, fmt.Errorf("%w: %s has %g", ErrInvalidShare, member.Name, member.SharePercentage)
		}
		totalShare += member.SharePercentage
	}
	if totalShare > 100 {
		return nil, fmt.Errorf("%w: got %g", ErrOverAllocated, totalShare)
	}

	allocations := make([]Allocation, 0, len(active)+1)
	for _, member := range active {
		alloc := Allocation{
			ParticipantID: member.ID,
			Name:          member.Name,
			Role:          member.Role,
			Percentage:    member.SharePercentage,
			Amount:        math.Round(member.SharePercentage / 100 * p.TotalBase),
		}
		if local := localEquivalent(p, member); local != nil {
			alloc.LocalEquivalent = local
		}
		allocations = append(allocations, alloc)
	}

	if remainder := 100 - totalShare; remainder > 0 {
		allocations = append(allocations, Allocation{
			ParticipantID: "company",
			Name:          "Company",
			Role:          "Business",
			Percentage:    remainder,
			Amount:        math.Round(remainder / 100 * p.TotalBase),
		})
	}

	return allocations, nil
}

// localEquivalent reports the member's share of the original-currency
// total for international members. Display data only; the base-currency
// amount stands alone.
func localEquivalent(p Project, member Participant) *LocalAmount {
	if p.Currency == "" || p.Currency == currency.Base || p.OriginalTotal <= 0 {
		return nil
	}
	if member.Country == "" || member.Country == "India" {
		return nil
	}
	return &LocalAmount{
		Currency: p.Currency,
		Amount:   math.Round(member.SharePercentage / 100 * p.OriginalTotal),
	}
}
