// Package repository ranks candidate bikes by fit for one rider.
package repository

import "context"

// Candidate is one evaluated bike offered for ranking.
type Candidate struct {
	ID         string
	Label      string
	Discipline string
	Row        int
	Score      float64
}

// Entry is one row of the ranking.
type Entry struct {
	Rank        int
	CandidateID string
	Label       string
	Discipline  string
	Row         int
	Score       float64
}

// Store keeps the best score per candidate and ranks them.
type Store interface {
	// UpdateBest records the candidate if it is new or scores higher than
	// before. Returns true if the store changed.
	UpdateBest(ctx context.Context, c Candidate) (bool, error)

	// Remove drops a candidate. Returns ErrNotFound if it is unknown.
	Remove(ctx context.Context, id string) error

	// Rank returns the current rank and score for a candidate.
	// Returns ErrNotFound if the candidate is unknown.
	Rank(ctx context.Context, id string) (Entry, error)

	// TopN returns the top-N entries ordered by score desc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of candidates tracked.
	Count(ctx context.Context) int
}
