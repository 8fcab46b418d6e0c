package repository

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/okian/ergofit/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: score DESC, then candidate ID ASC (deterministic). "less" means
// ranks earlier, so in-order traversal yields the ranking from best to worst.

// scoreScale controls fixed-point scaling from float64. Scores closer than
// one part in 1e12 tie.
const scoreScale = 1_000_000_000_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	return scoreFP(math.Round(x * scoreScale))
}

func toFloat(x scoreFP) float64 {
	return float64(x) / scoreScale
}

// record stores the fixed-point score plus metadata for a candidate's best.
type record struct {
	score      scoreFP
	label      string
	discipline string
	row        int
}

type node struct {
	id    string
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aScore, aID) should appear before (bScore, bID).
func less(aScore scoreFP, aID string, bScore scoreFP, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, score scoreFP, prio uint64) *node {
	if n == nil {
		return &node{id: id, score: score, prio: prio, size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score scoreFP) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	case less(score, id, n.score, n.id):
		n.left = deleteNode(n.left, id, score)
	default:
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// walk visits nodes in rank order until visit returns false.
func walk(n *node, visit func(*node) bool) bool {
	if n == nil {
		return true
	}
	return walk(n.left, visit) && visit(n) && walk(n.right, visit)
}

// TreapStore implements Store.
type TreapStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]record
	seed uint64
	rng  *rand.Rand
}

// NewTreapStore constructs a treap store with configuration options.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		byID: make(map[string]record),
		seed: rand.Uint64(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rng = rand.New(rand.NewPCG(s.seed, s.seed^0x9e3779b97f4a7c15)) //nolint:gosec // treap priorities need no crypto
	metrics.UpdateRankedCandidates(0)
	return s
}

// UpdateBest implements Store.UpdateBest with O(log n) expected time.
func (s *TreapStore) UpdateBest(ctx context.Context, c Candidate) (bool, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRankingUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if math.IsNaN(c.Score) || math.IsInf(c.Score, 0) {
		metrics.RecordErrorByComponent("repository", "invalid_score")
		return false, fmt.Errorf("candidate %q score %g: %w", c.ID, c.Score, ErrInvalidScore)
	}
	ns := toFixedPoint(c.Score)

	s.mu.Lock()
	if old, ok := s.byID[c.ID]; ok {
		if ns <= old.score {
			s.mu.Unlock()
			return false, nil
		}
		s.root = deleteNode(s.root, c.ID, old.score)
	}
	s.byID[c.ID] = record{score: ns, label: c.Label, discipline: c.Discipline, row: c.Row}
	s.root = insert(s.root, c.ID, ns, s.rng.Uint64())
	count := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateRankedCandidates(count)
	return true, nil
}

// Remove implements Store.Remove.
func (s *TreapStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	old, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	s.root = deleteNode(s.root, id, old.score)
	delete(s.byID, id)
	count := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateRankedCandidates(count)
	return nil
}

func (s *TreapStore) entry(n *node) Entry {
	rec := s.byID[n.id]
	return Entry{
		CandidateID: n.id,
		Label:       rec.label,
		Discipline:  rec.discipline,
		Row:         rec.row,
		Score:       toFloat(rec.score),
	}
}

// Rank returns the current rank and score for a candidate. Equal scores
// share a rank and ranks stay consecutive.
func (s *TreapStore) Rank(ctx context.Context, id string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.byID[id]; !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, ErrNotFound
	}

	var (
		found Entry
		rank  int
		prev  scoreFP
	)
	walk(s.root, func(n *node) bool {
		if rank == 0 || n.score != prev {
			rank++
			prev = n.score
		}
		if n.id == id {
			found = s.entry(n)
			found.Rank = rank
			return false
		}
		return true
	})
	return found, nil
}

// TopN returns the top N entries ordered by score desc.
func (s *TreapStore) TopN(ctx context.Context, n int) ([]Entry, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, min(n, len(s.byID)))
	walk(s.root, func(nd *node) bool {
		out = append(out, s.entry(nd))
		return len(out) < n
	})
	assignRanksWithTies(out)
	return out, nil
}

// Count returns the number of candidates.
func (s *TreapStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// assignRanksWithTies gives equal scores the same rank; the next distinct
// score takes the next rank.
func assignRanksWithTies(entries []Entry) {
	rank := 0
	for i := range entries {
		if i == 0 || entries[i].Score != entries[i-1].Score {
			rank++
		}
		entries[i].Rank = rank
	}
}
