package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

// depth returns the height of the tree.
func depth(n *node) int {
	if n == nil {
		return 0
	}
	return 1 + max(depth(n.left), depth(n.right))
}

func TestTreapStore(t *testing.T) {
	Convey("Given a new TreapStore", t, func() {
		ctx := context.Background()
		s := NewTreapStore(WithSeed(1))

		Convey("When it is empty", func() {
			So(s.Count(ctx), ShouldEqual, 0)
			top, err := s.TopN(ctx, 5)
			So(err, ShouldBeNil)
			So(top, ShouldBeEmpty)
			_, err = s.Rank(ctx, "missing")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})

		Convey("When candidates are added", func() {
			for _, c := range []Candidate{
				{ID: "b", Label: "endurance", Discipline: "road", Row: 1, Score: 0.62},
				{ID: "a", Label: "race", Discipline: "road", Row: 0, Score: 0.81},
				{ID: "c", Label: "gravel", Discipline: "road", Row: 2, Score: 0.62},
				{ID: "d", Label: "city", Discipline: "road", Row: 3, Score: 0.10},
			} {
				updated, err := s.UpdateBest(ctx, c)
				So(err, ShouldBeNil)
				So(updated, ShouldBeTrue)
			}

			Convey("Then TopN orders by score then id", func() {
				top, err := s.TopN(ctx, 10)
				So(err, ShouldBeNil)
				So(len(top), ShouldEqual, 4)
				ids := []string{top[0].CandidateID, top[1].CandidateID, top[2].CandidateID, top[3].CandidateID}
				So(ids, ShouldResemble, []string{"a", "b", "c", "d"})
				So(top[0].Label, ShouldEqual, "race")
				So(top[0].Score, ShouldAlmostEqual, 0.81, 1e-12)
			})

			Convey("Then ties share a rank and ranks stay consecutive", func() {
				top, _ := s.TopN(ctx, 4)
				So([]int{top[0].Rank, top[1].Rank, top[2].Rank, top[3].Rank}, ShouldResemble, []int{1, 2, 2, 3})

				e, err := s.Rank(ctx, "c")
				So(err, ShouldBeNil)
				So(e.Rank, ShouldEqual, 2)
				So(e.Row, ShouldEqual, 2)
				e, _ = s.Rank(ctx, "d")
				So(e.Rank, ShouldEqual, 3)
			})

			Convey("Then TopN respects the limit", func() {
				top, err := s.TopN(ctx, 2)
				So(err, ShouldBeNil)
				So(len(top), ShouldEqual, 2)
				_, err = s.TopN(ctx, 0)
				So(errors.Is(err, ErrInvalidLimit), ShouldBeTrue)
			})

			Convey("Then a lower score does not replace the best", func() {
				updated, err := s.UpdateBest(ctx, Candidate{ID: "a", Score: 0.5})
				So(err, ShouldBeNil)
				So(updated, ShouldBeFalse)
				e, _ := s.Rank(ctx, "a")
				So(e.Score, ShouldAlmostEqual, 0.81, 1e-12)
				So(e.Label, ShouldEqual, "race")
			})

			Convey("Then a higher score moves the candidate up", func() {
				updated, err := s.UpdateBest(ctx, Candidate{ID: "d", Label: "city v2", Score: 0.95})
				So(err, ShouldBeNil)
				So(updated, ShouldBeTrue)
				e, _ := s.Rank(ctx, "d")
				So(e.Rank, ShouldEqual, 1)
				So(e.Label, ShouldEqual, "city v2")
				So(s.Count(ctx), ShouldEqual, 4)
			})

			Convey("Then Remove drops a candidate", func() {
				So(s.Remove(ctx, "a"), ShouldBeNil)
				So(s.Count(ctx), ShouldEqual, 3)
				e, _ := s.Rank(ctx, "b")
				So(e.Rank, ShouldEqual, 1)
				So(errors.Is(s.Remove(ctx, "a"), ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When a score is not finite", func() {
			_, err := s.UpdateBest(ctx, Candidate{ID: "x", Score: math.NaN()})
			So(errors.Is(err, ErrInvalidScore), ShouldBeTrue)
			So(s.Count(ctx), ShouldEqual, 0)
		})

		Convey("When many candidates arrive in sorted order", func() {
			for i := range 2000 {
				_, err := s.UpdateBest(ctx, Candidate{ID: fmt.Sprintf("c%05d", i), Score: float64(i) / 2000})
				So(err, ShouldBeNil)
			}

			Convey("Then the tree stays shallow", func() {
				s.mu.RLock()
				d := depth(s.root)
				size := nsize(s.root)
				s.mu.RUnlock()
				So(size, ShouldEqual, 2000)
				So(d, ShouldBeLessThan, 60)
			})

			Convey("Then the best candidate ranks first", func() {
				top, _ := s.TopN(ctx, 1)
				So(top[0].CandidateID, ShouldEqual, "c01999")
			})
		})

		Convey("When updated concurrently", func() {
			var wg sync.WaitGroup
			for g := range 8 {
				wg.Add(1)
				go func(g int) {
					defer wg.Done()
					for i := range 100 {
						_, _ = s.UpdateBest(ctx, Candidate{ID: fmt.Sprintf("g%d-%d", g, i), Score: float64(i) / 100})
					}
				}(g)
			}
			wg.Wait()

			Convey("Then every candidate is tracked", func() {
				So(s.Count(ctx), ShouldEqual, 800)
				top, _ := s.TopN(ctx, 800)
				for i := 1; i < len(top); i++ {
					So(top[i-1].Score, ShouldBeGreaterThanOrEqualTo, top[i].Score)
				}
			})
		})
	})
}

func BenchmarkTreapStoreUpdateBest(b *testing.B) {
	ctx := context.Background()
	s := NewTreapStore(WithSeed(7))
	ids := make([]string, 1024)
	for i := range ids {
		ids[i] = fmt.Sprintf("frame-%d", i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.UpdateBest(ctx, Candidate{ID: ids[i%len(ids)], Score: float64(i%997) / 997})
	}
}

func BenchmarkTreapStoreTopN(b *testing.B) {
	ctx := context.Background()
	s := NewTreapStore(WithSeed(7))
	for i := range 10000 {
		_, _ = s.UpdateBest(ctx, Candidate{ID: fmt.Sprintf("frame-%d", i), Score: float64(i%997) / 997})
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.TopN(ctx, 10)
	}
}
