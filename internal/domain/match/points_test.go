package match_test

import (
	"testing"

	"github.com/boardkeep/tabletop-league/internal/domain/match"
)

func intPtr(v int) *int {
	return &v
}

func TestPointsFor(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		position *int
		want     int
	}{
		{name: "first place", position: intPtr(1), want: 10},
		{name: "second place", position: intPtr(2), want: 5},
		{name: "third place", position: intPtr(3), want: 2},
		{name: "fourth place", position: intPtr(4), want: 1},
		{name: "fifth place", position: intPtr(5), want: 1},
		{name: "deep field", position: intPtr(12), want: 1},
		{name: "no position", position: nil, want: 1},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := match.PointsFor(tc.position); got != tc.want {
				t.Fatalf("PointsFor(%v) = %d, want %d", tc.position, got, tc.want)
			}
		})
	}
}
