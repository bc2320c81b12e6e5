package metrics

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rickgao/lotto-engine/internal/model"
	"github.com/rickgao/lotto-engine/internal/store/memory"
	"github.com/rickgao/lotto-engine/internal/store/storetest"
)

func TestCompute(t *testing.T) {
	draws := []model.Draw{
		storetest.Draw(1, [6]int{1, 2, 3, 4, 5, 6}),
		storetest.Draw(2, [6]int{1, 10, 11, 12, 13, 14}),
		storetest.Draw(3, [6]int{2, 20, 21, 22, 23, 24}),
	}

	got := Compute(draws, 20)
	if len(got) != model.MaxNumber {
		t.Fatalf("len = %d, want %d", len(got), model.MaxNumber)
	}

	tests := []struct {
		number int
		want   model.NumberMetric
	}{
		{1, model.NumberMetric{Window: 20, Number: 1, Frequency: 2, Overdue: 1, LastSeenDrawNo: 2}},
		{2, model.NumberMetric{Window: 20, Number: 2, Frequency: 2, Overdue: 0, LastSeenDrawNo: 3}},
		{6, model.NumberMetric{Window: 20, Number: 6, Frequency: 1, Overdue: 2, LastSeenDrawNo: 1}},
		{45, model.NumberMetric{Window: 20, Number: 45, Frequency: 0, Overdue: 3, LastSeenDrawNo: 0}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, got[tt.number-1]); diff != "" {
			t.Errorf("number %d mismatch (-want +got):\n%s", tt.number, diff)
		}
	}
}

func TestComputeRespectsWindow(t *testing.T) {
	var draws []model.Draw
	for no := 1; no <= 30; no++ {
		nums := [6]int{1, 2, 3, 4, 5, 6}
		if no > 10 {
			nums = [6]int{7, 8, 9, 10, 11, 12}
		}
		draws = append(draws, storetest.Draw(no, nums))
	}

	got := Compute(draws, 20)
	if got[0].Frequency != 0 || got[0].Overdue != 20 {
		t.Errorf("number 1 = %+v, want unseen in the last 20 draws", got[0])
	}
	if got[6].Frequency != 20 || got[6].LastSeenDrawNo != 30 {
		t.Errorf("number 7 = %+v, want seen in every draw", got[6])
	}

	total := 0
	for _, m := range got {
		total += m.Frequency
	}
	if total != 20*model.PickSize {
		t.Errorf("total frequency = %d, want %d", total, 20*model.PickSize)
	}
}

func TestRecomputeAll(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	for no := 1; no <= 120; no++ {
		mem.Seed(storetest.Draw(no, [6]int{1, 2, 3, 4, 5, 6}))
	}

	r := NewRecomputer(mem.Draws(), mem.Metrics(), nil)
	if err := r.RecomputeAll(ctx); err != nil {
		t.Fatalf("RecomputeAll() error = %v", err)
	}

	for _, w := range model.Windows {
		byNumber, err := Load(ctx, mem.Metrics(), w)
		if err != nil {
			t.Fatalf("Load(%d) error = %v", w, err)
		}
		if len(byNumber) != model.MaxNumber {
			t.Errorf("window %d: %d metrics, want %d", w, len(byNumber), model.MaxNumber)
		}
		if byNumber[1].Frequency != w {
			t.Errorf("window %d: frequency of 1 = %d, want %d", w, byNumber[1].Frequency, w)
		}
	}

	// Running again changes nothing.
	before, _ := Load(ctx, mem.Metrics(), 50)
	if err := r.RecomputeAll(ctx); err != nil {
		t.Fatalf("second RecomputeAll() error = %v", err)
	}
	after, _ := Load(ctx, mem.Metrics(), 50)
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("recompute not idempotent (-before +after):\n%s", diff)
	}
}
