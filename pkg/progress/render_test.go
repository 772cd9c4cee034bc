package progress

import "testing"

func TestFillPercent(t *testing.T) {
	for tick := 0; tick <= 70; tick++ {
		want := tick * 100 / 70
		if want > 100 {
			want = 100
		}
		if got := FillPercent(tick, 70); got != want {
			t.Errorf("FillPercent(%d, 70) = %d, want %d", tick, got, want)
		}
	}

	tests := []struct {
		tick, max, want int
	}{
		{69, 70, 98},
		{70, 70, 100},
		{75, 70, 100},
		{35, 70, 50},
		{1, 70, 1},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := FillPercent(tt.tick, tt.max); got != tt.want {
			t.Errorf("FillPercent(%d, %d) = %d, want %d", tt.tick, tt.max, got, tt.want)
		}
	}
}

func TestWindowStart(t *testing.T) {
	tests := []struct {
		step, total, want int
	}{
		{0, 81, 0},
		{2, 81, 0},
		{3, 81, 1},
		{40, 81, 38},
		{78, 81, 76},
		{79, 81, 76},
		{81, 81, 76},
		{0, 3, 0},
		{3, 3, 0},
		{2, 4, 0},
	}
	for _, tt := range tests {
		if got := WindowStart(tt.step, tt.total, 5); got != tt.want {
			t.Errorf("WindowStart(%d, %d, 5) = %d, want %d", tt.step, tt.total, got, tt.want)
		}
	}
}

func TestStageWindowAlwaysFiveRows(t *testing.T) {
	for _, total := range []int{0, 1, 3, 5, 6, 81} {
		captions := testSettings(total).Captions
		for ticks := 0; ticks <= total+2; ticks++ {
			rows := StageWindow(captions, ticks, 5)
			if len(rows) != 5 {
				t.Fatalf("total=%d ticks=%d: %d rows", total, ticks, len(rows))
			}

			captionRows := 0
			for _, r := range rows {
				if r.State != RowPlaceholder {
					captionRows++
				}
			}
			if want := min(5, total); captionRows != want {
				t.Errorf("total=%d ticks=%d: %d caption rows, want %d", total, ticks, captionRows, want)
			}
		}
	}
}

func TestStageWindowStates(t *testing.T) {
	captions := testSettings(10).Captions
	rows := StageWindow(captions, 4, 5)

	want := []struct {
		index int
		state RowState
	}{
		{2, RowCompleted},
		{3, RowCompleted},
		{4, RowInProgress},
		{5, RowPending},
		{6, RowPending},
	}
	for i, w := range want {
		if rows[i].Index != w.index || rows[i].State != w.state {
			t.Errorf("row %d = {%d %s}, want {%d %s}", i, rows[i].Index, rows[i].State, w.index, w.state)
		}
		if rows[i].Caption != captions[w.index] {
			t.Errorf("row %d caption = %q", i, rows[i].Caption)
		}
	}
}
