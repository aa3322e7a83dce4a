package tui

import (
	"strings"
	"testing"

	"github.com/AnferLagbu/Chameleon/internal/batch"
)

func TestTallyRows(t *testing.T) {
	rows := TallyRows(batch.Tally{Success: 12, Failure: 3, Animated: 5, SkippedAnimated: 2})

	want := map[string]string{
		"Converted":         "12",
		"Failed":            "3",
		"Animated detected": "5",
		"Animated skipped":  "2",
	}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for _, row := range rows {
		if want[row.Label] != row.Value {
			t.Errorf("row %q = %q, want %q", row.Label, row.Value, want[row.Label])
		}
	}
}

func TestRenderSummary(t *testing.T) {
	out := RenderSummary(TallyRows(batch.Tally{Success: 7, Failure: 1}))

	for _, needle := range []string{"Converted", "7", "Failed", "1", "Animated detected"} {
		if !strings.Contains(out, needle) {
			t.Errorf("summary missing %q:\n%s", needle, out)
		}
	}

	lines := strings.Split(out, "\n")
	if len(lines) != 6 {
		t.Errorf("got %d lines, want 6 (rule, four rows, rule)", len(lines))
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("ab", 5); got != "ab   " {
		t.Errorf("padRight = %q", got)
	}
	if got := padRight("abcdef", 3); got != "abcdef" {
		t.Errorf("padRight overlong = %q", got)
	}
}
