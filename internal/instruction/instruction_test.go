package instruction

import (
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		wantNarrative string
		wantEntries   []Entry
	}{
		{
			name:          "plan with pending entries",
			raw:           "[0] Build a bakery landing site\n[1] index.html\n[2] css/style.css",
			wantNarrative: "Build a bakery landing site",
			wantEntries: []Entry{
				{Index: 1, Path: "index.html"},
				{Index: 2, Path: "css/style.css"},
			},
		},
		{
			name:          "mixed done and pending",
			raw:           "[0] plan text [Done] index.html [2] js/app.js",
			wantNarrative: "plan text",
			wantEntries: []Entry{
				{Done: true, Path: "index.html"},
				{Index: 2, Path: "js/app.js"},
			},
		},
		{
			name:          "usedfor payload",
			raw:           "[0] shop site\n[1] index.html [usedfor]landing page with hero[usedfor]\n[2] cart.html",
			wantNarrative: "shop site",
			wantEntries: []Entry{
				{Index: 1, Path: "index.html", UsedFor: "landing page with hero"},
				{Index: 2, Path: "cart.html"},
			},
		},
		{
			name:          "multiline usedfor payload",
			raw:           "[0] p\n[1] a.ts [usedfor]first line\nsecond line[usedfor]",
			wantNarrative: "p",
			wantEntries: []Entry{
				{Index: 1, Path: "a.ts", UsedFor: "first line\nsecond line"},
			},
		},
		{
			name:          "inline colon purpose",
			raw:           "[0] p\n[1] about.html: company history page",
			wantNarrative: "p",
			wantEntries: []Entry{
				{Index: 1, Path: "about.html", UsedFor: "company history page"},
			},
		},
		{
			name:          "no plan tag reports zero entries",
			raw:           "Sure! I'll build that for you.\n[1] index.html",
			wantNarrative: "Sure! I'll build that for you.\n[1] index.html",
			wantEntries:   nil,
		},
		{
			name:          "no markers at all",
			raw:           "just prose, nothing structured",
			wantNarrative: "just prose, nothing structured",
			wantEntries:   nil,
		},
		{
			name:          "empty input",
			raw:           "",
			wantNarrative: "",
			wantEntries:   nil,
		},
		{
			name:          "repeated plan tag keeps first narrative",
			raw:           "[0] the real plan [1] a.ts [0] stray repeat",
			wantNarrative: "the real plan",
			wantEntries: []Entry{
				{Index: 1, Path: "a.ts"},
			},
		},
		{
			name:          "preamble before plan tag is ignored",
			raw:           "Here is the plan:\n[0] narrative\n[1] index.html",
			wantNarrative: "narrative",
			wantEntries: []Entry{
				{Index: 1, Path: "index.html"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)

			if got.Raw != tt.raw {
				t.Errorf("Raw = %q, want original blob preserved", got.Raw)
			}
			if got.Narrative != tt.wantNarrative {
				t.Errorf("Narrative = %q, want %q", got.Narrative, tt.wantNarrative)
			}
			if len(got.Entries) != len(tt.wantEntries) {
				t.Fatalf("got %d entries, want %d: %+v", len(got.Entries), len(tt.wantEntries), got.Entries)
			}
			for i, want := range tt.wantEntries {
				if got.Entries[i] != want {
					t.Errorf("entry %d = %+v, want %+v", i, got.Entries[i], want)
				}
			}
		})
	}
}

func TestNextTarget(t *testing.T) {
	t.Run("first pending in textual order wins", func(t *testing.T) {
		// Numeric tags do not decide order; position in the text does
		plan := Parse("[0] p [1] a.ts [Done] b.ts [2] c.ts")

		entry, ok := plan.NextTarget()
		if !ok {
			t.Fatal("expected a pending target")
		}
		if entry.Path != "a.ts" {
			t.Errorf("next target = %q, want a.ts", entry.Path)
		}
	})

	t.Run("textual order beats numeric order", func(t *testing.T) {
		plan := Parse("[0] p [3] third.ts [1] first.ts")

		entry, ok := plan.NextTarget()
		if !ok {
			t.Fatal("expected a pending target")
		}
		if entry.Path != "third.ts" {
			t.Errorf("next target = %q, want third.ts (first in text)", entry.Path)
		}
	})

	t.Run("all done means no target", func(t *testing.T) {
		plan := Parse("[0] p [Done] a.ts [Done] b.ts")
		if _, ok := plan.NextTarget(); ok {
			t.Error("expected no pending target when everything is done")
		}
	})

	t.Run("unstructured blob has no target", func(t *testing.T) {
		plan := Parse("no tags here")
		if _, ok := plan.NextTarget(); ok {
			t.Error("expected no target for unstructured narrative")
		}
	})
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantDone  int
		wantTotal int
		wantRatio float64
	}{
		{"empty plan", "", 0, 0, 0},
		{"no entries", "[0] just a plan", 0, 0, 0},
		{"all pending", "[0] p [1] a [2] b", 0, 2, 0},
		{"half done", "[0] p [Done] a [2] b", 1, 2, 0.5},
		{"all done", "[0] p [Done] a [Done] b", 2, 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Parse(tt.raw)

			done, total := plan.Progress()
			if done != tt.wantDone || total != tt.wantTotal {
				t.Errorf("Progress() = %d/%d, want %d/%d", done, total, tt.wantDone, tt.wantTotal)
			}
			if got := plan.Ratio(); got != tt.wantRatio {
				t.Errorf("Ratio() = %v, want %v", got, tt.wantRatio)
			}
		})
	}
}
