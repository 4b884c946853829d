package badge

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLabels(t *testing.T) {
	want := map[MatchType]string{
		MatchExact:   "Exact Match",
		MatchFuzzy:   "Fuzzy Match",
		MatchPartial: "Partial Match",
		MatchManual:  "Manual Match",
		MatchNWay:    "N-Way Match",
	}
	for _, mt := range MatchTypes() {
		b, err := New(mt)
		if err != nil {
			t.Fatalf("New(%s): %v", mt, err)
		}
		if b.Label() != want[mt] {
			t.Fatalf("label for %s = %q, want %q", mt, b.Label(), want[mt])
		}
	}
}

func TestUnknownMatchTypeRejected(t *testing.T) {
	if _, err := New(MatchType("approximate")); !errors.Is(err, ErrUnknownMatchType) {
		t.Fatalf("expected ErrUnknownMatchType, got %v", err)
	}
	if _, err := ParseMatchType("nway"); !errors.Is(err, ErrUnknownMatchType) {
		t.Fatalf("expected ErrUnknownMatchType from parse, got %v", err)
	}
	mt, err := ParseMatchType(" N_WAY ")
	if err != nil || mt != MatchNWay {
		t.Fatalf("ParseMatchType(N_WAY) = %q, %v", mt, err)
	}
}

func TestConfidenceTierBoundaries(t *testing.T) {
	cases := []struct {
		confidence float64
		want       Tier
	}{
		{74, TierLow},
		{74.99, TierLow},
		{75, TierMedium},
		{89, TierMedium},
		{89.99, TierMedium},
		{90, TierHigh},
		{91, TierHigh},
		{0, TierLow},
		{100, TierHigh},
	}
	for _, tc := range cases {
		b, err := New(MatchFuzzy, WithConfidence(tc.confidence))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if got := b.Tier(); got != tc.want {
			t.Fatalf("tier(%v) = %q, want %q", tc.confidence, got, tc.want)
		}
	}
}

func TestTierColorTokens(t *testing.T) {
	cases := map[float64]string{
		95: "text-green-600",
		80: "text-yellow-600",
		40: "text-orange-600",
	}
	for c, token := range cases {
		b, err := New(MatchExact, WithConfidence(c))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if !strings.Contains(b.ClassString(), token) {
			t.Fatalf("confidence %v classes %q missing %q", c, b.ClassString(), token)
		}
	}
}

func TestConfidenceTextVisibility(t *testing.T) {
	for _, mt := range MatchTypes() {
		hidden, _ := New(mt, WithConfidence(88.6))
		if hidden.ConfidenceText() != "" {
			t.Fatalf("%s: confidence shown without ShowConfidence", mt)
		}
		noValue, _ := New(mt, ShowConfidence(true))
		if noValue.ConfidenceText() != "" || strings.Contains(noValue.Text(), "%") {
			t.Fatalf("%s: confidence shown without a value", mt)
		}
		shown, _ := New(mt, WithConfidence(88.6), ShowConfidence(true))
		if shown.ConfidenceText() != "89%" {
			t.Fatalf("%s: confidence text = %q", mt, shown.ConfidenceText())
		}
		if shown.Text() != mt.Label()+" 89%" {
			t.Fatalf("%s: text = %q", mt, shown.Text())
		}
	}
}

func TestSizeClassesAreExclusive(t *testing.T) {
	all := []string{"text-xs", "text-sm", "text-base"}
	cases := map[Size]string{
		SizeSmall:  "text-xs",
		SizeMedium: "text-sm",
		SizeLarge:  "text-base",
		"":         "",
	}
	for size, want := range cases {
		opts := []Option{}
		if size != "" {
			opts = append(opts, WithSize(size))
		} else {
			want = "text-sm"
		}
		b, err := New(MatchManual, opts...)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		hits := 0
		for _, cls := range b.Classes() {
			for _, s := range all {
				if cls == s {
					hits++
					if cls != want {
						t.Fatalf("size %q got class %q, want %q", size, cls, want)
					}
				}
			}
		}
		if hits != 1 {
			t.Fatalf("size %q produced %d size classes", size, hits)
		}
	}
	if _, err := New(MatchManual, WithSize("xl")); !errors.Is(err, ErrUnknownSize) {
		t.Fatalf("expected ErrUnknownSize, got %v", err)
	}
}

func TestExtraClassesAreAdditive(t *testing.T) {
	plain, _ := New(MatchPartial, WithConfidence(60))
	extended, _ := New(MatchPartial, WithConfidence(60), WithClass("ml-2", "uppercase"))
	want := append(plain.Classes(), "ml-2", "uppercase")
	if diff := cmp.Diff(want, extended.Classes()); diff != "" {
		t.Fatalf("classes mismatch (-want +got):\n%s", diff)
	}
}

func TestConfidenceRangeRejected(t *testing.T) {
	for _, c := range []float64{-1, 100.5} {
		if _, err := New(MatchExact, WithConfidence(c)); !errors.Is(err, ErrConfidenceRange) {
			t.Fatalf("confidence %v: expected ErrConfidenceRange, got %v", c, err)
		}
	}
}

func TestRenderIncludesText(t *testing.T) {
	b, _ := New(MatchNWay, WithConfidence(92), ShowConfidence(true), WithSize(SizeLarge))
	if out := b.Render(); !strings.Contains(out, "N-Way Match 92%") {
		t.Fatalf("render missing text: %q", out)
	}
}
