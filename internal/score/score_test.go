package score

import (
	"strings"
	"testing"

	"github.com/nao1215/linkaudit/internal/model"
)

func perfect() model.Signals {
	return model.Signals{
		TitleLength:         40,
		MetaDescLength:      140,
		H1Count:             1,
		H2Count:             3,
		ImageCount:          2,
		TwitterCard:         true,
		TwitterTitle:        true,
		TwitterDescription:  true,
		TwitterImage:        true,
		OGType:              true,
		OGTitle:             true,
		OGDescription:       true,
		OGImage:             true,
		Canonical:           "https://example.com/",
		HTTPS:               true,
		ResponsiveViewport:  true,
		StructuredDataCount: 1,
		PageSize:            20 * 1024,
		LazyLoading:         true,
		InternalLinks:       25,
		ExternalLinks:       3,
	}
}

// TestScoreCaps tests that a page meeting every rule reaches the maximum.
func TestScoreCaps(t *testing.T) {
	t.Parallel()

	if MaxTotal != 100 {
		t.Fatalf("expected caps to sum to 100, got %d", MaxTotal)
	}

	got := Score(perfect())
	want := model.ScoreBreakdown{Total: 100, BasicSEO: 30, Social: 25, Technical: 25, Performance: 20}
	if got != want {
		t.Errorf("Score() = %+v, want %+v", got, want)
	}
}

// TestScoreRules tests each rule in isolation.
func TestScoreRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*model.Signals)
		want   model.ScoreBreakdown
	}{
		{
			name:   "short title",
			modify: func(s *model.Signals) { s.TitleLength = 10 },
			want:   model.ScoreBreakdown{Total: 92, BasicSEO: 22, Social: 25, Technical: 25, Performance: 20},
		},
		{
			name:   "long title",
			modify: func(s *model.Signals) { s.TitleLength = 60 },
			want:   model.ScoreBreakdown{Total: 92, BasicSEO: 22, Social: 25, Technical: 25, Performance: 20},
		},
		{
			name:   "description too long",
			modify: func(s *model.Signals) { s.MetaDescLength = 160 },
			want:   model.ScoreBreakdown{Total: 92, BasicSEO: 22, Social: 25, Technical: 25, Performance: 20},
		},
		{
			name:   "two h1",
			modify: func(s *model.Signals) { s.H1Count = 2 },
			want:   model.ScoreBreakdown{Total: 94, BasicSEO: 24, Social: 25, Technical: 25, Performance: 20},
		},
		{
			name:   "no images",
			modify: func(s *model.Signals) { s.ImageCount = 0 },
			want:   model.ScoreBreakdown{Total: 96, BasicSEO: 26, Social: 25, Technical: 25, Performance: 20},
		},
		{
			name:   "image missing alt",
			modify: func(s *model.Signals) { s.ImagesMissingAlt = 1 },
			want:   model.ScoreBreakdown{Total: 96, BasicSEO: 26, Social: 25, Technical: 25, Performance: 20},
		},
		{
			name:   "one og tag missing",
			modify: func(s *model.Signals) { s.OGImage = false },
			want:   model.ScoreBreakdown{Total: 90, BasicSEO: 30, Social: 15, Technical: 25, Performance: 20},
		},
		{
			name:   "no structured data",
			modify: func(s *model.Signals) { s.StructuredDataCount = 0 },
			want:   model.ScoreBreakdown{Total: 90, BasicSEO: 30, Social: 25, Technical: 15, Performance: 20},
		},
		{
			name:   "page of 100 KB",
			modify: func(s *model.Signals) { s.PageSize = 100 * 1024 },
			want:   model.ScoreBreakdown{Total: 95, BasicSEO: 30, Social: 25, Technical: 25, Performance: 15},
		},
		{
			name: "link count boundaries",
			modify: func(s *model.Signals) {
				s.InternalLinks = 10
				s.ExternalLinks = 10
			},
			want: model.ScoreBreakdown{Total: 90, BasicSEO: 30, Social: 25, Technical: 25, Performance: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := perfect()
			tt.modify(&s)
			if got := Score(s); got != tt.want {
				t.Errorf("Score() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// TestScoreEmpty tests the score of a page without any signal.
func TestScoreEmpty(t *testing.T) {
	t.Parallel()

	got := Score(model.Signals{})
	// Only the size and external link rules hold for an empty page.
	if got.Total != 10 || got.Performance != 10 {
		t.Errorf("Score(empty) = %+v, want performance 10 and total 10", got)
	}
}

// TestScorePure tests that scoring the same signals twice gives the same result.
func TestScorePure(t *testing.T) {
	t.Parallel()

	s := perfect()
	s.Title = strings.Repeat("x", 40)
	first := Score(s)
	second := Score(s)
	if first != second {
		t.Errorf("Score() is not deterministic: %+v vs %+v", first, second)
	}
}

// TestGrade tests the grade boundaries.
func TestGrade(t *testing.T) {
	t.Parallel()

	tests := []struct {
		total int
		want  string
	}{
		{100, "A"}, {90, "A"}, {89, "B"}, {80, "B"}, {79, "C"},
		{70, "C"}, {69, "D"}, {60, "D"}, {59, "F"}, {0, "F"},
	}
	for _, tt := range tests {
		if got := Grade(tt.total); got != tt.want {
			t.Errorf("Grade(%d) = %q, want %q", tt.total, got, tt.want)
		}
	}
}

// TestAverage tests the mean score.
func TestAverage(t *testing.T) {
	t.Parallel()

	if got := Average(nil); got != 0 {
		t.Errorf("Average(nil) = %v, want 0", got)
	}
	scores := []model.PageScore{
		{Score: model.ScoreBreakdown{Total: 80}},
		{Score: model.ScoreBreakdown{Total: 65}},
	}
	if got := Average(scores); got != 72.5 {
		t.Errorf("Average() = %v, want 72.5", got)
	}
}
