package slug

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"strings"
	"testing"
)

// TestNormalize exercises the slug generator with typical headlines,
// punctuation, non-ASCII text, whitespace variants and boundary inputs.
func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		// --- Headlines ---
		{"simple two words", "Hello World", "hello-world"},
		{"headline with symbols", "COVID-19 Updates & Analysis!", "covid-19-updates-analysis"},
		{"category name", "Technology", "technology"},
		{"title with year", "Carnival Returns to Roseau 2026", "carnival-returns-to-roseau-2026"},
		{"question headline", "What Next for Dominica's Banana Farmers?", "what-next-for-dominicas-banana-farmers"},

		// --- Punctuation ---
		{"commas and apostrophes", "Hello, World! How's it going?", "hello-world-hows-it-going"},
		{"ampersand and at", "Rock & Roll @ the Arena", "rock-roll-the-arena"},
		{"brackets and dots", "Version (2.0) [Beta]", "version-20-beta"},
		{"slash and pipe", "Frontend/Backend | Full Stack", "frontendbackend-full-stack"},
		{"hash and dollar", "Issue #42 costs $100", "issue-42-costs-100"},
		{"math operators", "1 + 1 = 2", "1-1-2"},
		{"underscores dropped", "snake_case_title", "snakecasetitle"},

		// --- Non-ASCII is dropped, not transliterated ---
		{"accented letters", "Café Noël", "caf-nol"},
		{"fully non-latin", "日本語", ""},
		{"mixed latin and emoji", "Hurricane 🌀 Season", "hurricane-season"},

		// --- Whitespace ---
		{"leading spaces", "   hello world", "hello-world"},
		{"trailing spaces", "hello world   ", "hello-world"},
		{"multiple inner spaces", "hello    world", "hello-world"},
		{"tab", "hello\tworld", "hello-world"},
		{"newline", "hello\nworld", "hello-world"},
		{"non-breaking space", "hello\u00a0world", "hello-world"},

		// --- Hyphens ---
		{"leading hyphens", "---hello world", "hello-world"},
		{"trailing hyphens", "hello world---", "hello-world"},
		{"repeated hyphens", "hello---world", "hello-world"},
		{"hyphenated word", "well-known fact", "well-known-fact"},
		{"hyphens and spaces", "  --hello -- world--  ", "hello-world"},

		// --- Edge cases ---
		{"empty", "", ""},
		{"only spaces", "     ", ""},
		{"only hyphens", "-----", ""},
		{"only symbols", "!@#$%^&*()", ""},
		{"single letter", "A", "a"},
		{"single digit", "5", "5"},
		{"date", "2026-02-25", "2026-02-25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestNormalize_Properties checks that output is idempotent and only ever
// uses the slug alphabet without leading, trailing or doubled hyphens.
func TestNormalize_Properties(t *testing.T) {
	inputs := []string{
		"Hello World",
		"  -- Mixed CASE & symbols!! -- ",
		"Café Noël",
		"a - b - c",
		"UPPER_lower-123",
		"\t\n",
		"---",
		"Dominica's 2026 Budget: What It Means",
	}
	alphabet := regexp.MustCompile(`^[a-z0-9-]*$`)

	for _, s := range inputs {
		t.Run(s, func(t *testing.T) {
			once := Normalize(s)
			if twice := Normalize(once); twice != once {
				t.Errorf("not idempotent: %q -> %q -> %q", s, once, twice)
			}
			if !alphabet.MatchString(once) {
				t.Errorf("Normalize(%q) = %q contains characters outside [a-z0-9-]", s, once)
			}
			if strings.HasPrefix(once, "-") || strings.HasSuffix(once, "-") {
				t.Errorf("Normalize(%q) = %q has leading or trailing hyphen", s, once)
			}
			if strings.Contains(once, "--") {
				t.Errorf("Normalize(%q) = %q has repeated hyphen", s, once)
			}
			if once != "" && !Valid(once) {
				t.Errorf("Valid(%q) = false for normalized output", once)
			}
		})
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"hello-world", true},
		{"covid-19", true},
		{"a", true},
		{"", false},
		{"-hello", false},
		{"hello-", false},
		{"hello--world", false},
		{"Hello", false},
		{"hello_world", false},
	}
	for _, tt := range tests {
		if got := Valid(tt.in); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// takenSet returns an ExistsFunc backed by a fixed set and records every
// candidate it is asked about.
func takenSet(taken ...string) (ExistsFunc, *[]string) {
	set := make(map[string]bool, len(taken))
	for _, s := range taken {
		set[s] = true
	}
	var calls []string
	return func(_ context.Context, candidate string) (bool, error) {
		calls = append(calls, candidate)
		return set[candidate], nil
	}, &calls
}

func TestEnsureUnique(t *testing.T) {
	tests := []struct {
		name      string
		base      string
		taken     []string
		want      string
		wantCalls []string
	}{
		{
			name:      "base is free",
			base:      "technology",
			want:      "technology",
			wantCalls: []string{"technology"},
		},
		{
			name:      "base taken",
			base:      "technology",
			taken:     []string{"technology"},
			want:      "technology-1",
			wantCalls: []string{"technology", "technology-1"},
		},
		{
			name:      "several taken in order",
			base:      "news",
			taken:     []string{"news", "news-1", "news-2"},
			want:      "news-3",
			wantCalls: []string{"news", "news-1", "news-2", "news-3"},
		},
		{
			name:      "gap is not skipped past",
			base:      "news",
			taken:     []string{"news", "news-2"},
			want:      "news-1",
			wantCalls: []string{"news", "news-1"},
		},
		{
			name:      "empty base free",
			base:      "",
			want:      "",
			wantCalls: []string{""},
		},
		{
			name:      "empty base taken",
			base:      "",
			taken:     []string{"", "-1"},
			want:      "-2",
			wantCalls: []string{"", "-1", "-2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exists, calls := takenSet(tt.taken...)

			got, err := EnsureUnique(context.Background(), tt.base, exists)
			if err != nil {
				t.Fatalf("EnsureUnique: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if !reflect.DeepEqual(*calls, tt.wantCalls) {
				t.Errorf("calls: got %v, want %v", *calls, tt.wantCalls)
			}
		})
	}
}

func TestEnsureUnique_PredicateError(t *testing.T) {
	boom := errors.New("db down")
	_, err := EnsureUnique(context.Background(), "x", func(context.Context, string) (bool, error) {
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped predicate error, got %v", err)
	}
}

func TestEnsureUnique_AlwaysTaken(t *testing.T) {
	calls := 0
	_, err := EnsureUnique(context.Background(), "x", func(context.Context, string) (bool, error) {
		calls++
		return true, nil
	})
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if calls != maxAttempts {
		t.Errorf("calls: got %d, want %d", calls, maxAttempts)
	}
}

func TestEnsureUnique_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := EnsureUnique(ctx, "x", func(context.Context, string) (bool, error) {
		t.Fatal("predicate must not be called after cancellation")
		return false, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
