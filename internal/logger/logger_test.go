package logger

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "short ascii unchanged", input: "hello", maxLen: 50, want: "hello"},
		{name: "exact length unchanged", input: "hello", maxLen: 5, want: "hello"},
		{name: "long ascii truncated", input: "hello world", maxLen: 8, want: "hello..."},
		{name: "tiny limit", input: "hello", maxLen: 3, want: "..."},
		{name: "cyrillic unchanged", input: "привет", maxLen: 6, want: "привет"},
		{name: "cyrillic truncated on rune boundary", input: "привет, как дела", maxLen: 9, want: "привет..."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := truncateString(tc.input, tc.maxLen)
			if got != tc.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tc.input, tc.maxLen, got, tc.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncateString(%q, %d) = %q is not valid UTF-8", tc.input, tc.maxLen, got)
			}
		})
	}
}

func TestTruncateStringLongCyrillicStaysValid(t *testing.T) {
	t.Parallel()

	input := strings.Repeat("ку", 40)
	got := truncateString(input, 50)

	if !utf8.ValidString(got) {
		t.Fatalf("truncateString() = %q is not valid UTF-8", got)
	}
	if utf8.RuneCountInString(got) != 50 {
		t.Errorf("truncateString() rune count = %d, want 50", utf8.RuneCountInString(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncateString() = %q, want trailing ellipsis", got)
	}
}
