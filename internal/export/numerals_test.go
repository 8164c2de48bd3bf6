package export

import "testing"

func TestNumberWord(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "ZERO"},
		{1, "ONE"},
		{7, "SEVEN"},
		{13, "THIRTEEN"},
		{19, "NINETEEN"},
		{20, "TWENTY"},
		{21, "TWENTY-ONE"},
		{42, "FORTY-TWO"},
		{70, "SEVENTY"},
		{99, "NINETY-NINE"},
		{100, "ONE HUNDRED"},
		{101, "101"},
		{250, "250"},
	}
	for _, tt := range tests {
		if got := NumberWord(tt.n); got != tt.want {
			t.Errorf("NumberWord(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestChapterHeading(t *testing.T) {
	tests := []struct {
		n     int
		title string
		style ChapterHeadingStyle
		want  string
	}{
		{1, "The Beginning", HeadingNumberOnly, "CHAPTER ONE"},
		{1, "The Beginning", HeadingNumberAndTitle, "CHAPTER ONE: THE BEGINNING"},
		{1, "The Beginning", HeadingTitleOnly, "THE BEGINNING"},
		{42, "x", HeadingNumberArabic, "CHAPTER 42"},
		{42, "x", HeadingNumberArabicAndTitle, "CHAPTER 42: X"},
	}
	for _, tt := range tests {
		if got := ChapterHeading(tt.n, tt.title, tt.style); got != tt.want {
			t.Errorf("ChapterHeading(%d, %q, %s) = %q, want %q",
				tt.n, tt.title, tt.style, got, tt.want)
		}
	}
}

func TestWordCountString(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 words"},
		{500, "500 words"},
		{999, "999 words"},
		{1000, "approx. 1000 words"},
		{1499, "approx. 1000 words"},
		{1500, "approx. 2000 words"},
		{87321, "approx. 87000 words"},
	}
	for _, tt := range tests {
		if got := wordCountString(tt.n); got != tt.want {
			t.Errorf("wordCountString(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestRunningHeader(t *testing.T) {
	tests := []struct {
		author, title, want string
	}{
		{"Jane Q. Doe", "The Lighthouse Keeper's Daughter", "Doe / THE LIGHTHOUSE KEEPER'S / "},
		{"Mara", "Dusk", "Mara / DUSK / "},
		{"", "Dusk", " / DUSK / "},
	}
	for _, tt := range tests {
		if got := runningHeader(tt.author, tt.title); got != tt.want {
			t.Errorf("runningHeader(%q, %q) = %q, want %q", tt.author, tt.title, got, tt.want)
		}
	}
}
