package encoding

import "testing"

func TestEscapeXMLText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"a & b", "a &amp; b"},
		{"<tag>", "&lt;tag&gt;"},
		{`keep "quotes"`, `keep "quotes"`},
	}
	for _, tt := range tests {
		if got := EscapeXMLText(tt.in); got != tt.want {
			t.Errorf("EscapeXMLText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEscapeXMLAttr(t *testing.T) {
	got := EscapeXMLAttr(`a "b" & <c>`)
	want := "a &quot;b&quot; &amp; &lt;c&gt;"
	if got != want {
		t.Errorf("EscapeXMLAttr = %q, want %q", got, want)
	}
}

func TestEscapeXMLSmartPunctuationPassthrough(t *testing.T) {
	in := "“Don’t,” she said—”wait.”"
	if got := EscapeXMLText(in); got != in {
		t.Errorf("typographic characters should pass through, got %q", got)
	}
}
