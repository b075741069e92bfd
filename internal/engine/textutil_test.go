package engine

import "testing"

func TestCleanCaptionText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trims only", "  hello   world \n", "hello   world"},
		{"inner line break kept", "line one\nline two", "line one\nline two"},
		{"entities", "Tom &amp; Jerry &#39;s", "Tom & Jerry 's"},
		{"inline tags", `<font color="#fff">Hel</font>lo <i>there</i>`, "Hello there"},
		{"webvtt class and voice", "<v Roger><c.colorE5E5E5>hi</c></v>", "hi"},
		{"br becomes newline", "line one<br/>line two", "line one\nline two"},
		{"bare less-than kept", "if a<b then c", "if a<b then c"},
		{"less-than before letter kept", "n<m holds", "n<m holds"},
		{"escaped tag is text", "a &lt;b&gt; c", "a <b> c"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCaptionText(tt.in); got != tt.want {
				t.Errorf("CleanCaptionText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormLang(t *testing.T) {
	if got := NormLang(""); got != Cfg.DefaultLanguage {
		t.Errorf("NormLang(\"\") = %q, want default %q", got, Cfg.DefaultLanguage)
	}
	if got := NormLang(" es "); got != "es" {
		t.Errorf("NormLang(\" es \") = %q, want es", got)
	}
}
