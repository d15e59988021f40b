package youtube

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantKind  IdentifierKind
		wantValue string
	}{
		{"canonical id", "UCuAXFkgsw1L7xaCfnd5JJOw", KindChannelID, "UCuAXFkgsw1L7xaCfnd5JJOw"},
		{"id with whitespace", "  UCuAXFkgsw1L7xaCfnd5JJOw\n", KindChannelID, "UCuAXFkgsw1L7xaCfnd5JJOw"},
		{"bare handle", "@linustechtips", KindHandle, "linustechtips"},
		{"handle url", "https://www.youtube.com/@linustechtips", KindHandle, "linustechtips"},
		{"handle url no scheme", "www.youtube.com/@linustechtips", KindHandle, "linustechtips"},
		{"mobile handle url", "https://m.youtube.com/@someone", KindHandle, "someone"},
		{"channel url", "https://www.youtube.com/channel/UCuAXFkgsw1L7xaCfnd5JJOw", KindChannelID, "UCuAXFkgsw1L7xaCfnd5JJOw"},
		{"channel url trailing slash", "https://www.youtube.com/channel/UCuAXFkgsw1L7xaCfnd5JJOw/", KindChannelID, "UCuAXFkgsw1L7xaCfnd5JJOw"},
		{"channel url bad id", "https://www.youtube.com/channel/notachannel", KindInvalid, ""},
		{"custom c url", "https://www.youtube.com/c/SomeCreator", KindCustomURL, "SomeCreator"},
		{"legacy bare path", "https://youtube.com/SomeCreator", KindCustomURL, "SomeCreator"},
		{"free text", "linus tech tips", KindCustomURL, "linus tech tips"},
		{"plain name", "mkbhd", KindCustomURL, "mkbhd"},
		{"empty", "", KindInvalid, ""},
		{"whitespace only", "   \t\n", KindInvalid, ""},
		{"wrong host url", "https://vimeo.com/@someone", KindInvalid, ""},
		{"deep unknown path", "https://www.youtube.com/watch/extra/parts", KindInvalid, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			if got.Kind != tt.wantKind {
				t.Errorf("Parse(%q).Kind = %v, want %v", tt.input, got.Kind, tt.wantKind)
			}
			if got.Value != tt.wantValue {
				t.Errorf("Parse(%q).Value = %q, want %q", tt.input, got.Value, tt.wantValue)
			}
			if got.Raw != tt.input {
				t.Errorf("Parse(%q).Raw = %q, want original input", tt.input, got.Raw)
			}
		})
	}
}

func TestParseIdempotent(t *testing.T) {
	// Re-parsing the display form of a parsed identifier must yield the
	// same kind and value.
	inputs := []string{
		"UCuAXFkgsw1L7xaCfnd5JJOw",
		"@linustechtips",
		"https://www.youtube.com/@linustechtips",
		"mkbhd",
	}

	for _, input := range inputs {
		first := Parse(input)
		second := Parse(first.DisplayText())
		if second.Kind != first.Kind || second.Value != first.Value {
			t.Errorf("Parse(DisplayText(%q)) = {%v %q}, want {%v %q}",
				input, second.Kind, second.Value, first.Kind, first.Value)
		}
	}
}

func TestIdentifierKindString(t *testing.T) {
	tests := []struct {
		kind IdentifierKind
		want string
	}{
		{KindChannelID, "channel-id"},
		{KindHandle, "handle"},
		{KindCustomURL, "custom-url"},
		{KindInvalid, "invalid"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("IdentifierKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestDisplayText(t *testing.T) {
	if got := Parse("@somehandle").DisplayText(); got != "@somehandle" {
		t.Errorf("handle DisplayText() = %q, want %q", got, "@somehandle")
	}
	if got := Parse("UCuAXFkgsw1L7xaCfnd5JJOw").DisplayText(); got != "UCuAXFkgsw1L7xaCfnd5JJOw" {
		t.Errorf("channel id DisplayText() = %q, want the id itself", got)
	}
}
