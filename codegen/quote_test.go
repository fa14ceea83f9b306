package codegen

import (
	"encoding/json"
	"testing"
)

func Test_Quote_Escapes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", `""`},
		{"plain", "# Title", `"# Title"`},
		{"double quotes", `print("hi")`, `"print(\"hi\")"`},
		{"single quotes", `it's`, `"it's"`},
		{"backslash", `C:\path\n`, `"C:\\path\\n"`},
		{"newlines", "a\nb\r\nc", `"a\nb\r\nc"`},
		{"tab and form feed", "a\tb\fc\bd", `"a\tb\fc\bd"`},
		{"control", "\x00\x1b\x7f", `"\u0000\u001b\u007f"`},
		{"latin", "héllo", `"h\u00e9llo"`},
		{"line separator", "a\u2028b\u2029c", `"a\u2028b\u2029c"`},
		{"astral", "😀", `"\ud83d\ude00"`},
		{"script close", "</script>", `"</script>"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Quote(tt.in); got != tt.want {
				t.Errorf("Quote(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func Test_Quote_OutputIsASCII(t *testing.T) {
	quoted := Quote("日本語 – ünïcödé \U0001F680 \"q\" \\")
	for i := 0; i < len(quoted); i++ {
		if quoted[i] >= 0x80 {
			t.Fatalf("non-ASCII byte at %d in %s", i, quoted)
		}
	}
}

func Test_Quote_RoundTrip(t *testing.T) {
	inputs := []string{
		"",
		`print("hi")`,
		"line one\nline two\r\n\ttabbed\n",
		`backslash \ and "quotes" and 'apostrophes'`,
		"nul\x00byte and escape \x1b[0m",
		"emoji 🎉 mixed with ĉĥĝ and 中文",
		"\u2028\u2029",
		"{\"json\": [1, 2, 3]}\n",
	}

	for _, in := range inputs {
		var out string
		if err := json.Unmarshal([]byte(Quote(in)), &out); err != nil {
			t.Fatalf("decoding Quote(%q): %v", in, err)
		}
		if out != in {
			t.Errorf("round trip changed %q into %q", in, out)
		}
	}
}
