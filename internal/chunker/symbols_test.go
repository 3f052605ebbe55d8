package chunker

import (
	"strings"
	"testing"
)

func TestExtractSymbolPath(t *testing.T) {
	tests := []struct {
		name     string
		language string
		source   string
		want     string
	}{
		{
			name:     "cpp class",
			language: "cpp",
			source:   "class TTree : public TNamed {\npublic:\n};",
			want:     "TTree",
		},
		{
			name:     "cpp template class",
			language: "cpp",
			source:   "template <typename T>\nclass TVectorT {\n};",
			want:     "TVectorT",
		},
		{
			name:     "cpp struct",
			language: "cpp",
			source:   "struct Event {\n\tint id;\n};",
			want:     "Event",
		},
		{
			name:     "cpp qualified method",
			language: "cpp",
			source:   "void TTree::Fill() {\n\t// body\n}",
			want:     "TTree::Fill",
		},
		{
			name:     "cpp destructor",
			language: "cpp",
			source:   "TTree::~TTree() {\n}",
			want:     "TTree::~TTree",
		},
		{
			name:     "cpp namespace",
			language: "cpp",
			source:   "namespace ROOT {\n}",
			want:     "ROOT",
		},
		{
			name:     "cpp class beats later method",
			language: "cpp",
			source:   "class TH1 {\n};\nvoid TH1::Draw() {\n}",
			want:     "TH1",
		},
		{
			name:     "c struct",
			language: "c",
			source:   "typedef struct buffer {\n\tchar *data;\n} buffer_t;",
			want:     "buffer",
		},
		{
			name:     "c function definition",
			language: "c",
			source:   "static int parse_header(const char *p) {\n\treturn 0;\n}",
			want:     "parse_header",
		},
		{
			name:     "no declaration",
			language: "cpp",
			source:   "\tx += 1;\n\ty += 2;",
			want:     "",
		},
		{
			name:     "unknown language",
			language: "text",
			source:   "class looks_like_cpp {};",
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractSymbolPath(tt.language, strings.Split(tt.source, "\n"))
			if got != tt.want {
				t.Errorf("ExtractSymbolPath() = %q, want %q", got, tt.want)
			}
		})
	}
}
