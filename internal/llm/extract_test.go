package llm

import (
	"encoding/json"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "fenced json block",
			input: "Here's the result:\n```json\n{\"action\": \"read\"}\n```\nDone!",
			want:  `{"action": "read"}`,
		},
		{
			name:  "bare object",
			input: `{"isComplete": true}`,
			want:  `{"isComplete": true}`,
		},
		{
			name:  "object surrounded by prose",
			input: `Sure, here you go: {"pageName": "index.html"} hope that helps`,
			want:  `{"pageName": "index.html"}`,
		},
		{
			name:  "nested objects",
			input: `{"a": {"b": 1}, "c": [2, 3]}`,
			want:  `{"a": {"b": 1}, "c": [2, 3]}`,
		},
		{
			name:  "array",
			input: `the files are ["a.ts", "b.ts"] as requested`,
			want:  `["a.ts", "b.ts"]`,
		},
		{
			name:  "generic fence",
			input: "```\n{\"x\": 1}\n```",
			want:  `{"x": 1}`,
		},
		{
			name:    "no json at all",
			input:   "I could not produce a result.",
			wantErr: true,
		},
		{
			name:    "unclosed object",
			input:   `here is {"broken": `,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractJSON failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("ExtractJSON() = %q, want %q", got, tt.want)
			}

			// Whatever comes out must be valid JSON
			var v any
			if err := json.Unmarshal([]byte(got), &v); err != nil {
				t.Errorf("extracted text is not valid JSON: %v", err)
			}
		})
	}
}
