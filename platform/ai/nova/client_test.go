package nova

import "testing"

func TestParseStructured(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
		wantErr  bool
	}{
		{
			name:     "clean json",
			text:     `{"budget_score": 15, "analysis": "ok"}`,
			expected: []string{"budget_score", "analysis"},
		},
		{
			name:     "json wrapped in prose",
			text:     "Here is the result:\n```json\n{\"subject\": \"Hi\", \"body\": \"text\"}\n```",
			expected: []string{"subject", "body"},
		},
		{
			name:     "missing field",
			text:     `{"budget_score": 15}`,
			expected: []string{"budget_score", "analysis"},
			wantErr:  true,
		},
		{
			name:     "no json at all",
			text:     "I cannot answer that.",
			expected: []string{"analysis"},
			wantErr:  true,
		},
		{
			name:     "malformed json",
			text:     `{"budget_score": }`,
			expected: []string{"budget_score"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := ParseStructured(tt.text, tt.expected)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !IsParseError(err) {
					t.Fatalf("expected ParseError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, field := range tt.expected {
				if _, ok := parsed[field]; !ok {
					t.Errorf("field %q missing from parsed result", field)
				}
			}
		})
	}
}
