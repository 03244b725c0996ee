package prompt

import "testing"

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		template string
		vars     map[string]string
		want     string
	}{
		{
			name:     "basic substitution",
			template: "hello {{name}}",
			vars:     map[string]string{"name": "world"},
			want:     "hello world",
		},
		{
			name:     "missing token resolves to empty",
			template: "a{{missing}}b",
			vars:     map[string]string{},
			want:     "ab",
		},
		{
			name:     "repeated token",
			template: "{{x}} and {{x}}",
			vars:     map[string]string{"x": "y"},
			want:     "y and y",
		},
		{
			name:     "values are not expanded again",
			template: "{{a}}",
			vars:     map[string]string{"a": "{{b}}", "b": "nope"},
			want:     "{{b}}",
		},
		{
			name:     "empty template",
			template: "",
			vars:     map[string]string{"x": "y"},
			want:     "",
		},
		{
			name:     "no tokens",
			template: "plain text",
			vars:     nil,
			want:     "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Render(tt.template, tt.vars)
			if got != tt.want {
				t.Errorf("Render(%q) = %q, want %q", tt.template, got, tt.want)
			}
		})
	}
}
