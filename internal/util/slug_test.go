package util

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"My First Post!", "my-first-post"},
		{"  spaced  out  ", "spaced-out"},
		{"Über Café", "uber-cafe"},
		{"Привет мир", "privet-mir"},
		{"already-a-slug", "already-a-slug"},
		{"UPPER case", "upper-case"},
		{"---", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.input); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestIsValidSlug(t *testing.T) {
	valid := []string{"hello", "hello-world", "post-42", "a"}
	for _, s := range valid {
		if !IsValidSlug(s) {
			t.Errorf("IsValidSlug(%q) = false, want true", s)
		}
	}

	invalid := []string{"", "Hello", "has space", "-leading", "trailing-", "double--hyphen", "ünïcode"}
	for _, s := range invalid {
		if IsValidSlug(s) {
			t.Errorf("IsValidSlug(%q) = true, want false", s)
		}
	}
}
