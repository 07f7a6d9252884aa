package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsValidInput(t *testing.T) {
	testCases := []struct {
		input string
		want  bool
	}{
		{"hel", true},
		{"über", true},
		{"new-york", true},
		{"", false},
		{"1234", false},
		{"a1", true},
		{"he@", false},
		{"aaa", false},
		{"ééé", false},
		{"aa", true},
	}
	for _, tc := range testCases {
		if got := IsValidInput(tc.input); got != tc.want {
			t.Errorf("IsValidInput(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestSuggestionFilter(t *testing.T) {
	f := NewSuggestionFilter("Cat")
	var kept []string
	for _, w := range []string{"cat", "Cats", "cats", "CAP", "cap"} {
		if f.ShouldInclude(w) {
			kept = append(kept, w)
		}
	}
	if len(kept) != 2 || kept[0] != "Cats" || kept[1] != "CAP" {
		t.Errorf("unexpected filtered words %v", kept)
	}
}

func TestParseWithRecovery(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"c.toml": "[suggest]\nedit_distance = 3\nuse_prefix = false\n",
		"c.yaml": "suggest:\n  edit_distance: 3\n  use_prefix: false\n",
	}
	for name, body := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
		data, err := ParseWithRecovery(path)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		section, ok := ExtractSection(data, "suggest")
		if !ok {
			t.Fatalf("%s: missing section", name)
		}
		if d, ok := ExtractInt(section, "edit_distance"); !ok || d != 3 {
			t.Errorf("%s: edit_distance = %v, %v", name, d, ok)
		}
		if p, ok := ExtractBool(section, "use_prefix"); !ok || p {
			t.Errorf("%s: use_prefix = %v, %v", name, p, ok)
		}
	}
}

func TestHasDictionaries(t *testing.T) {
	dir := t.TempDir()
	if HasDictionaries(dir) {
		t.Error("empty dir reported dictionaries")
	}
	if err := os.WriteFile(filepath.Join(dir, "dict_0001.bin"), []byte{0, 0, 0, 0}, 0644); err != nil {
		t.Fatal(err)
	}
	if !HasDictionaries(dir) {
		t.Error("chunk file not detected")
	}
}
