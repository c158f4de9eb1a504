package env

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestMerge(t *testing.T) {
	base := Vars{"A": "1", "B": "2"}
	over := Vars{"B": "3", "C": "4"}

	got := Merge(base, over)
	want := Vars{"A": "1", "B": "3", "C": "4"}
	if len(got) != len(want) {
		t.Fatalf("merged = %v", got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("merged[%s] = %q, want %q", k, got[k], v)
		}
	}
}

func TestEnviron(t *testing.T) {
	v := Vars{"FOO": "bar"}
	got := v.Environ()
	if !slices.Contains(got, "FOO=bar") {
		t.Errorf("Environ = %v, want FOO=bar present", got)
	}
	if len(got) != 1 {
		t.Errorf("Environ length = %d", len(got))
	}
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.env"), []byte("KEY=first\nONLY_A=yes\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.env"), []byte("KEY=second\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("later files override", func(t *testing.T) {
		got, err := LoadEnvFiles(dir, []string{"a.env", "b.env"})
		if err != nil {
			t.Fatalf("LoadEnvFiles: %v", err)
		}
		if got["KEY"] != "second" {
			t.Errorf("KEY = %q, want second", got["KEY"])
		}
		if got["ONLY_A"] != "yes" {
			t.Errorf("ONLY_A = %q, want yes", got["ONLY_A"])
		}
	})

	t.Run("missing files skipped", func(t *testing.T) {
		got, err := LoadEnvFiles(dir, []string{"missing.env", "a.env"})
		if err != nil {
			t.Fatalf("LoadEnvFiles: %v", err)
		}
		if got["KEY"] != "first" {
			t.Errorf("KEY = %q, want first", got["KEY"])
		}
	})

	t.Run("empty list", func(t *testing.T) {
		got, err := LoadEnvFiles(dir, nil)
		if err != nil {
			t.Fatalf("LoadEnvFiles: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("vars = %v, want empty", got)
		}
	})
}
