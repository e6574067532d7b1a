package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "subjects.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_ParsesSubjects(t *testing.T) {
	path := writeConfig(t, `
subjects:
  math:
    remote_url: https://rows.example.com/math.json
    fallback_csv: data/math.csv
  science:
    fallback_csv: data/science.csv
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	src, ok := cfg.Source("math")
	if !ok || src.RemoteURL != "https://rows.example.com/math.json" {
		t.Fatalf("unexpected math source: %+v ok=%v", src, ok)
	}
	if _, ok := cfg.Source("history"); ok {
		t.Fatalf("unknown subject should not resolve")
	}
}

func TestLoad_RejectsEmptyAndSourcelessSubjects(t *testing.T) {
	if _, err := Load(writeConfig(t, `subjects: {}`)); err == nil {
		t.Fatalf("expected error for empty subjects")
	}
	if _, err := Load(writeConfig(t, "subjects:\n  math: {}\n")); err == nil {
		t.Fatalf("expected error for subject without sources")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
