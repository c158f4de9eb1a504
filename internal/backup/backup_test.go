package backup

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestArchiveName(t *testing.T) {
	now := time.Date(2026, 8, 23, 14, 30, 5, 0, time.UTC)
	if got := ArchiveName("dfir-lab", now); got != "dfir-lab-20260823-143005.zip" {
		t.Errorf("ArchiveName = %q", got)
	}
}

func TestZipTree(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "lab.yaml"), "project: dfir-lab\n")
	writeFile(t, filepath.Join(src, "terraform", "main.tf"), "resource {}\n")
	writeFile(t, filepath.Join(src, ".git", "config"), "[core]\n")
	writeFile(t, filepath.Join(src, ".terraform", "plugin"), "binary\n")

	out := filepath.Join(src, "backups", "snapshot.zip")
	if err := ZipTree(src, out, []string{".git", ".terraform", "backups"}); err != nil {
		t.Fatalf("ZipTree: %v", err)
	}

	r, err := zip.OpenReader(out)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer func() { _ = r.Close() }()

	names := make(map[string]bool, len(r.File))
	for _, f := range r.File {
		names[f.Name] = true
	}

	for _, want := range []string{"lab.yaml", "terraform/main.tf"} {
		if !names[want] {
			t.Errorf("archive missing %q; has %v", want, names)
		}
	}
	for name := range names {
		if strings.HasPrefix(name, ".git/") || strings.HasPrefix(name, ".terraform/") || strings.HasPrefix(name, "backups/") {
			t.Errorf("archive contains skipped entry %q", name)
		}
	}
}

func TestChartDataRoundTrip(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "Chart.yaml"), "name: osdfir-infrastructure\n")
	writeFile(t, filepath.Join(src, "templates", "deployment.yaml"), "kind: Deployment\n")

	var buf bytes.Buffer
	if err := EncodeChartData(src, &buf); err != nil {
		t.Fatalf("EncodeChartData: %v", err)
	}

	dest := t.TempDir()
	if err := DecodeChartData(&buf, dest); err != nil {
		t.Fatalf("DecodeChartData: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dest, "Chart.yaml"))
	if err != nil {
		t.Fatalf("read restored file: %v", err)
	}
	if string(got) != "name: osdfir-infrastructure\n" {
		t.Errorf("restored content = %q", got)
	}
	if _, err := os.Stat(filepath.Join(dest, "templates", "deployment.yaml")); err != nil {
		t.Errorf("nested file not restored: %v", err)
	}
}

func TestEncodeChartDataMissingDir(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeChartData(filepath.Join(t.TempDir(), "nope"), &buf); err == nil {
		t.Error("expected error for missing dir")
	}
}

func TestDecodeChartDataRejectsEscape(t *testing.T) {
	// Hand-build a blob whose entry tries to escape the destination.
	var raw bytes.Buffer
	b64 := base64.NewEncoder(base64.StdEncoding, &raw)
	gz := gzip.NewWriter(b64)
	tw := tar.NewWriter(gz)

	content := []byte("pwned")
	hdr := &tar.Header{Name: "../evil.txt", Mode: 0o644, Size: int64(len(content))}
	if err := tw.WriteHeader(hdr); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	if err := b64.Close(); err != nil {
		t.Fatal(err)
	}

	if err := DecodeChartData(&raw, t.TempDir()); err == nil {
		t.Error("expected error for escaping entry")
	}
}
