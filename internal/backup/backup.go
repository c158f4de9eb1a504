// Package backup produces the two artifacts the lab treats as opaque blobs:
// a zip snapshot of the working tree and a base64-encoded tar.gz of the
// vendored upstream chart data.
package backup

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ArchiveName returns a timestamped zip file name for the project.
func ArchiveName(project string, now time.Time) string {
	return fmt.Sprintf("%s-%s.zip", project, now.Format("20060102-150405"))
}

// ZipTree writes a zip archive of srcDir to outPath, skipping any directory
// whose base name appears in skip.
func ZipTree(srcDir, outPath string, skip []string) (err error) {
	skipSet := make(map[string]struct{}, len(skip))
	for _, s := range skip {
		skipSet[s] = struct{}{}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create archive %q: %w", outPath, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	zw := zip.NewWriter(f)
	defer func() {
		if cerr := zw.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	absOut, _ := filepath.Abs(outPath)

	return filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if _, skipped := skipSet[d.Name()]; skipped && path != srcDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if abs, _ := filepath.Abs(path); abs == absOut {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return fmt.Errorf("add %q to archive: %w", rel, err)
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = src.Close() }()
		if _, err := io.Copy(w, src); err != nil {
			return fmt.Errorf("write %q to archive: %w", rel, err)
		}
		return nil
	})
}

// EncodeChartData writes the chart directory as a base64-encoded tar.gz blob.
// The output format matches what the lab stores as vendored upstream data.
func EncodeChartData(chartDir string, out io.Writer) error {
	info, err := os.Stat(chartDir)
	if err != nil {
		return fmt.Errorf("chart dir %q: %w", chartDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("chart dir %q is not a directory", chartDir)
	}

	b64 := base64.NewEncoder(base64.StdEncoding, out)
	gz := gzip.NewWriter(b64)
	tw := tar.NewWriter(gz)

	err = filepath.WalkDir(chartDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(chartDir, path)
		if err != nil {
			return err
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		hdr := &tar.Header{
			Name:    filepath.ToSlash(rel),
			Mode:    int64(fi.Mode().Perm()),
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = src.Close() }()
		_, err = io.Copy(tw, src)
		return err
	})
	if err != nil {
		return fmt.Errorf("encode chart data: %w", err)
	}

	if err := tw.Close(); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}
	return b64.Close()
}

// DecodeChartData restores a base64 tar.gz blob into destDir.
func DecodeChartData(in io.Reader, destDir string) error {
	gz, err := gzip.NewReader(base64.NewDecoder(base64.StdEncoding, in))
	if err != nil {
		return fmt.Errorf("decode chart data: %w", err)
	}
	defer func() { _ = gz.Close() }()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read chart archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		name := filepath.FromSlash(hdr.Name)
		if strings.Contains(name, "..") {
			return fmt.Errorf("chart archive entry escapes destination: %q", hdr.Name)
		}
		target := filepath.Join(destDir, name)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fs.FileMode(hdr.Mode).Perm())
		if err != nil {
			return err
		}
		if _, err := io.Copy(dst, tr); err != nil {
			_ = dst.Close()
			return err
		}
		if err := dst.Close(); err != nil {
			return err
		}
	}
}
