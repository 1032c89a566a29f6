// Package tests fetches the test data (test roms, processor tests) shared by
// the test suites of the other packages. Data is downloaded once and kept
// next to this file.
package tests

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"golang.org/x/sync/errgroup"
)

func decompress(zipFile, dest string) error {
	r, err := zip.OpenReader(zipFile)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		fname := strings.Replace(f.Name, "nes-test-roms-master", "nes-test-roms", 1)
		fpath := filepath.Join(dest, fname)
		if !strings.HasPrefix(fpath, filepath.Clean(dest)+string(os.PathSeparator)) {
			return fmt.Errorf("%s: illegal file path", fpath)
		}

		if f.FileInfo().IsDir() {
			os.MkdirAll(fpath, os.ModePerm)
			continue
		}

		if err = os.MkdirAll(filepath.Dir(fpath), os.ModePerm); err != nil {
			return err
		}

		rc, err := f.Open()
		if err != nil {
			return err
		}

		outFile, err := os.OpenFile(fpath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
		if err != nil {
			rc.Close()
			return err
		}

		_, err = io.Copy(outFile, rc)

		outFile.Close()
		rc.Close()

		if err != nil {
			return err
		}
	}

	log.Println("decompressed", len(r.File), "files")
	return nil
}

// download writes the content at url into w.
func download(url string, w io.Writer) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", url, resp.Status)
	}

	_, err = io.Copy(w, resp.Body)
	return err
}

func downloadTestRoms(dest string) error {
	const url = `https://github.com/christopherpow/nes-test-roms/archive/refs/heads/master.zip`

	tmpf, err := os.CreateTemp("", "nes-test-roms-*-.zip")
	if err != nil {
		return err
	}
	defer os.Remove(tmpf.Name())
	defer tmpf.Close()

	if err := download(url, tmpf); err != nil {
		return err
	}

	if err := decompress(tmpf.Name(), dest); err != nil {
		return fmt.Errorf("failed to decompress test roms: %w", err)
	}
	return nil
}

// download all 256 (one per opcode) processor test files into dest dir.
func downloadProcTests(dest string) error {
	const urlfmt = `https://raw.githubusercontent.com/SingleStepTests/65x02/main/nes6502/v1/%s.json`

	tempdir, err := os.MkdirTemp("", "tom.harte.processor.tests.*")
	if err != nil {
		return err
	}

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())

	for opcode := range 256 {
		opstr := fmt.Sprintf("%02x", opcode)
		url := fmt.Sprintf(urlfmt, opstr)

		g.Go(func() error {
			f, err := os.Create(filepath.Join(tempdir, opstr+".json"))
			if err != nil {
				return err
			}
			defer f.Close()

			return download(url, f)
		})
	}

	if err := g.Wait(); err != nil {
		os.RemoveAll(tempdir)
		return fmt.Errorf("failed to download all files: %w", err)
	}

	return os.Rename(tempdir, dest)
}

func testsDir() string {
	_, b, _, _ := runtime.Caller(0)
	return filepath.Dir(b)
}

// fetchOnce returns a function ensuring dir exists, calling fetch to create it
// the first time it's called.
func fetchOnce(dir string, fetch func() error) func() (string, error) {
	return sync.OnceValues(func() (string, error) {
		if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
			log.Println(filepath.Base(dir), "directory not found, downloading it...")
			if err := fetch(); err != nil {
				return "", err
			}
		}
		return dir, nil
	})
}

var (
	romsPath = fetchOnce(filepath.Join(testsDir(), "nes-test-roms"), func() error {
		return downloadTestRoms(testsDir())
	})
	procTestsPath = fetchOnce(filepath.Join(testsDir(), "tomharte.processor.tests"), func() error {
		return downloadProcTests(filepath.Join(testsDir(), "tomharte.processor.tests"))
	})
)

// RomsPath returns the directory holding the nes-test-roms collection. The
// test is skipped if it can't be downloaded.
func RomsPath(tb testing.TB) string {
	tb.Helper()

	dir, err := romsPath()
	if err != nil {
		tb.Skipf("test roms unavailable: %s", err)
	}
	return dir
}

// TomHarteProcTestsPath returns the directory holding the nes6502 single step
// processor tests, one JSON file per opcode. The test is skipped if they
// can't be downloaded.
func TomHarteProcTestsPath(tb testing.TB) string {
	tb.Helper()

	dir, err := procTestsPath()
	if err != nil {
		tb.Skipf("processor tests unavailable: %s", err)
	}
	return dir
}
