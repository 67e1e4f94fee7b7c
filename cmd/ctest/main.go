// Command ctest runs the compiler over the testdata programs and compares
// the emitted assembly against golden files. A cache keyed by the source
// hash skips files that have not changed since the last passing run.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"
)

var (
	compiler  = flag.String("compiler", "./cmips", "path to the compiler under test")
	testFiles = flag.String("test-files", "testdata/*.mc", "glob pattern for source files to test")
	update    = flag.Bool("update", false, "regenerate the golden files instead of comparing")
	useCache  = flag.Bool("cached", false, "skip files whose source hash matches the last passing run")
	runSpim   = flag.Bool("spim", false, "also execute the golden assembly under spim and compare stdout")
	timeout   = flag.Duration("timeout", 5*time.Second, "timeout for each spim execution")
	verbose   = flag.Bool("v", false, "enable verbose logging")
)

const (
	cRed   = "\x1b[91m"
	cGreen = "\x1b[92m"
	cCyan  = "\x1b[96m"
	cNone  = "\x1b[0m"
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	files, err := filepath.Glob(*testFiles)
	if err != nil || len(files) == 0 {
		log.Fatalf("%s[ERROR]%s no test files match %q", cRed, cNone, *testFiles)
	}

	passed, failed, skipped := 0, 0, 0
	for _, file := range files {
		switch runOne(file) {
		case "PASS":
			passed++
		case "SKIP":
			skipped++
		default:
			failed++
		}
	}

	fmt.Printf("\n%d passed, %d failed, %d skipped\n", passed, failed, skipped)
	if failed > 0 {
		os.Exit(1)
	}
}

func goldenPath(source string) string {
	return strings.TrimSuffix(source, filepath.Ext(source)) + ".s"
}

func cachePath(source string) string {
	dir, base := filepath.Split(source)
	return filepath.Join(dir, "."+base+".hash")
}

func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(xxhash.Sum64(data), 16), nil
}

func runOne(source string) string {
	hash, err := hashFile(source)
	if err != nil {
		report(source, "ERROR", err.Error())
		return "ERROR"
	}
	if *useCache && !*update {
		if cached, err := os.ReadFile(cachePath(source)); err == nil && string(cached) == hash {
			if *verbose {
				report(source, "SKIP", "unchanged")
			}
			return "SKIP"
		}
	}

	got, err := compile(source)
	if err != nil {
		report(source, "FAIL", err.Error())
		return "FAIL"
	}

	golden := goldenPath(source)
	if *update {
		if err := os.WriteFile(golden, got, 0o644); err != nil {
			report(source, "ERROR", err.Error())
			return "ERROR"
		}
		report(source, "PASS", "golden updated")
	} else {
		want, err := os.ReadFile(golden)
		if err != nil {
			report(source, "FAIL", "missing golden file; run with -update")
			return "FAIL"
		}
		if diff := cmp.Diff(string(want), string(got)); diff != "" {
			report(source, "FAIL", "assembly differs from golden (-want +got):\n"+diff)
			return "FAIL"
		}
		if *runSpim {
			if msg := checkSpim(source, golden); msg != "" {
				report(source, "FAIL", msg)
				return "FAIL"
			}
		}
		report(source, "PASS", "")
	}

	if err := os.WriteFile(cachePath(source), []byte(hash), 0o644); err != nil && *verbose {
		log.Printf("cache write failed: %v", err)
	}
	return "PASS"
}

// compile runs the compiler under test and returns the emitted assembly.
func compile(source string) ([]byte, error) {
	out, err := os.CreateTemp("", "ctest-*.s")
	if err != nil {
		return nil, err
	}
	out.Close()
	defer os.Remove(out.Name())

	cmd := exec.Command(*compiler, "-o", out.Name(), source)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("compiler failed: %v\n%s", err, stderr.String())
	}
	return os.ReadFile(out.Name())
}

// checkSpim executes the assembly and compares stdout with the .out file
// next to the source, when one exists.
func checkSpim(source, asm string) string {
	wantPath := strings.TrimSuffix(source, filepath.Ext(source)) + ".out"
	want, err := os.ReadFile(wantPath)
	if err != nil {
		return "" // no expected output recorded
	}

	cmd := exec.Command("spim", "-file", asm)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	done := make(chan error, 1)
	if err := cmd.Start(); err != nil {
		return "spim not available: " + err.Error()
	}
	go func() { done <- cmd.Wait() }()
	select {
	case <-time.After(*timeout):
		cmd.Process.Kill()
		return "spim timed out"
	case err := <-done:
		if err != nil {
			return "spim failed: " + err.Error()
		}
	}

	// spim prints a banner before program output
	got := stdout.String()
	if idx := strings.Index(got, "\n"); idx >= 0 && strings.HasPrefix(got, "Loaded:") {
		got = got[idx+1:]
	}
	if diff := cmp.Diff(string(want), got); diff != "" {
		return "program output differs (-want +got):\n" + diff
	}
	return ""
}

func report(file, status, detail string) {
	color := cGreen
	switch status {
	case "FAIL", "ERROR":
		color = cRed
	case "SKIP":
		color = cCyan
	}
	if detail != "" {
		fmt.Printf("%s[%s]%s %s: %s\n", color, status, cNone, file, detail)
	} else {
		fmt.Printf("%s[%s]%s %s\n", color, status, cNone, file)
	}
}
