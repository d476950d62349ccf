package fileproc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/panbanda/cpd/pkg/source"
)

func TestMap_PreservesInputOrder(t *testing.T) {
	files := make([]string, 50)
	for i := range files {
		files[i] = fmt.Sprintf("f%02d", i)
	}

	results, errs := Map(context.Background(), files, 8, func(_ context.Context, path string) (string, error) {
		// Later files finish first.
		var n int
		fmt.Sscanf(path, "f%d", &n)
		time.Sleep(time.Duration(50-n) * 100 * time.Microsecond)
		return strings.ToUpper(path), nil
	}, nil)

	if errs != nil {
		t.Fatalf("Unexpected errors: %v", errs)
	}
	if len(results) != len(files) {
		t.Fatalf("Expected %d results, got %d", len(files), len(results))
	}
	for i, r := range results {
		if r != strings.ToUpper(files[i]) {
			t.Errorf("results[%d] = %s, want %s", i, r, strings.ToUpper(files[i]))
		}
	}
}

func TestMap_EmptyFileList(t *testing.T) {
	results, errs := Map(context.Background(), nil, 0, func(_ context.Context, path string) (string, error) {
		return path, nil
	}, nil)

	if results != nil {
		t.Errorf("Expected nil for empty file list, got %v", results)
	}
	if errs != nil {
		t.Errorf("Expected nil errors for empty file list, got %v", errs)
	}
}

func TestMap_CollectsErrors(t *testing.T) {
	boom := errors.New("boom")
	files := []string{"a", "bad1", "b", "bad2", "c"}

	var progress atomic.Int32
	results, errs := Map(context.Background(), files, 2, func(_ context.Context, path string) (string, error) {
		if strings.HasPrefix(path, "bad") {
			return "", boom
		}
		return path, nil
	}, func() { progress.Add(1) })

	if got := strings.Join(results, ","); got != "a,b,c" {
		t.Errorf("results = %s, want a,b,c", got)
	}
	if errs == nil || len(errs.Errors) != 2 {
		t.Fatalf("Expected 2 errors, got %v", errs)
	}
	if !errors.Is(errs, boom) {
		t.Error("ProcessingErrors should unwrap to the underlying error")
	}
	if !strings.Contains(errs.Error(), "2 files failed") {
		t.Errorf("Error() = %q", errs.Error())
	}
	if progress.Load() != int32(len(files)) {
		t.Errorf("progress called %d times, want %d", progress.Load(), len(files))
	}
}

func TestMap_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	results, errs := Map(ctx, []string{"a", "b", "c"}, 1, func(_ context.Context, path string) (string, error) {
		calls.Add(1)
		return path, nil
	}, nil)

	if len(results) != 0 {
		t.Errorf("Expected no results after cancellation, got %v", results)
	}
	if calls.Load() != 0 {
		t.Errorf("fn should not run after cancellation, ran %d times", calls.Load())
	}
	if errs == nil || !errors.Is(errs, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", errs)
	}
}

func TestWorkers(t *testing.T) {
	if Workers(3) != 3 {
		t.Errorf("Workers(3) = %d", Workers(3))
	}
	if Workers(0) < DefaultWorkerMultiplier {
		t.Errorf("Workers(0) = %d, want at least %d", Workers(0), DefaultWorkerMultiplier)
	}
}

func TestProcessingErrors(t *testing.T) {
	errs := &ProcessingErrors{}
	if errs.HasErrors() {
		t.Error("new ProcessingErrors should be empty")
	}
	if errs.Error() != "no errors" {
		t.Errorf("Error() = %q", errs.Error())
	}

	errs.Add("x.go", errors.New("bad"))
	if errs.Error() != "x.go: bad" {
		t.Errorf("Error() = %q, want x.go: bad", errs.Error())
	}
}

func TestMapSource(t *testing.T) {
	src := source.Memory{
		"a.go":   []byte("aaaa"),
		"big.go": []byte(strings.Repeat("x", 100)),
		"b.go":   []byte("bb"),
	}

	var skipped []string
	results, errs := MapSource(context.Background(), []string{"a.go", "big.go", "missing.go", "b.go"}, src,
		SourceOptions{
			Workers: 2,
			MaxSize: 10,
			OnSkip:  func(path string, _ int64) { skipped = append(skipped, path) },
		},
		func(path string, content []byte) (string, error) {
			return fmt.Sprintf("%s=%d", path, len(content)), nil
		})

	if got := strings.Join(results, ","); got != "a.go=4,b.go=2" {
		t.Errorf("results = %s", got)
	}
	if len(skipped) != 1 || skipped[0] != "big.go" {
		t.Errorf("skipped = %v, want [big.go]", skipped)
	}
	if errs == nil || len(errs.Errors) != 1 || errs.Errors[0].Path != "missing.go" {
		t.Errorf("Expected one read error for missing.go, got %v", errs)
	}
}

func TestMapSource_FnErrors(t *testing.T) {
	src := source.Memory{"a": []byte("1"), "b": []byte("2")}
	results, errs := MapSource(context.Background(), []string{"a", "b"}, src, SourceOptions{},
		func(path string, content []byte) (int, error) {
			if path == "b" {
				return 0, errors.New("cannot lex")
			}
			return len(content), nil
		})

	if len(results) != 1 || results[0] != 1 {
		t.Errorf("results = %v", results)
	}
	if errs == nil || errs.Errors[0].Path != "b" {
		t.Errorf("Expected error for b, got %v", errs)
	}
}
