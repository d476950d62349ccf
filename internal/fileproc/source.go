package fileproc

import (
	"context"
	"fmt"

	"github.com/panbanda/cpd/pkg/source"
)

// SourceOptions configures MapSource.
type SourceOptions struct {
	// Workers bounds concurrency; <= 0 means 2x NumCPU.
	Workers int
	// MaxSize skips files larger than this many bytes; 0 disables the check.
	MaxSize int64
	// OnSkip is called for every file dropped by MaxSize.
	OnSkip func(path string, size int64)
	// OnProgress is called after each file is processed.
	OnProgress ProgressFunc
}

type fileWithContent struct {
	path    string
	content []byte
}

// MapSource reads every file from src, then runs fn over the contents in
// parallel. Reading is sequential so sources backed by git trees are never
// accessed concurrently. Results are in input order; read failures and fn
// failures are collected in the returned errors.
func MapSource[T any](
	ctx context.Context,
	files []string,
	src source.ContentSource,
	opts SourceOptions,
	fn func(path string, content []byte) (T, error),
) ([]T, *ProcessingErrors) {
	if len(files) == 0 {
		return nil, nil
	}

	errs := &ProcessingErrors{}
	loaded := make([]fileWithContent, 0, len(files))
	byPath := make(map[string]int, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			errs.Add(path, err)
			continue
		}
		content, err := src.Read(path)
		if err != nil {
			errs.Add(path, fmt.Errorf("read: %w", err))
			continue
		}
		if opts.MaxSize > 0 && int64(len(content)) > opts.MaxSize {
			if opts.OnSkip != nil {
				opts.OnSkip(path, int64(len(content)))
			}
			continue
		}
		byPath[path] = len(loaded)
		loaded = append(loaded, fileWithContent{path: path, content: content})
	}

	paths := make([]string, len(loaded))
	for i, fc := range loaded {
		paths[i] = fc.path
	}

	results, mapErrs := Map(ctx, paths, opts.Workers, func(_ context.Context, path string) (T, error) {
		return fn(path, loaded[byPath[path]].content)
	}, opts.OnProgress)

	if mapErrs != nil {
		for _, e := range mapErrs.Errors {
			errs.Add(e.Path, e.Err)
		}
	}
	if !errs.HasErrors() {
		return results, nil
	}
	return results, errs
}
