// Package xargs splits a file list into command-line-sized batches and runs
// one invocation per batch, combining exit codes and output.
package xargs

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ErrArgumentTooLong is returned when a single file cannot fit on a command line.
var ErrArgumentTooLong = errors.New("argument too long")

// Limits bounds one invocation. Zero MaxLength selects the platform default;
// zero MaxArgs means no cap on files per batch.
type Limits struct {
	MaxLength int
	MaxArgs   int
}

func (l Limits) maxLength() int {
	if l.MaxLength > 0 {
		return l.MaxLength
	}
	return DefaultMaxLength()
}

// argLength is the bytes an argument occupies on the command line, counting
// its separator.
func argLength(arg string) int {
	return len(arg) + 1
}

// Partition splits files into consecutive batches such that cmd plus each
// batch fits within limits. An empty file list yields no batches.
func Partition(cmd []string, files []string, limits Limits) ([][]string, error) {
	maxLen := limits.maxLength()
	base := 0
	for _, c := range cmd {
		base += argLength(c)
	}
	if base > maxLen {
		return nil, fmt.Errorf("%w: command needs %d bytes, limit is %d", ErrArgumentTooLong, base, maxLen)
	}

	var (
		batches [][]string
		current []string
		size    = base
	)
	for _, f := range files {
		n := argLength(f)
		if base+n > maxLen {
			return nil, fmt.Errorf("%w: %s", ErrArgumentTooLong, f)
		}
		full := limits.MaxArgs > 0 && len(current) >= limits.MaxArgs
		if len(current) > 0 && (full || size+n > maxLen) {
			batches = append(batches, current)
			current, size = nil, base
		}
		current = append(current, f)
		size += n
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches, nil
}

// Result is the outcome of one invocation.
type Result struct {
	Code   int
	Stdout []byte
	Stderr []byte
}

// Invoker runs cmd with the batch appended. A returned error means the process
// could not be run at all; a nonzero exit is reported through Result.Code.
type Invoker func(ctx context.Context, batch []string) (Result, error)

// Options control Run.
type Options struct {
	Limits
	// Jobs bounds concurrent invocations. Zero means runtime.NumCPU().
	Jobs int
	// Serial forces one invocation at a time.
	Serial bool
	// NoFiles makes a single invocation with no files.
	NoFiles bool
}

func (o Options) jobs() int {
	switch {
	case o.Serial:
		return 1
	case o.Jobs > 0:
		return o.Jobs
	default:
		return runtime.NumCPU()
	}
}

// Run partitions files, invokes every batch and combines the results in
// submission order: exit codes are OR'ed and output is each batch's stdout
// followed by its stderr. The first invoke error cancels the other batches.
func Run(ctx context.Context, cmd []string, files []string, opts Options, invoke Invoker) (int, []byte, error) {
	if opts.NoFiles {
		res, err := invoke(ctx, nil)
		if err != nil {
			return 0, nil, err
		}
		return res.Code, append(res.Stdout, res.Stderr...), nil
	}

	batches, err := Partition(cmd, files, opts.Limits)
	if err != nil {
		return 0, nil, err
	}

	results := make([]Result, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.jobs())
	for i, batch := range batches {
		g.Go(func() error {
			res, err := invoke(gctx, batch)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, nil, err
	}

	code, out := Combine(results)
	return code, out, nil
}

// Combine ORs exit codes and concatenates stdout then stderr per result.
func Combine(results []Result) (int, []byte) {
	var (
		code int
		out  []byte
	)
	for _, r := range results {
		code |= r.Code
		out = append(out, r.Stdout...)
		out = append(out, r.Stderr...)
	}
	return code, out
}
