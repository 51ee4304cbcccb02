package xargs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileList(n int) []string {
	files := make([]string, n)
	for i := range files {
		files[i] = fmt.Sprintf("src/file%03d.go", i)
	}
	return files
}

func TestPartitionMaxArgs(t *testing.T) {
	batches, err := Partition([]string{"lint"}, fileList(250), Limits{MaxLength: 1 << 20, MaxArgs: 100})
	require.NoError(t, err)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 100)
	assert.Len(t, batches[1], 100)
	assert.Len(t, batches[2], 50)
	assert.Equal(t, "src/file100.go", batches[1][0], "batches are consecutive")
}

func TestPartitionMaxLength(t *testing.T) {
	cmd := []string{"tool", "--check"}
	files := fileList(40)
	limit := 100

	batches, err := Partition(cmd, files, Limits{MaxLength: limit})
	require.NoError(t, err)

	var flat []string
	for _, b := range batches {
		line := strings.Join(append(append([]string{}, cmd...), b...), " ")
		assert.LessOrEqual(t, len(line)+1, limit)
		flat = append(flat, b...)
	}
	assert.Equal(t, files, flat)
}

func TestPartitionEmpty(t *testing.T) {
	batches, err := Partition([]string{"tool"}, nil, Limits{})
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestPartitionArgumentTooLong(t *testing.T) {
	_, err := Partition([]string{"tool"}, []string{"ok", strings.Repeat("x", 200)}, Limits{MaxLength: 64})
	assert.ErrorIs(t, err, ErrArgumentTooLong)

	_, err = Partition([]string{strings.Repeat("y", 100)}, nil, Limits{MaxLength: 64})
	assert.ErrorIs(t, err, ErrArgumentTooLong)
}

func TestDefaultMaxLength(t *testing.T) {
	n := DefaultMaxLength()
	assert.GreaterOrEqual(t, n, 4096)
	assert.LessOrEqual(t, n, 1<<17)
}

func TestRunCombinesInSubmissionOrder(t *testing.T) {
	codes := []int{0, 1, 0}
	var calls atomic.Int32
	invoke := func(_ context.Context, batch []string) (Result, error) {
		calls.Add(1)
		idx := 0
		switch batch[0] {
		case "src/file100.go":
			idx = 1
		case "src/file200.go":
			idx = 2
		}
		return Result{
			Code:   codes[idx],
			Stdout: []byte(fmt.Sprintf("out%d;", idx)),
			Stderr: []byte(fmt.Sprintf("err%d;", idx)),
		}, nil
	}

	code, out, err := Run(context.Background(), []string{"lint"}, fileList(250),
		Options{Limits: Limits{MaxArgs: 100}, Jobs: 3}, invoke)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 1, code)
	assert.Equal(t, "out0;err0;out1;err1;out2;err2;", string(out))
}

func TestRunExitCodeIndependentOfBatchSize(t *testing.T) {
	// Each file maps to a fixed bit; combining is an OR regardless of boundaries.
	bit := func(f string) int {
		if strings.HasSuffix(f, "7.go") {
			return 4
		}
		return 0
	}
	invoke := func(_ context.Context, batch []string) (Result, error) {
		code := 0
		for _, f := range batch {
			code |= bit(f)
		}
		return Result{Code: code}, nil
	}

	for _, maxArgs := range []int{1, 3, 10, 0} {
		code, _, err := Run(context.Background(), []string{"x"}, fileList(30),
			Options{Limits: Limits{MaxArgs: maxArgs}}, invoke)
		require.NoError(t, err)
		assert.Equal(t, 4, code, "max args %d", maxArgs)
	}
}

func TestRunInvokeErrorAborts(t *testing.T) {
	boom := errors.New("exec: not found")
	var canceled atomic.Int32
	invoke := func(ctx context.Context, batch []string) (Result, error) {
		if batch[0] == "src/file000.go" {
			return Result{}, boom
		}
		<-ctx.Done()
		canceled.Add(1)
		return Result{}, ctx.Err()
	}

	_, _, err := Run(context.Background(), []string{"x"}, fileList(4),
		Options{Limits: Limits{MaxArgs: 1}, Jobs: 4}, invoke)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(3), canceled.Load())
}

func TestRunNoFilesInvokesOnce(t *testing.T) {
	var got [][]string
	invoke := func(_ context.Context, batch []string) (Result, error) {
		got = append(got, batch)
		return Result{Code: 2, Stdout: []byte("a"), Stderr: []byte("b")}, nil
	}

	code, out, err := Run(context.Background(), []string{"x"}, fileList(500), Options{NoFiles: true}, invoke)
	require.NoError(t, err)
	assert.Equal(t, 2, code)
	assert.Equal(t, "ab", string(out))
	require.Len(t, got, 1)
	assert.Empty(t, got[0])
}

func TestRunSerial(t *testing.T) {
	var (
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	invoke := func(_ context.Context, _ []string) (Result, error) {
		mu.Lock()
		active++
		if active > maxSeen {
			maxSeen = active
		}
		mu.Unlock()

		mu.Lock()
		active--
		mu.Unlock()
		return Result{}, nil
	}

	_, _, err := Run(context.Background(), []string{"x"}, fileList(20),
		Options{Limits: Limits{MaxArgs: 1}, Jobs: 8, Serial: true}, invoke)
	require.NoError(t, err)
	assert.Equal(t, 1, maxSeen)
}

func TestCombine(t *testing.T) {
	code, out := Combine([]Result{
		{Code: 1, Stdout: []byte("a")},
		{Code: 2, Stderr: []byte("b")},
		{Code: 0, Stdout: []byte("c"), Stderr: []byte("d")},
	})
	assert.Equal(t, 3, code)
	assert.Equal(t, "abcd", string(out))
}
