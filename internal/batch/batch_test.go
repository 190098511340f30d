package batch_test

import (
	"context"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-pipeline-doc/internal/batch"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/measure"
)

var errBoom = errors.New("boom")

func TestRunKeepsOrder(t *testing.T) {
	t.Parallel()

	inputs := make([]int, 50)
	for i := range inputs {
		inputs[i] = i
	}

	tcs := map[string]int{
		"sequential":       1,
		"zero workers":     0,
		"concurrent":       8,
		"more than inputs": 100,
	}

	for name, concurrency := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			out, err := batch.Run(context.Background(), inputs, func(_ context.Context, in int) (string, error) {
				// later inputs finish first
				time.Sleep(time.Duration(len(inputs)-in) * 10 * time.Microsecond)
				return strconv.Itoa(in * 2), nil
			}, batch.WithConcurrency(concurrency))
			require.NoError(t, err)
			require.Len(t, out, len(inputs))
			for i, o := range out {
				assert.Equal(t, strconv.Itoa(i*2), o)
			}
		})
	}
}

func TestRunStopsOnFirstError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	inputs := make([]int, 1000)
	for i := range inputs {
		inputs[i] = i
	}

	out, err := batch.Run(context.Background(), inputs, func(ctx context.Context, in int) (int, error) {
		calls.Add(1)
		if in == 3 {
			return 0, errBoom
		}
		select {
		case <-ctx.Done():
		case <-time.After(time.Millisecond):
		}
		return in, nil
	}, batch.WithConcurrency(4))

	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "input 3")
	assert.Nil(t, out)
	assert.Less(t, calls.Load(), int64(len(inputs)))
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := batch.Run(ctx, []int{1, 2, 3}, func(_ context.Context, in int) (int, error) {
		return in, nil
	}, batch.WithConcurrency(2))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunEmpty(t *testing.T) {
	t.Parallel()

	out, err := batch.Run(context.Background(), nil, func(_ context.Context, in int) (int, error) {
		return in, nil
	})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRunMetric(t *testing.T) {
	t.Parallel()

	m := measure.NewDefaultMeasure()
	metric := m.AddMetric("convert")

	_, err := batch.Run(context.Background(), []string{"a", "b", "c"}, func(_ context.Context, in string) (string, error) {
		return in, nil
	}, batch.WithConcurrency(2), batch.WithMetric(metric))
	require.NoError(t, err)
	assert.Equal(t, int64(3), metric.Count())
}
