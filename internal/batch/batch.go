// Package batch applies a function to a list of inputs with a bounded number of workers.
package batch

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-pipeline-doc/pkg/pipeline/measure"
)

type options struct {
	concurrent int
	metric     measure.Metric
}

// Option configures Run.
type Option func(o *options)

// WithConcurrency sets the number of workers. Values below 1 mean one worker.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrent = n
	}
}

// WithMetric records the duration of every call to the processing function.
func WithMetric(m measure.Metric) Option {
	return func(o *options) {
		o.metric = m
	}
}

type item[I any] struct {
	idx int
	in  I
}

// Run calls fn once per input and returns the outputs in input order. The first error
// stops every worker and is returned together with the index of the failing input.
func Run[I any, O any](ctx context.Context, inputs []I, fn func(context.Context, I) (O, error), opts ...Option) ([]O, error) {
	o := &options{concurrent: 1}
	for _, opt := range opts {
		opt(o)
	}
	if o.concurrent < 1 {
		o.concurrent = 1
	}
	if o.concurrent > len(inputs) && len(inputs) > 0 {
		o.concurrent = len(inputs)
	}

	outputs := make([]O, len(inputs))

	errGrp, dCtx := errgroup.WithContext(ctx)
	feed := make(chan item[I])

	errGrp.Go(func() error {
		defer close(feed)
		for idx, in := range inputs {
			select {
			case <-dCtx.Done():
				return nil
			case feed <- item[I]{idx: idx, in: in}:
			}
		}
		return nil
	})

	// each consumer stops as soon as an error happens
	for goIdx := 0; goIdx < o.concurrent; goIdx++ {
		errGrp.Go(func() error {
			return consume(dCtx, goIdx, feed, outputs, fn, o.metric)
		})
	}

	err := errGrp.Wait()
	if err != nil {
		return nil, err
	}

	// the feeder gives up silently when the parent context is cancelled
	if ctx.Err() != nil {
		return nil, errors.Wrap(ctx.Err(), "batch interrupted")
	}

	return outputs, nil
}

func consume[I any, O any](ctx context.Context, goIdx int, feed <-chan item[I], outputs []O, fn func(context.Context, I) (O, error), metric measure.Metric) error {
	for {
		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "go routine %d", goIdx)
		case it, ok := <-feed:
			if !ok {
				return nil
			}

			start := time.Now()
			out, err := fn(ctx, it.in)
			if err != nil {
				return errors.Wrapf(err, "input %d", it.idx)
			}
			if metric != nil {
				metric.AddDuration(time.Since(start))
			}

			outputs[it.idx] = out
		}
	}
}
