package audit

import "context"

// Wrap1 is the typed declaration surface for single-argument operations:
// it returns fn instrumented per opts, with fn's signature preserved.
func Wrap1[A, R any](c *Capturer, opts Options, fn func(context.Context, A) (R, error)) func(context.Context, A) (R, error) {
	return func(ctx context.Context, a A) (R, error) {
		res, err := c.Do(ctx, opts, []any{a}, func(ctx context.Context) (any, error) {
			return fn(ctx, a)
		})
		return cast[R](res, err)
	}
}

// Wrap2 instruments a two-argument operation.
func Wrap2[A, B, R any](c *Capturer, opts Options, fn func(context.Context, A, B) (R, error)) func(context.Context, A, B) (R, error) {
	return func(ctx context.Context, a A, b B) (R, error) {
		res, err := c.Do(ctx, opts, []any{a, b}, func(ctx context.Context) (any, error) {
			return fn(ctx, a, b)
		})
		return cast[R](res, err)
	}
}

func cast[R any](res any, err error) (R, error) {
	var zero R
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	return res.(R), nil
}
