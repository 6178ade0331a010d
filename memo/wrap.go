package memo

import "context"

// Wrap1 memoizes a one-argument function. The returned function has the
// same signature and consults the cache before calling fn.
func Wrap1[A any, V any](c Cache[V], fn func(context.Context, A) (V, error)) func(context.Context, A) (V, error) {
	return func(ctx context.Context, a A) (V, error) {
		return c.GetOrCompute(ctx, Call{Args: []any{a}}, func(ctx context.Context) (V, error) {
			return fn(ctx, a)
		})
	}
}

// Wrap2 memoizes a two-argument function.
func Wrap2[A any, B any, V any](c Cache[V], fn func(context.Context, A, B) (V, error)) func(context.Context, A, B) (V, error) {
	return func(ctx context.Context, a A, b B) (V, error) {
		return c.GetOrCompute(ctx, Call{Args: []any{a, b}}, func(ctx context.Context) (V, error) {
			return fn(ctx, a, b)
		})
	}
}
