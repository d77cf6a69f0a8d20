package session

import "context"

// RetryOnce runs call, and if it fails with an error accepted by retryable,
// runs refresh once and then call exactly one more time. The second result
// is final. A failing refresh aborts with refresh's error.
func RetryOnce(
	ctx context.Context,
	call func(context.Context) error,
	refresh func(context.Context, error) error,
	retryable func(error) bool,
) error {
	err := call(ctx)
	if err == nil || !retryable(err) {
		return err
	}
	if ctx.Err() != nil {
		return err
	}
	if rerr := refresh(ctx, err); rerr != nil {
		return rerr
	}
	return call(ctx)
}
