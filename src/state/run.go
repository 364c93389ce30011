package state

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run executes fn as a tracked request under key. The slice moves to
// PENDING, then to SUCCESS with the returned value or to FAILURE with the
// error, and the in-flight marker is cleared however fn ends. A panic in fn
// is turned into an error.
func Run[T any](ctx context.Context, store *Store, key string, fn func(ctx context.Context) (T, error)) (result T, err error) {
	requestID := uuid.NewString()
	log := store.log.With().Str("key", key).Str("request_id", requestID).Logger()
	ctx = context.WithValue(log.WithContext(ctx), requestIDKey{}, requestID)
	started := time.Now()

	if _, derr := store.Dispatch(ctx, key, Started{RequestID: requestID}); derr != nil {
		log.Warn().Err(derr).Msg("failed to record request start")
	}

	defer func() {
		if _, derr := store.Dispatch(context.WithoutCancel(ctx), key, Finished{RequestID: requestID}); derr != nil {
			log.Warn().Err(derr).Msg("failed to record request finish")
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("request %s panicked: %v", key, r)
		}
		if err != nil {
			var zero T
			result = zero
			log.Error().Err(err).Dur("elapsed", time.Since(started)).Msg("request failed")
			if _, derr := store.Dispatch(context.WithoutCancel(ctx), key, Failed{RequestID: requestID, Err: err}); derr != nil {
				log.Warn().Err(derr).Msg("failed to record request failure")
			}
			return
		}
		if _, derr := store.Dispatch(context.WithoutCancel(ctx), key, Succeeded{RequestID: requestID, Value: result}); derr != nil {
			log.Warn().Err(derr).Msg("failed to record request result")
		}
		log.Info().Dur("elapsed", time.Since(started)).Msg("request succeeded")
	}()

	return fn(ctx)
}

type requestIDKey struct{}

// RequestID returns the id Run assigned to the request in ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
