package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"smart-bus/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	ReplayedHeader    = "Idempotent-Replayed"

	idempotencyInFlight = "PROCESSING"
	inFlightTTL         = 10 * time.Second
	storedResponseTTL   = 24 * time.Hour
)

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// captureWriter tees the response so it can be stored.
type captureWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (c *captureWriter) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *captureWriter) Write(b []byte) (int, error) {
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

// Idempotency replays the stored response for a repeated Idempotency-Key
// from the same caller. Keys are claimed with SETNX; a request that arrives
// while the first is still running gets 409. Server errors are not stored,
// so the client may retry them. A nil client disables the middleware.
func Idempotency(rdb *redis.Client, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rdb == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(IdempotencyHeader)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > 128 {
				utils.ResponseBadRequest(w, "Idempotency-Key is too long", nil)
				return
			}

			caller := "anonymous"
			if id, ok := utils.GetIdentity(r.Context()); ok {
				caller = id.HolderID.String()
			}
			redisKey := "idempotency:" + caller + ":" + r.Method + ":" + r.URL.Path + ":" + key
			ctx := r.Context()

			val, err := rdb.Get(ctx, redisKey).Result()
			switch {
			case err == nil && val == idempotencyInFlight:
				utils.ResponseConflict(w, "A request with this Idempotency-Key is still in progress", nil)
				return
			case err == nil:
				var stored storedResponse
				if jsonErr := json.Unmarshal([]byte(val), &stored); jsonErr == nil {
					w.Header().Set("Content-Type", stored.ContentType)
					w.Header().Set(ReplayedHeader, "true")
					w.WriteHeader(stored.Status)
					_, _ = w.Write(stored.Body)
					return
				}
				logger.Warn("Discarding unreadable idempotency record", zap.String("key", redisKey))
				_ = rdb.Del(ctx, redisKey).Err()
			case !errors.Is(err, redis.Nil):
				logger.Error("Idempotency lookup failed", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			acquired, err := rdb.SetNX(ctx, redisKey, idempotencyInFlight, inFlightTTL).Result()
			if err != nil {
				logger.Error("Idempotency claim failed", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !acquired {
				utils.ResponseConflict(w, "A request with this Idempotency-Key is still in progress", nil)
				return
			}

			cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(cw, r)

			// the outcome is recorded even if the client has gone away
			ctx = context.WithoutCancel(ctx)
			if cw.status >= http.StatusInternalServerError {
				_ = rdb.Del(ctx, redisKey).Err()
				return
			}

			raw, _ := json.Marshal(storedResponse{
				Status:      cw.status,
				ContentType: cw.Header().Get("Content-Type"),
				Body:        cw.body.Bytes(),
			})
			if err := rdb.Set(ctx, redisKey, raw, storedResponseTTL).Err(); err != nil {
				logger.Error("Failed to store idempotent response", zap.Error(err), zap.String("key", redisKey))
			}
		})
	}
}
