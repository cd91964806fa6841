package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyHeader      = "Idempotency-Key"
	idempotencyTTL         = 24 * time.Hour
	idempotencyInFlightTTL = 30 * time.Second
)

// storedResponse is the replayable part of a completed response.
type storedResponse struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// capturingWriter tees the response body so it can be stored after the handler runs.
type capturingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware replays the stored response for a repeated
// Idempotency-Key on mutating requests. Keys are scoped to the actor, method
// and route, so it must run after AuthMiddleware. A key whose first request is
// still running gets 409.
func IdempotencyMiddleware(client *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(idempotencyHeader)
		if client == nil || key == "" || !mutating(c.Request.Method) {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := idempotencyCacheKey(c, key)

		stored, err := loadResponse(ctx, client, cacheKey)
		switch {
		case err == nil:
			c.Data(stored.StatusCode, stored.ContentType, stored.Body)
			c.Abort()
			return
		case !errors.Is(err, redis.Nil):
			// Redis unavailable: serve the request without replay protection.
			c.Next()
			return
		}

		reserved, err := client.SetNX(ctx, cacheKey+":inflight", 1, idempotencyInFlightTTL).Result()
		if err != nil {
			c.Next()
			return
		}
		if !reserved {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "a request with this idempotency key is in progress"})
			return
		}
		defer client.Del(context.WithoutCancel(ctx), cacheKey+":inflight")

		w := &capturingWriter{ResponseWriter: c.Writer}
		c.Writer = w

		c.Next()

		// Server errors are not stored so the client can retry.
		if status := w.Status(); status < http.StatusInternalServerError {
			_ = storeResponse(context.WithoutCancel(ctx), client, cacheKey, storedResponse{
				StatusCode:  status,
				ContentType: w.Header().Get("Content-Type"),
				Body:        w.body.Bytes(),
			})
		}
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func idempotencyCacheKey(c *gin.Context, key string) string {
	subject := "anonymous"
	if actor, ok := ActorFrom(c); ok {
		subject = actor.ID
	}
	return "idempotency:" + subject + ":" + c.Request.Method + ":" + c.FullPath() + ":" + key
}

func loadResponse(ctx context.Context, client *redis.Client, key string) (*storedResponse, error) {
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}

	var stored storedResponse
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}

	return &stored, nil
}

func storeResponse(ctx context.Context, client *redis.Client, key string, resp storedResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	return client.Set(ctx, key, data, idempotencyTTL).Err()
}
