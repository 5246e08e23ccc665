package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	HeaderRequestID = "Ax-Request-Id"
	HeaderRequestAt = "Ax-Request-At"

	pendingTTL   = 60 * time.Second
	storeTimeout = 2 * time.Second
	maxClockSkew = 10 * time.Minute
)

// captureWriter tees the response so it can be stored for replay.
type captureWriter struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (w *captureWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// validRequestID accepts a lowercase canonical UUID or 32 lowercase hex chars.
func validRequestID(id string) bool {
	if reHex32.MatchString(id) {
		return true
	}
	u, err := uuid.Parse(id)
	return err == nil && u.String() == id && u.Version() >= 1 && u.Version() <= 5
}

// parseRequestAt takes epoch seconds, epoch milliseconds or an RFC 3339 time
// carrying a zone. Zone-less local times are refused.
func parseRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing " + HeaderRequestAt)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.New(HeaderRequestAt + " must be epoch seconds, epoch milliseconds or RFC 3339 with a zone")
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
}

// Idempotency makes mutating requests safe to retry. It must run after Actor.
// A request id is bound to its body: a replay with the same body gets the
// stored response, a different body is refused. Server errors free the id.
func Idempotency(rdb redis.Cmdable, ttl time.Duration, log *zap.Logger) echo.MiddlewareFunc {
	store := &responseStore{rdb: rdb, pendingTTL: pendingTTL, ttl: ttl}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			reqID := strings.TrimSpace(req.Header.Get(HeaderRequestID))
			if reqID == "" {
				return badRequest(c, "missing "+HeaderRequestID)
			}
			if !validRequestID(reqID) {
				return badRequest(c, "invalid "+HeaderRequestID)
			}
			reqAt, err := parseRequestAt(req.Header.Get(HeaderRequestAt))
			if err != nil {
				return badRequest(c, err.Error())
			}
			if skew := time.Since(reqAt); skew > maxClockSkew || skew < -maxClockSkew {
				return badRequest(c, HeaderRequestAt+" is outside the accepted clock skew")
			}

			var body []byte
			if req.Body != nil {
				if body, err = io.ReadAll(req.Body); err != nil {
					return badRequest(c, "unreadable body")
				}
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			fp := fingerprint(body)

			key := responseKey(req.Method, c.Path(), ActorID(c), reqID)
			ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
			defer cancel()

			fresh, err := store.reserve(ctx, key, storedResponse{Fingerprint: fp, RequestAt: reqAt, StoredAt: time.Now().UTC()})
			if err != nil {
				log.Error("idempotency store unavailable", zap.String("key", key), zap.Error(err))
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "idempotency store unavailable"})
			}
			if !fresh {
				prev, err := store.lookup(ctx, key)
				if err != nil {
					log.Warn("idempotency lookup failed", zap.String("key", key), zap.Error(err))
				}
				if prev.Fingerprint != "" && prev.Fingerprint != fp {
					return c.JSON(http.StatusConflict, map[string]string{"error": HeaderRequestID + " reused with a different body"})
				}
				if prev.replayable() {
					c.Response().Header().Set("Idempotent-Replayed", "true")
					return c.Blob(prev.Status, prev.ContentType, prev.Body)
				}
				return c.JSON(http.StatusConflict, map[string]string{"error": "request is already in progress"})
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = cw
			if err := next(c); err != nil {
				c.Error(err)
			}

			// the client may have gone away; the outcome must still be recorded
			bg, cancelBg := context.WithTimeout(context.WithoutCancel(req.Context()), storeTimeout)
			defer cancelBg()
			if cw.status >= http.StatusInternalServerError {
				if err := store.release(bg, key); err != nil {
					log.Warn("idempotency release failed", zap.String("key", key), zap.Error(err))
				}
				return nil
			}
			err = store.complete(bg, key, storedResponse{
				Fingerprint: fp,
				Status:      cw.status,
				ContentType: cw.Header().Get(echo.HeaderContentType),
				Body:        cw.body.Bytes(),
				RequestAt:   reqAt,
				StoredAt:    time.Now().UTC(),
			})
			if err != nil {
				log.Warn("idempotency save failed", zap.String("key", key), zap.Error(err))
			}
			return nil
		}
	}
}
