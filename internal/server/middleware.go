// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ============================================================================
// Rate Limiting
// ============================================================================

// RateLimiter hands out one token bucket per client IP.
type RateLimiter struct {
	// limiters maps client IPs to their buckets.
	limiters map[string]*visitor

	limit rate.Limit
	burst int

	// idle is how long an unused bucket is kept.
	idle time.Duration

	// mu protects concurrent access to the limiters map.
	mu sync.Mutex
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing perSecond requests per IP with
// the given burst. perSecond <= 0 disables limiting.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*visitor),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		idle:     10 * time.Minute,
	}
}

// Allow reports whether a request from ip may proceed now.
func (rl *RateLimiter) Allow(ip string) bool {
	if rl.limit <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	v, ok := rl.limiters[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Interval is the time it takes to earn one request back.
func (rl *RateLimiter) Interval() time.Duration {
	if rl.limit <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / float64(rl.limit))
}

// Cleanup drops buckets that have not been used recently.
func (rl *RateLimiter) Cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.idle)
	removed := 0
	for ip, v := range rl.limiters {
		if v.lastSeen.Before(cutoff) {
			delete(rl.limiters, ip)
			removed++
		}
	}
	return removed
}

// RateLimitMiddleware rejects requests over the per-IP rate with 429.
// It expects middleware.RealIP to have run first.
func RateLimitMiddleware(limiter *RateLimiter, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !limiter.Allow(ip) {
				log.WithFields(logrus.Fields{
					"request_id": middleware.GetReqID(r.Context()),
					"remote":     ip,
				}).Warn("rate limit exceeded")
				w.Header().Set("Retry-After", retryAfter(limiter.Interval()))
				http.Error(w, "Too many requests, please slow down.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ============================================================================
// Request Logging
// ============================================================================

// LoggingMiddleware logs one line per request with its status and timing.
func LoggingMiddleware(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap the response writer to capture status code
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			entry := log.WithFields(logrus.Fields{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     status,
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).Round(time.Millisecond).String(),
				"remote":     clientIP(r),
			})
			if status >= http.StatusInternalServerError {
				entry.Warn("request")
			} else {
				entry.Info("request")
			}
		})
	}
}

// ============================================================================
// Panic Recovery
// ============================================================================

// RecoveryMiddleware turns a panic in a handler into a logged 500.
func RecoveryMiddleware(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.WithFields(logrus.Fields{
						"request_id": middleware.GetReqID(r.Context()),
						"method":     r.Method,
						"path":       r.URL.Path,
						"panic":      rec,
						"stack":      string(debug.Stack()),
					}).Error("panic recovered")
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// ============================================================================
// Security Headers
// ============================================================================

// SecurityHeadersMiddleware sets conservative headers on every response.
// The page only loads its own stylesheet.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()

			// Prevent MIME type sniffing
			h.Set("X-Content-Type-Options", "nosniff")

			// Prevent clickjacking
			h.Set("X-Frame-Options", "DENY")

			h.Set("Content-Security-Policy", "default-src 'self'; form-action 'self'; frame-ancestors 'none'")

			// Transcripts are per-session; never cache them
			h.Set("Cache-Control", "no-store")

			h.Set("Referrer-Policy", "same-origin")

			next.ServeHTTP(w, r)
		})
	}
}

// retryAfter formats a duration for the Retry-After header.
func retryAfter(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
