package api

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"tonflip/domain/entities"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	initdata "github.com/telegram-mini-apps/init-data-golang"
)

const authScheme = "tma "

// authMiddleware validates the Mini App launch data sent as "Authorization: tma <initData>"
// and stores the resulting Identity in the request context.
func authMiddleware(botToken string, maxAge time.Duration) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := authenticate(r.Header.Get("Authorization"), botToken, maxAge)
			if err != nil {
				log.WithFields(log.Fields{
					"path":   r.URL.Path,
					"remote": r.RemoteAddr,
					"error":  err,
				}).Debug("Rejected launch data")
				writeError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func authenticate(header, botToken string, maxAge time.Duration) (Identity, error) {
	if !strings.HasPrefix(header, authScheme) {
		return Identity{}, fmt.Errorf("%w: missing tma authorization", ErrUnauthorized)
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, authScheme))

	if err := initdata.Validate(raw, botToken, maxAge); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	data, err := initdata.Parse(raw)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if data.User.ID == 0 {
		return Identity{}, fmt.Errorf("%w: launch data has no user", ErrUnauthorized)
	}

	return Identity{
		User: entities.TelegramUser{
			ID:           data.User.ID,
			Username:     data.User.Username,
			FirstName:    data.User.FirstName,
			LastName:     data.User.LastName,
			LanguageCode: data.User.LanguageCode,
			PhotoURL:     data.User.PhotoURL,
		},
		StartParam: data.StartParam,
	}, nil
}

// recoveryMiddleware turns handler panics into 500 responses
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.WithFields(log.Fields{
					"method": r.Method,
					"path":   r.URL.Path,
					"panic":  rec,
					"stack":  string(debug.Stack()),
				}).Error("Recovered from handler panic")
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error", Code: "internal_error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *loggingResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets the live feed upgrade through the logging wrapper
func (w *loggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

// loggingMiddleware logs one line per request
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lw := &loggingResponseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lw, r)

		entry := log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   lw.status,
			"duration": time.Since(start).String(),
		})
		if lw.status >= http.StatusInternalServerError {
			entry.Warn("HTTP request")
			return
		}
		entry.Debug("HTTP request")
	})
}

// clientIP returns the remote host without its port
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
