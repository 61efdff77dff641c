package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/group-expenses/pkg/logger"
)

const (
	redacted = "[FILTERED]"
	// maxLoggedBody caps how much of a body is echoed into a log line.
	maxLoggedBody = 4 << 10
)

// redactedKeys are matched case-insensitively against JSON keys and header names.
var redactedKeys = map[string]struct{}{
	"authorization":      {},
	"cookie":             {},
	"set-cookie":         {},
	"password":           {},
	"password_hash":      {},
	"access_token":       {},
	"refresh_token":      {},
	"refresh_token_hash": {},
	"token":              {},
	"client_secret":      {},
	"preapprovalkey":     {},
	"paymentresponse":    {},
}

func isRedacted(key string) bool {
	_, ok := redactedKeys[strings.ToLower(key)]
	return ok
}

// LoggingMiddleware logs each request at debug and each response at a level
// that follows its status. Paths in quiet (probes, scrapes) are not logged.
func LoggingMiddleware(lg *slog.Logger, quiet ...string) func(next http.Handler) http.Handler {
	skip := make(map[string]struct{}, len(quiet))
	for _, p := range quiet {
		skip[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			reqLogger := logger.From(r.Context())
			if lg != nil {
				reqLogger = lg.With("traceID", logger.TraceID(r.Context()))
			}

			reqLogger.Debug("incoming request",
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"remote_addr", r.RemoteAddr,
				"headers", redactHeaders(r.Header),
				"body", redactBody(peekBody(r)),
			)

			rec := &recordingWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			level := slog.LevelInfo
			switch {
			case rec.status >= 500:
				level = slog.LevelError
			case rec.status >= 400:
				level = slog.LevelWarn
			}

			reqLogger.Log(r.Context(), level, "response",
				"method", r.Method,
				"path", r.URL.Path,
				"status_code", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"response_size", rec.size,
				"body", redactBody(rec.body.Bytes()),
			)
		})
	}
}

// recordingWriter keeps the status, the size and the first maxLoggedBody bytes.
type recordingWriter struct {
	http.ResponseWriter
	status      int
	size        int
	wroteHeader bool
	body        bytes.Buffer
}

func (rw *recordingWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recordingWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	if room := maxLoggedBody - rw.body.Len(); room > 0 {
		if len(b) < room {
			room = len(b)
		}
		rw.body.Write(b[:room])
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// peekBody reads the request body and puts it back for the handler.
func peekBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body
}

func redactHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for name, values := range headers {
		if isRedacted(name) {
			out[name] = redacted
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

// redactBody masks redacted keys at any depth of a JSON body. Bodies that are
// not JSON, or were cut at maxLoggedBody, are logged only by size.
func redactBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > maxLoggedBody {
		body = body[:maxLoggedBody]
	}

	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return "[non-JSON body, " + strconv.Itoa(len(body)) + " bytes]"
	}

	out, err := json.Marshal(redactValue(data))
	if err != nil {
		return redacted
	}
	return string(out)
}

func redactValue(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		for key, value := range v {
			if isRedacted(key) {
				v[key] = redacted
				continue
			}
			v[key] = redactValue(value)
		}
		return v
	case []interface{}:
		for i, item := range v {
			v[i] = redactValue(item)
		}
		return v
	default:
		return v
	}
}
