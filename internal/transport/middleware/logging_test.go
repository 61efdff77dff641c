package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/group-expenses/pkg/logger"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("RequestID", func() {
	serve := func(traceID string) (*httptest.ResponseRecorder, string) {
		var seen string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = logger.TraceID(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		if traceID != "" {
			req.Header.Set(TraceIDHeader, traceID)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec, seen
	}

	ginkgo.It("should keep a well-formed inbound trace id", func() {
		rec, seen := serve("checkout-42")
		gomega.Expect(seen).To(gomega.Equal("checkout-42"))
		gomega.Expect(rec.Header().Get(TraceIDHeader)).To(gomega.Equal("checkout-42"))
	})

	ginkgo.It("should replace a malformed or missing trace id", func() {
		_, seen := serve("bad id\nwith newline")
		gomega.Expect(seen).To(gomega.HaveLen(36))

		_, seen = serve("")
		gomega.Expect(seen).To(gomega.HaveLen(36))

		_, seen = serve(strings.Repeat("a", 65))
		gomega.Expect(seen).To(gomega.HaveLen(36))
	})
})

var _ = ginkgo.Describe("LoggingMiddleware", func() {
	var (
		out *bytes.Buffer
		lg  *slog.Logger
	)

	ginkgo.BeforeEach(func() {
		out = &bytes.Buffer{}
		lg = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	})

	ginkgo.It("should mask credentials at any depth and hand the body on untouched", func() {
		var received []byte
		h := LoggingMiddleware(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			received, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":401}}`))
		}))

		body := `{"email":"host@example.com","password":"hunter2","paymentMethod":{"token":"PA-123"}}`
		req := httptest.NewRequest(http.MethodPost, "/authenticate", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer abc")
		h.ServeHTTP(httptest.NewRecorder(), req)

		gomega.Expect(string(received)).To(gomega.Equal(body))
		gomega.Expect(out.String()).NotTo(gomega.ContainSubstring("hunter2"))
		gomega.Expect(out.String()).NotTo(gomega.ContainSubstring("PA-123"))
		gomega.Expect(out.String()).NotTo(gomega.ContainSubstring("Bearer abc"))
		gomega.Expect(out.String()).To(gomega.ContainSubstring("host@example.com"))

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		gomega.Expect(lines).To(gomega.HaveLen(2))

		var response map[string]interface{}
		gomega.Expect(json.Unmarshal([]byte(lines[1]), &response)).To(gomega.Succeed())
		gomega.Expect(response["level"]).To(gomega.Equal("WARN"))
		gomega.Expect(response["status_code"]).To(gomega.BeNumerically("==", 401))
	})

	ginkgo.It("should answer a panicking handler with a server error", func() {
		h := RecoveryMiddleware(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/groups/1/expenses", nil))
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusInternalServerError))
	})

	ginkgo.It("should stay quiet on probe paths", func() {
		h := LoggingMiddleware(lg, "/health")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
		gomega.Expect(out.Len()).To(gomega.BeZero())
	})
})
