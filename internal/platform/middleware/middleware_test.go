package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"verifdesk/internal/platform/metrics"
	"verifdesk/pkg/requestcontext"
)

type MiddlewareSuite struct {
	suite.Suite
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func TestMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(MiddlewareSuite))
}

func (s *MiddlewareSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.metrics = metrics.New(prometheus.NewRegistry())
}

func (s *MiddlewareSuite) TestRequestID() {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
	}))

	s.Run("generates an id when absent", func() {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		s.NotEmpty(seen)
		s.Equal(seen, rec.Header().Get(RequestIDHeader))
	})

	s.Run("propagates inbound id", func() {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(RequestIDHeader, "req-42")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		s.Equal("req-42", seen)
		s.Equal("req-42", rec.Header().Get(RequestIDHeader))
	})
}

func (s *MiddlewareSuite) TestRecovery() {
	h := Recovery(s.logger, s.metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	s.Equal(http.StatusInternalServerError, rec.Code)
	s.JSONEq(`{"error":"internal_error"}`, rec.Body.String())
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.PanicsRecovered))
}

func (s *MiddlewareSuite) TestLoggerRecordsStatus() {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	r := httptest.NewRequest(http.MethodPost, "/controller/requests/VER-1/decision", nil)
	r = r.WithContext(requestcontext.WithReviewerID(r.Context(), "ctrl-1"))
	h.ServeHTTP(httptest.NewRecorder(), r)

	s.Contains(buf.String(), `"status":409`)
	s.Contains(buf.String(), `"reviewer_id":"ctrl-1"`)
}

func (s *MiddlewareSuite) TestTimeoutSetsDeadline() {
	var hasDeadline bool
	h := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	s.True(hasDeadline)
}

func (s *MiddlewareSuite) TestLatencyUsesRoutePattern() {
	r := chi.NewRouter()
	r.Use(LatencyMiddleware(s.metrics))
	r.Get("/controller/requests/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/controller/requests/VER-9", nil))

	count := testutil.ToFloat64(s.metrics.RequestsTotal.WithLabelValues(http.MethodGet, "/controller/requests/{id}", "404"))
	s.Equal(float64(1), count)
}
