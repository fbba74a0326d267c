package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func withSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return recorder
}

func TestTracingRecordsRequestSpan(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := withSpanRecorder(t)

	sawSpan := false
	router := gin.New()
	router.Use(Tracing())
	router.GET("/posts/:id", func(c *gin.Context) {
		sawSpan = trace.SpanFromContext(c.Request.Context()).SpanContext().IsValid()
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/posts/post-1", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, sawSpan, "handler context should carry the request span")

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, "GET /posts/:id", spans[0].Name())
	require.Contains(t, spans[0].Attributes(), attribute.String("http.route", "/posts/:id"))
	require.Contains(t, spans[0].Attributes(), attribute.Int("http.status_code", http.StatusOK))
	require.NotEqual(t, codes.Error, spans[0].Status().Code)
}

func TestTracingMarksServerErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := withSpanRecorder(t)

	router := gin.New()
	router.Use(Tracing())
	router.GET("/boom", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, codes.Error, spans[0].Status().Code)
	require.Contains(t, spans[0].Attributes(), attribute.Int("http.status_code", http.StatusInternalServerError))
}
