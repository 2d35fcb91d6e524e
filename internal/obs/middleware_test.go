package obs

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestStatusRecorderCapturesStatusAndBytes(t *testing.T) {
	rec := NewStatusRecorder(httptest.NewRecorder())
	require.Equal(t, http.StatusOK, rec.Status())

	rec.WriteHeader(http.StatusTeapot)
	n, err := rec.Write([]byte("short and stout"))
	require.NoError(t, err)

	require.Equal(t, http.StatusTeapot, rec.Status())
	require.Equal(t, int64(n), rec.BytesWritten())
}

func TestRequestLoggerEmitsStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	h := RequestLogger{Logger: logger}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodDelete, "/cart/items/abc", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	line := buf.String()
	require.Contains(t, line, `"method":"DELETE"`)
	require.Contains(t, line, `"status":204`)
	require.Contains(t, line, `"path":"/cart/items/abc"`)
	require.Contains(t, line, "http_request")
}

func TestRoutePatternContext(t *testing.T) {
	ctx := WithRoutePattern(t.Context(), "/cart/items/{itemId}")
	require.Equal(t, "/cart/items/{itemId}", RoutePatternFromContext(ctx))
	require.Equal(t, "", RoutePatternFromContext(t.Context()))
}

func TestParseBucketsCSV(t *testing.T) {
	require.Nil(t, ParseBucketsCSV(""))
	require.Equal(t, []float64{5, 10, 25}, ParseBucketsCSV("5,10,25"))
	require.Empty(t, ParseBucketsCSV("a,b"))
}
