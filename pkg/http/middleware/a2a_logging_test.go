package middleware

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	applogger "TradeCouncil/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) (*applogger.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := applogger.New(&applogger.Config{Level: "debug", Format: "json", Writer: &buf})
	require.NoError(t, err)
	return l, &buf
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	sc := bufio.NewScanner(buf)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		out = append(out, m)
	}
	return out
}

func rpcBody(method, text string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      "abcd1234",
		"method":  method,
		"params": map[string]interface{}{
			"message": map[string]interface{}{
				"messageId": "m-abcd1234",
				"role":      "user",
				"parts":     []map[string]string{{"kind": "text", "text": text}},
			},
		},
	})
	return string(b)
}

func TestA2ALoggingMessageSend(t *testing.T) {
	l, buf := newTestLogger(t)
	e := echo.New()
	e.Use(A2ALogging(l, A2ALoggingConfig{}))

	var seen string
	reply := strings.Repeat("r", 2500)
	e.POST("/", func(c echo.Context) error {
		b, _ := io.ReadAll(c.Request().Body)
		seen = string(b)
		return c.String(http.StatusOK, reply)
	})

	body := rpcBody("message/send", strings.Repeat("q", 300))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, body, seen, "handler must see the original body")
	assert.Equal(t, reply, rec.Body.String(), "response must be unchanged")

	lines := logLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "a2a request", lines[0]["message"])
	assert.Equal(t, "message/send", lines[0]["method"])
	assert.Equal(t, "abcd1234", lines[0]["request_id"])
	assert.Len(t, lines[0]["message_preview"], 200)

	assert.Equal(t, "a2a response", lines[1]["message"])
	assert.EqualValues(t, 200, lines[1]["status"])
	assert.EqualValues(t, 2500, lines[1]["response_length"])
	assert.Len(t, lines[1]["response_preview"], 2000)
	assert.Contains(t, lines[1], "duration_ms")
}

func TestA2ALoggingOtherMethodPassesThrough(t *testing.T) {
	l, buf := newTestLogger(t)
	e := echo.New()
	e.Use(A2ALogging(l, A2ALoggingConfig{}))
	e.POST("/adk", func(c echo.Context) error {
		return c.String(http.StatusOK, "data: chunk\n\n")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/adk", strings.NewReader(rpcBody("message/stream", "hi"))))

	assert.Equal(t, "data: chunk\n\n", rec.Body.String())
	lines := logLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "a2a request", lines[0]["message"])
	assert.Equal(t, "a2a call complete", lines[1]["message"])
	assert.Equal(t, "message/stream", lines[1]["method"])
}

func TestA2ALoggingIgnoresOtherRoutes(t *testing.T) {
	l, buf := newTestLogger(t)
	e := echo.New()
	e.Use(A2ALogging(l, A2ALoggingConfig{}))
	e.POST("/reload", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/reload", nil))
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, buf.String())
}

func TestA2ALoggingToleratesInvalidJSON(t *testing.T) {
	l, buf := newTestLogger(t)
	e := echo.New()
	e.Use(A2ALogging(l, A2ALoggingConfig{}))
	e.POST("/", func(c echo.Context) error {
		b, _ := io.ReadAll(c.Request().Body)
		return c.String(http.StatusBadRequest, string(b))
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json")))
	assert.Equal(t, "{not json", rec.Body.String())
	assert.Contains(t, buf.String(), "a2a request")
}

type countingReader struct {
	remaining int
	read      int
}

func (r *countingReader) Read(p []byte) (int, error) {
	if r.remaining == 0 {
		return 0, io.EOF
	}
	n := len(p)
	if n > r.remaining {
		n = r.remaining
	}
	for i := 0; i < n; i++ {
		p[i] = 'x'
	}
	r.remaining -= n
	r.read += n
	return n, nil
}

func TestA2ALoggingCapsBufferedBody(t *testing.T) {
	l, _ := newTestLogger(t)
	e := echo.New()
	e.Use(A2ALogging(l, A2ALoggingConfig{MaxBodyBytes: 1024}))

	var seen int
	e.POST("/", func(c echo.Context) error {
		b, _ := io.ReadAll(c.Request().Body)
		seen = len(b)
		return c.NoContent(http.StatusOK)
	})

	src := &countingReader{remaining: 64 * 1024}
	req := httptest.NewRequest(http.MethodPost, "/", src)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1024, seen)
	assert.LessOrEqual(t, src.read, 1024+512)
}
