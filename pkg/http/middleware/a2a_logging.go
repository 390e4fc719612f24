package middleware

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"time"

	applogger "TradeCouncil/pkg/logger"
	"TradeCouncil/pkg/util"

	"github.com/labstack/echo/v4"
)

const (
	requestPreviewLen  = 200
	responsePreviewLen = 2000
	methodMessageSend  = "message/send"

	// DefaultMaxBodyBytes caps how much of a request body is buffered.
	DefaultMaxBodyBytes = 1 << 20
)

// A2ALoggingConfig configures A2ALogging.
type A2ALoggingConfig struct {
	// Paths whose POST bodies are inspected. Defaults to "/" and "/adk".
	Paths []string
	// MaxBodyBytes bounds the buffered body. The handler sees the same
	// prefix it would read with an equal cap. Defaults to DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

type rpcProbe struct {
	ID     interface{} `json:"id"`
	Method string      `json:"method"`
	Params struct {
		Message struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"message"`
	} `json:"params"`
}

// A2ALogging logs inbound JSON-RPC exchanges without altering them. The
// request body is replayed to the handler unchanged. For message/send the
// response body is mirrored into a buffer and logged after the handler
// returns; other methods only get a completion line since they may stream.
func A2ALogging(l *applogger.Logger, cfg A2ALoggingConfig) echo.MiddlewareFunc {
	paths := cfg.Paths
	if len(paths) == 0 {
		paths = []string{"/", "/adk"}
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	watched := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		watched[p] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodPost {
				return next(c)
			}
			if _, ok := watched[req.URL.Path]; !ok {
				return next(c)
			}

			body, err := io.ReadAll(io.LimitReader(req.Body, maxBody))
			_ = req.Body.Close()
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
			}
			req.Body = io.NopCloser(bytes.NewReader(body))

			var probe rpcProbe
			_ = json.Unmarshal(body, &probe)

			var text string
			if parts := probe.Params.Message.Parts; len(parts) > 0 {
				text = parts[0].Text
			}
			requestID := idString(probe.ID)

			l.Info("a2a request",
				applogger.String("method", probe.Method),
				applogger.String("message_preview", util.Preview(text, requestPreviewLen)),
				applogger.String("request_id", requestID),
			)

			start := time.Now()

			if probe.Method != methodMessageSend {
				err := next(c)
				l.Info("a2a call complete",
					applogger.String("method", probe.Method),
					applogger.String("request_id", requestID),
					applogger.Duration("duration_ms", time.Since(start)),
				)
				return err
			}

			res := c.Response()
			rec := &bodyRecorder{ResponseWriter: res.Writer}
			res.Writer = rec
			err = next(c)
			res.Writer = rec.ResponseWriter

			captured := rec.buf.String()
			l.Info("a2a response",
				applogger.String("request_id", requestID),
				applogger.Int("status", res.Status),
				applogger.Duration("duration_ms", time.Since(start)),
				applogger.Int("response_length", len(captured)),
				applogger.String("response_preview", util.Preview(captured, responsePreviewLen)),
			)
			return err
		}
	}
}

func idString(id interface{}) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

type bodyRecorder struct {
	http.ResponseWriter
	buf bytes.Buffer
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *bodyRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *bodyRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return http.NewResponseController(r.ResponseWriter).Hijack()
}
