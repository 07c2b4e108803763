package middleware

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RedactOptions extends the set of headers RedactingLogger masks outright.
type RedactOptions struct {
	MaskHeaders []string
}

// Headers masked regardless of options. Visitor addresses are stored on the
// click record already and have no business in access logs.
var defaultMaskedHeaders = []string{
	"Authorization",
	"Cookie",
	"Set-Cookie",
	"X-Forwarded-For",
	"X-Real-IP",
	"CF-Connecting-IP",
}

// scrubPatterns run in order. UUIDs go first so the loose phone pattern
// never eats their digit groups.
var scrubPatterns = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`), "[REDACTED:id]"},
	{regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`), "[REDACTED:email]"},
	{regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`), "[REDACTED:phone]"},
}

type scrubber struct {
	masked map[string]struct{}
}

func newScrubber(extra []string) scrubber {
	s := scrubber{masked: make(map[string]struct{}, len(defaultMaskedHeaders)+len(extra))}
	for _, h := range append(append([]string(nil), defaultMaskedHeaders...), extra...) {
		if h = strings.TrimSpace(h); h != "" {
			s.masked[http.CanonicalHeaderKey(h)] = struct{}{}
		}
	}
	return s
}

func (s scrubber) text(v string) string {
	for _, p := range scrubPatterns {
		if v == "" {
			break
		}
		v = p.re.ReplaceAllString(v, p.repl)
	}
	return v
}

func (s scrubber) headers(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if _, ok := s.masked[http.CanonicalHeaderKey(k)]; ok {
			out[k] = "[REDACTED]"
			continue
		}
		out[k] = s.text(strings.Join(vv, ", "))
	}
	return out
}

// RedactingLogger writes one access log line per request. Bodies are never
// logged; the query string and header values pass through the scrubber,
// and masked headers are replaced wholesale. 4xx log at warn, 5xx at error.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	s := newScrubber(opts.MaskHeaders)

	return func(c *gin.Context) {
		start := time.Now()
		// Captured before c.Next so handlers cannot alter what is logged.
		query := truncate(s.text(c.Request.URL.RawQuery), maxQueryLogLength)
		headers := s.headers(c.Request.Header)

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		rid := c.Writer.Header().Get(HeaderRequestID)
		if rid == "" {
			rid = c.GetHeader(HeaderRequestID)
		}

		var ev *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			ev = log.Error()
		case status >= http.StatusBadRequest:
			ev = log.Warn()
		default:
			ev = log.Info()
		}
		if id := c.Param("id"); id != "" {
			ev = ev.Str("link_id", id)
		}
		ev.Str("request_id", rid).
			Str("method", c.Request.Method).
			Str("path", route).
			Str("query", query).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}
