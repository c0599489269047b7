package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
)

// CompressionMiddleware gzips responses for clients that accept it. Paths in
// skipPaths are passed through untouched.
func CompressionMiddleware(skipPaths ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") || shouldSkipCompression(c, skipPaths) {
			c.Next()
			return
		}

		gz, err := gzip.NewWriterLevel(c.Writer, gzip.DefaultCompression)
		if err != nil {
			c.Next()
			return
		}

		c.Header("Content-Encoding", "gzip")
		c.Header("Vary", "Accept-Encoding")

		gw := &gzipWriter{ResponseWriter: c.Writer, writer: gz}
		c.Writer = gw
		defer func() {
			if !gw.written {
				// An empty body must not be declared as gzip.
				gw.Header().Del("Content-Encoding")
				gw.Header().Del("Vary")
				return
			}
			_ = gz.Close()
		}()

		c.Next()
	}
}

// gzipWriter wraps gin.ResponseWriter with gzip compression
type gzipWriter struct {
	gin.ResponseWriter
	writer  *gzip.Writer
	written bool
}

func (g *gzipWriter) WriteHeader(code int) {
	g.Header().Del("Content-Length")
	g.ResponseWriter.WriteHeader(code)
}

func (g *gzipWriter) Write(data []byte) (int, error) {
	g.Header().Del("Content-Length")
	g.written = true
	return g.writer.Write(data)
}

func (g *gzipWriter) WriteString(s string) (int, error) {
	return g.Write([]byte(s))
}

func shouldSkipCompression(c *gin.Context, skipPaths []string) bool {
	if c.Request.Method == "HEAD" {
		return true
	}
	for _, p := range skipPaths {
		if strings.HasPrefix(c.Request.URL.Path, p) {
			return true
		}
	}
	return false
}
