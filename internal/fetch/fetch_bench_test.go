package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// Benchmark a plain static fetch against page sizes on either side of the
// body cap, to see what the LimitReader costs.
func BenchmarkClientGet(b *testing.B) {
	small := []byte("<html><body>" + strings.Repeat("<p>hello</p>", 32) + "</body></html>")
	large := []byte("<html><body>" + strings.Repeat("<p>hello</p>", 1<<15) + "</body></html>")

	serve := func(body []byte) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write(body)
		}))
	}

	b.Run("small", func(b *testing.B) {
		srv := serve(small)
		defer srv.Close()
		c := &Client{UserAgent: "bench"}
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, _, _, err := c.Get(context.Background(), srv.URL, 5*time.Second); err != nil {
				b.Fatalf("Get: %v", err)
			}
		}
	})
	b.Run("capped", func(b *testing.B) {
		srv := serve(large)
		defer srv.Close()
		c := &Client{UserAgent: "bench", MaxBodyBytes: 64 * 1024}
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, _, _, err := c.Get(context.Background(), srv.URL, 5*time.Second); err != nil {
				b.Fatalf("Get: %v", err)
			}
		}
	})
}
