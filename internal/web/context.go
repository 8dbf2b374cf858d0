package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/shipbatch/internal/core"
)

// WithRequestMetadata adds the client IP and User-Agent to ctx for the
// import history.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.WithClient(ctx, core.Client{
		IPAddress: clientIP(r),
		UserAgent: r.Header.Get("User-Agent"),
	})
}
