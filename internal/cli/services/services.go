// Package services wraps each backend resource in a thin typed facade over
// the API client. Services add no caching, retries or validation.
package services

import (
	"context"
	"net/url"
	"strings"
)

// Requester is the subset of the API client the services need
type Requester interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
}

// pathOf joins escaped segments onto a resource root
func pathOf(root string, segments ...string) string {
	var b strings.Builder
	b.WriteString(root)
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}
