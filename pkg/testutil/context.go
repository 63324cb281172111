package testutil

import (
	"context"
	"time"

	"cropchain/pkg/requestcontext"
)

// ContextAt returns a background context pinned to t.
func ContextAt(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}
