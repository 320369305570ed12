package testutil

import (
	"net/http"
	"time"

	"github.com/Easycoder-lin/flight-delay-insurance/pkg/requestcontext"
)

// WithSubject adds an authenticated subject to the request context,
// simulating what the auth middleware does for authenticated requests.
func WithSubject(req *http.Request, subject string) *http.Request {
	ctx := requestcontext.WithSubject(req.Context(), subject)
	return req.WithContext(ctx)
}

// WithAuth adds a subject and its capability set to the request context.
// This is the typical state for an authenticated request.
func WithAuth(req *http.Request, subject string, roles ...string) *http.Request {
	ctx := requestcontext.WithSubject(req.Context(), subject)
	if len(roles) > 0 {
		ctx = requestcontext.WithRoles(ctx, roles)
	}
	return req.WithContext(ctx)
}

// WithClock pins the request-scoped clock, so handlers and services under
// test evaluate against a deterministic time.
func WithClock(req *http.Request, t time.Time) *http.Request {
	ctx := requestcontext.WithTime(req.Context(), t)
	return req.WithContext(ctx)
}
