// Package dispatch runs side effects (email, realtime pushes) outside the
// request path. Jobs go through a bounded queue consumed by a fixed pool of
// workers; when the queue is full new jobs are dropped rather than blocking
// the caller.
package dispatch
