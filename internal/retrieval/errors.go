package retrieval

import "errors"

// ErrUpstreamUnavailable marks a failure of the store, embedder or vector index during a search.
// Search never returns it; it appears in logs and SearchStatus.Reason.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")
