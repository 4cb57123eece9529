package domain

import "time"

// DefaultQueryTimeout is the server-side statement timeout applied when none is configured.
const DefaultQueryTimeout = 30 * time.Second

// DefaultMaxAttempts is the number of times a query is tried before giving up.
const DefaultMaxAttempts = 3

// DefaultRetryDelay is the base backoff; attempt n waits n times this value.
const DefaultRetryDelay = time.Second
