// Package timeouts defines shared timeout constants used across services.
package timeouts

import "time"

// HealthWait caps how long the sheet waits for the character service to report SERVING.
const HealthWait = 10 * time.Second

// APIRequest caps a single sheet → character service HTTP call.
const APIRequest = 5 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
