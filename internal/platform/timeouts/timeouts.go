// Package timeouts defines shared timeout constants used across the core.
// Centralizing these values prevents drift between call sites and makes the
// durations discoverable.
package timeouts

import "time"

// BackendRequest caps the time allowed for a single backend HTTP request.
const BackendRequest = 10 * time.Second

// SessionRefresh caps the best-effort corroboration refresh during restore.
const SessionRefresh = 5 * time.Second

// VerificationWait bounds how long the core waits for the auth provider to
// establish a session after an email-verification link.
const VerificationWait = 8 * time.Second

// StorageOp caps a single local storage read or write.
const StorageOp = 2 * time.Second
