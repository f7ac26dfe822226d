// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services to distinguish between different failure scenarios without
// inspecting driver-specific errors.
package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist. Services
// translate this into the appropriate typed domain outcome (for example
// a missing session becomes ErrSessionNotFound).
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an update cannot be performed because the
// row is not in the expected state, such as marking a deposit paid when
// it is not UNPAID. The conditional WHERE clause doubles as the
// concurrency guard, so a zero-row update is a state conflict, not a
// missing row.
var ErrConflict = errors.New("conflict")
