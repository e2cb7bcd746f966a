package store

import "errors"

// ErrNotFound is returned by mutating operations when no durable record
// matches the given id. The sync bridge keys its name-fallback
// reconciliation off this sentinel.
var ErrNotFound = errors.New("record not found")
