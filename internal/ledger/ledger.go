// Package ledger is the durable idempotency record for dispatched commands:
// one record per physical resource id, last write wins. It performs no
// locking; a duplicate dispatch is wasteful but not corrupting, so the
// dispatcher's lookup-then-record sequence stays best-effort.
package ledger

import (
	"context"

	"tfbridge/pkg/domainerrors"
)

// recordKeySuffix keeps the storage layout of the original deployment so
// existing records survive an upgrade.
const recordKeySuffix = "/tf-command-record"

// ErrNotFound is returned by Get when no record exists for the id.
var ErrNotFound = domainerrors.New(domainerrors.CodeNotFound, "no command record found")

// Record is the persisted dispatch entry.
type Record struct {
	CommandID  string `json:"commandId"`
	InstanceID string `json:"instanceId"`
}

// Store is the durable mapping from physical resource id to the most recent
// dispatch record.
type Store interface {
	Get(ctx context.Context, physicalResourceID string) (*Record, error)
	Put(ctx context.Context, physicalResourceID string, record Record) error
}

// RecordKey derives the storage key for a physical resource id.
func RecordKey(physicalResourceID string) string {
	return physicalResourceID + recordKeySuffix
}
