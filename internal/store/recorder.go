package store

import (
	"context"
	"log/slog"

	"github.com/posworks/tally/internal/checkout"
)

// Recorder persists checkout events as they happen. It implements
// checkout.Notifier, so a checkout wired with a Recorder leaves a full
// audit trail without the pricing code knowing the store exists.
//
// Write failures are logged and swallowed: the audit trail is secondary
// to the sale, and a broken disk must not stop the lane.
type Recorder struct {
	store  *Store
	ctx    context.Context
	logger *slog.Logger
}

// NewRecorder creates a recorder writing through the given store. The
// context bounds every write; pass the command's context.
func NewRecorder(ctx context.Context, s *Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: s, ctx: ctx, logger: logger}
}

// Begin records the session row. Call once before scanning starts.
func (r *Recorder) Begin(token, schemeFingerprint string) error {
	return r.store.BeginSession(r.ctx, token, schemeFingerprint)
}

func (r *Recorder) ItemScanned(e checkout.ScanEvent) {
	err := r.store.WriteScan(r.ctx, e.Session, e.Seq, e.ItemID, e.Intrinsic, e.TotalAfter)
	if err != nil {
		r.logger.Error("audit write failed", "event", "scan", "seq", e.Seq, "error", err)
	}
}

func (r *Recorder) RuleApplied(e checkout.RuleEvent) {
	err := r.store.WriteFiring(r.ctx, e.Session, e.Seq, e.RuleName, e.Adjustment, e.ConsumedIDs, e.TotalAfter)
	if err != nil {
		r.logger.Error("audit write failed", "event", "firing", "seq", e.Seq, "error", err)
	}
}

func (r *Recorder) UnknownItem(e checkout.UnknownEvent) {
	err := r.store.WriteUnknown(r.ctx, e.Session, e.Seq, e.ItemID)
	if err != nil {
		r.logger.Error("audit write failed", "event", "unknown", "seq", e.Seq, "error", err)
	}
}
