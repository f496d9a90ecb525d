// Package audithook bridges ledger lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend
// on any specific audit backend. Callers inject a RecorderFunc adapter
// that bridges to their backend at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kitchenops/ledger/entry"
	"github.com/kitchenops/ledger/id"
	"github.com/kitchenops/ledger/plugin"
	"github.com/kitchenops/ledger/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                 = (*Extension)(nil)
	_ plugin.OnChargePosted         = (*Extension)(nil)
	_ plugin.OnPaymentPosted        = (*Extension)(nil)
	_ plugin.OnPaymentClamped       = (*Extension)(nil)
	_ plugin.OnCreditLimitExceeded  = (*Extension)(nil)
	_ plugin.OnEntryDeleted         = (*Extension)(nil)
	_ plugin.OnBalancesRecalculated = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// Defined locally so this package does not import any backend directly;
// callers inject the concrete recorder at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit record.
type AuditEvent struct {
	ID         id.AuditID     `json:"id"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Actor      string         `json:"actor,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges ledger lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Posting hooks
// ──────────────────────────────────────────────────

// OnChargePosted implements plugin.OnChargePosted.
func (e *Extension) OnChargePosted(ctx context.Context, payload interface{}) error {
	en, ok := payload.(*entry.Entry)
	if !ok {
		return nil
	}
	return e.record(ctx, ActionChargePosted, SeverityInfo, OutcomeSuccess,
		ResourceEntry, fmt.Sprintf("%d", en.ID), CategoryPosting, en.CreatedBy,
		"account_id", en.AccountID,
		"amount", en.Amount.FormatMajor(),
		"balance_after", en.BalanceAfter.FormatMajor(),
	)
}

// OnPaymentPosted implements plugin.OnPaymentPosted.
func (e *Extension) OnPaymentPosted(ctx context.Context, payload interface{}) error {
	en, ok := payload.(*entry.Entry)
	if !ok {
		return nil
	}
	return e.record(ctx, ActionPaymentPosted, SeverityInfo, OutcomeSuccess,
		ResourceEntry, fmt.Sprintf("%d", en.ID), CategoryPosting, en.CreatedBy,
		"account_id", en.AccountID,
		"amount", en.Amount.FormatMajor(),
		"balance_after", en.BalanceAfter.FormatMajor(),
	)
}

// ──────────────────────────────────────────────────
// Policy hooks
// ──────────────────────────────────────────────────

// OnPaymentClamped implements plugin.OnPaymentClamped.
func (e *Extension) OnPaymentClamped(ctx context.Context, accountID string, requested, recorded interface{}) error {
	return e.record(ctx, ActionPaymentClamped, SeverityWarning, OutcomeSuccess,
		ResourceAccount, accountID, CategoryPolicy, "",
		"account_id", accountID,
		"requested", formatMoney(requested),
		"recorded", formatMoney(recorded),
	)
}

// OnCreditLimitExceeded implements plugin.OnCreditLimitExceeded.
func (e *Extension) OnCreditLimitExceeded(ctx context.Context, accountID string, current, attempted, limit interface{}) error {
	return e.record(ctx, ActionCreditLimitRejected, SeverityWarning, OutcomeFailure,
		ResourceAccount, accountID, CategoryPolicy, "",
		"account_id", accountID,
		"current", formatMoney(current),
		"attempted", formatMoney(attempted),
		"limit", formatMoney(limit),
	)
}

// ──────────────────────────────────────────────────
// Correction hooks
// ──────────────────────────────────────────────────

// OnEntryDeleted implements plugin.OnEntryDeleted.
func (e *Extension) OnEntryDeleted(ctx context.Context, payload interface{}, actor string) error {
	en, ok := payload.(*entry.Entry)
	if !ok {
		return nil
	}
	return e.record(ctx, ActionEntryDeleted, SeverityWarning, OutcomeSuccess,
		ResourceEntry, fmt.Sprintf("%d", en.ID), CategoryCorrection, actor,
		"account_id", en.AccountID,
		"kind", string(en.Kind),
		"amount", en.Amount.FormatMajor(),
	)
}

// OnBalancesRecalculated implements plugin.OnBalancesRecalculated.
func (e *Extension) OnBalancesRecalculated(ctx context.Context, accountID string, entries int, elapsed time.Duration) error {
	return e.record(ctx, ActionBalancesRecalculated, SeverityInfo, OutcomeSuccess,
		ResourceAccount, accountID, CategoryCorrection, "",
		"account_id", accountID,
		"entries", entries,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category, actor string,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	evt := &AuditEvent{
		ID:         id.NewAuditID(),
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Actor:      actor,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}

// formatMoney renders a hook payload that may or may not be a Money.
func formatMoney(v interface{}) string {
	if m, ok := v.(types.Money); ok {
		return m.FormatMajor()
	}
	return fmt.Sprintf("%v", v)
}
