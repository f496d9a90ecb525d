// Package observability provides a metrics extension for the ledger that
// records posting lifecycle counts via a MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/kitchenops/ledger/entry"
	"github.com/kitchenops/ledger/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                 = (*MetricsExtension)(nil)
	_ plugin.OnInit                 = (*MetricsExtension)(nil)
	_ plugin.OnChargePosted         = (*MetricsExtension)(nil)
	_ plugin.OnPaymentPosted        = (*MetricsExtension)(nil)
	_ plugin.OnPaymentClamped       = (*MetricsExtension)(nil)
	_ plugin.OnCreditLimitExceeded  = (*MetricsExtension)(nil)
	_ plugin.OnEntryDeleted         = (*MetricsExtension)(nil)
	_ plugin.OnBalancesRecalculated = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide posting metrics.
// Register it as a ledger plugin to automatically track ledger activity.
type MetricsExtension struct {
	factory MetricFactory

	// Posting metrics
	ChargesPosted  Counter
	PaymentsPosted Counter
	ChargeAmount   Histogram
	PaymentAmount  Histogram

	// Policy metrics
	PaymentsClamped       Counter
	CreditLimitRejections Counter

	// Correction metrics
	EntriesDeleted Counter
	Recalculations Counter
	RecalcEntries  Histogram
	RecalcLatency  Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Posting metrics
		ChargesPosted:  factory.Counter("ledger.charge.posted"),
		PaymentsPosted: factory.Counter("ledger.payment.posted"),
		ChargeAmount:   factory.Histogram("ledger.charge.amount"),
		PaymentAmount:  factory.Histogram("ledger.payment.amount"),

		// Policy metrics
		PaymentsClamped:       factory.Counter("ledger.payment.clamped"),
		CreditLimitRejections: factory.Counter("ledger.credit_limit.rejections"),

		// Correction metrics
		EntriesDeleted: factory.Counter("ledger.entry.deleted"),
		Recalculations: factory.Counter("ledger.recalculations"),
		RecalcEntries:  factory.Histogram("ledger.recalculation.entries"),
		RecalcLatency:  factory.Histogram("ledger.recalculation.latency_ms"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Posting hooks
// ──────────────────────────────────────────────────

// OnChargePosted implements plugin.OnChargePosted.
func (m *MetricsExtension) OnChargePosted(_ context.Context, payload interface{}) error {
	m.ChargesPosted.Inc()
	if e, ok := payload.(*entry.Entry); ok {
		m.ChargeAmount.Observe(float64(e.Amount.Amount))
	}
	return nil
}

// OnPaymentPosted implements plugin.OnPaymentPosted.
func (m *MetricsExtension) OnPaymentPosted(_ context.Context, payload interface{}) error {
	m.PaymentsPosted.Inc()
	if e, ok := payload.(*entry.Entry); ok {
		m.PaymentAmount.Observe(float64(e.Amount.Amount))
	}
	return nil
}

// ──────────────────────────────────────────────────
// Policy hooks
// ──────────────────────────────────────────────────

// OnPaymentClamped implements plugin.OnPaymentClamped.
func (m *MetricsExtension) OnPaymentClamped(_ context.Context, _ string, _, _ interface{}) error {
	m.PaymentsClamped.Inc()
	return nil
}

// OnCreditLimitExceeded implements plugin.OnCreditLimitExceeded.
func (m *MetricsExtension) OnCreditLimitExceeded(_ context.Context, _ string, _, _, _ interface{}) error {
	m.CreditLimitRejections.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Correction hooks
// ──────────────────────────────────────────────────

// OnEntryDeleted implements plugin.OnEntryDeleted.
func (m *MetricsExtension) OnEntryDeleted(_ context.Context, _ interface{}, _ string) error {
	m.EntriesDeleted.Inc()
	return nil
}

// OnBalancesRecalculated implements plugin.OnBalancesRecalculated.
func (m *MetricsExtension) OnBalancesRecalculated(_ context.Context, _ string, entries int, elapsed time.Duration) error {
	m.Recalculations.Inc()
	m.RecalcEntries.Observe(float64(entries))
	m.RecalcLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}
