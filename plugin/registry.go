package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit                 []OnInit
	onShutdown             []OnShutdown
	onChargePosted         []OnChargePosted
	onPaymentPosted        []OnPaymentPosted
	onPaymentClamped       []OnPaymentClamped
	onCreditLimitExceeded  []OnCreditLimitExceeded
	onEntryDeleted         []OnEntryDeleted
	onBalancesRecalculated []OnBalancesRecalculated
	balanceNotifiers       []BalanceNotifier
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnChargePosted); ok {
		r.onChargePosted = append(r.onChargePosted, v)
	}
	if v, ok := p.(OnPaymentPosted); ok {
		r.onPaymentPosted = append(r.onPaymentPosted, v)
	}
	if v, ok := p.(OnPaymentClamped); ok {
		r.onPaymentClamped = append(r.onPaymentClamped, v)
	}
	if v, ok := p.(OnCreditLimitExceeded); ok {
		r.onCreditLimitExceeded = append(r.onCreditLimitExceeded, v)
	}
	if v, ok := p.(OnEntryDeleted); ok {
		r.onEntryDeleted = append(r.onEntryDeleted, v)
	}
	if v, ok := p.(OnBalancesRecalculated); ok {
		r.onBalancesRecalculated = append(r.onBalancesRecalculated, v)
	}
	if v, ok := p.(BalanceNotifier); ok {
		r.balanceNotifiers = append(r.balanceNotifiers, v)
	}

	return nil
}

// Plugins returns the names of all registered plugins.
func (r *Registry) Plugins() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.plugins))
	for i, p := range r.plugins {
		names[i] = p.Name()
	}
	return names
}

// EmitInit notifies all OnInit plugins.
func (r *Registry) EmitInit(ctx context.Context, l interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, l)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown notifies all OnShutdown plugins.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitChargePosted emits a charge posted event.
func (r *Registry) EmitChargePosted(ctx context.Context, e interface{}) {
	r.mu.RLock()
	plugins := r.onChargePosted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnChargePosted(ctx, e)
		}); err != nil {
			r.logger.Warn("plugin OnChargePosted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPaymentPosted emits a payment posted event.
func (r *Registry) EmitPaymentPosted(ctx context.Context, e interface{}) {
	r.mu.RLock()
	plugins := r.onPaymentPosted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPaymentPosted(ctx, e)
		}); err != nil {
			r.logger.Warn("plugin OnPaymentPosted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPaymentClamped emits a payment clamped event.
func (r *Registry) EmitPaymentClamped(ctx context.Context, accountID string, requested, recorded interface{}) {
	r.mu.RLock()
	plugins := r.onPaymentClamped
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPaymentClamped(ctx, accountID, requested, recorded)
		}); err != nil {
			r.logger.Warn("plugin OnPaymentClamped failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCreditLimitExceeded emits a credit limit exceeded event.
func (r *Registry) EmitCreditLimitExceeded(ctx context.Context, accountID string, current, attempted, limit interface{}) {
	r.mu.RLock()
	plugins := r.onCreditLimitExceeded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCreditLimitExceeded(ctx, accountID, current, attempted, limit)
		}); err != nil {
			r.logger.Warn("plugin OnCreditLimitExceeded failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitEntryDeleted emits an entry deleted event.
func (r *Registry) EmitEntryDeleted(ctx context.Context, e interface{}, actor string) {
	r.mu.RLock()
	plugins := r.onEntryDeleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnEntryDeleted(ctx, e, actor)
		}); err != nil {
			r.logger.Warn("plugin OnEntryDeleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitBalancesRecalculated emits a balances recalculated event.
func (r *Registry) EmitBalancesRecalculated(ctx context.Context, accountID string, entries int, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onBalancesRecalculated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBalancesRecalculated(ctx, accountID, entries, elapsed)
		}); err != nil {
			r.logger.Warn("plugin OnBalancesRecalculated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitBalanceChanged notifies all balance notifiers of a committed posting.
func (r *Registry) EmitBalanceChanged(ctx context.Context, accountID, kind string, amount, balance interface{}) {
	r.mu.RLock()
	plugins := r.balanceNotifiers
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.NotifyBalanceChanged(ctx, accountID, kind, amount, balance)
		}); err != nil {
			r.logger.Warn("plugin NotifyBalanceChanged failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the posting pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
