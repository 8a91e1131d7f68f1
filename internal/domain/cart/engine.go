package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/product"
)

// Options configures an Engine. Zero values select defaults.
type Options struct {
	// Logger defaults to the logger carried by the constructor context.
	Logger *zap.Logger
	// Meter records save counters. Defaults to a no-op meter.
	Meter metric.Meter
	// LoadTimeout bounds the initial read of the persisted cart.
	LoadTimeout time.Duration
	// SaveTimeout bounds every single write to the store.
	SaveTimeout time.Duration
}

const (
	defaultLoadTimeout = 5 * time.Second
	defaultSaveTimeout = 5 * time.Second
)

// Engine owns the cart line items.
//
// The persisted cart is loaded in the background right after construction;
// every operation blocks until that load has finished, so nothing done by
// callers can be overwritten by a late load. Mutations apply in memory
// immediately and schedule a save of the full cart on a single background
// writer, which always writes the newest encoded state.
type Engine struct {
	store       Store
	lg          *zap.Logger
	loadTimeout time.Duration
	saveTimeout time.Duration
	saves       metric.Int64Counter
	saveErrors  metric.Int64Counter

	loaded  chan struct{}
	kick    chan struct{}
	stop    chan struct{}
	stopped chan struct{}

	closeOnce sync.Once

	mu        sync.Mutex
	items     []LineItem
	closed    bool
	pending   []byte
	pendingV  uint64
	savedV    uint64
	lastErr   error
	saveEvent chan struct{}
}

// NewEngine creates an engine backed by store and starts loading the
// persisted cart. Call Close to stop the background writer.
func NewEngine(ctx context.Context, store Store, opts Options) *Engine {
	lg := opts.Logger
	if lg == nil {
		lg = zctx.From(ctx)
	}
	meter := opts.Meter
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("")
	}
	e := &Engine{
		store:       store,
		lg:          lg.Named("cart"),
		loadTimeout: opts.LoadTimeout,
		saveTimeout: opts.SaveTimeout,
		loaded:      make(chan struct{}),
		kick:        make(chan struct{}, 1),
		stop:        make(chan struct{}),
		stopped:     make(chan struct{}),
		items:       []LineItem{},
		saveEvent:   make(chan struct{}),
	}
	if e.loadTimeout <= 0 {
		e.loadTimeout = defaultLoadTimeout
	}
	if e.saveTimeout <= 0 {
		e.saveTimeout = defaultSaveTimeout
	}

	var err error
	if e.saves, err = meter.Int64Counter("storefront.cart.saves",
		metric.WithDescription("Cart writes to the key-value store"),
	); err != nil {
		e.saves = noop.Int64Counter{}
	}
	if e.saveErrors, err = meter.Int64Counter("storefront.cart.save_errors",
		metric.WithDescription("Failed cart writes to the key-value store"),
	); err != nil {
		e.saveErrors = noop.Int64Counter{}
	}

	bg := context.WithoutCancel(ctx)
	go e.load(bg)
	go e.runSaver(bg)
	return e
}

// Ready is closed once the initial load attempt has finished, whether it
// restored a cart or fell back to an empty one.
func (e *Engine) Ready() <-chan struct{} {
	return e.loaded
}

func (e *Engine) load(ctx context.Context) {
	defer close(e.loaded)

	ctx, cancel := context.WithTimeout(ctx, e.loadTimeout)
	defer cancel()

	blob, err := e.store.Get(ctx, StorageKey)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			e.lg.Debug("No persisted cart, starting empty")
			return
		}
		e.lg.Warn("Load cart failed, starting empty", zap.Error(err))
		return
	}

	items, err := DecodeItems(blob)
	if err != nil {
		e.lg.Warn("Persisted cart is corrupt, starting empty", zap.Error(err))
		return
	}

	e.mu.Lock()
	e.items = items
	e.mu.Unlock()
	e.lg.Debug("Cart restored", zap.Int("items", len(items)))
}

// AddItem adds quantity units of p. An existing line item for the same
// product is merged in place; otherwise a new line item is appended.
func (e *Engine) AddItem(p product.Product, quantity int) error {
	if quantity <= 0 || quantity > MaxQuantity {
		return &QuantityError{ProductID: p.ID, Quantity: quantity, Err: ErrInvalidQuantity}
	}
	<-e.loaded

	e.mu.Lock()
	defer e.mu.Unlock()

	if i := e.indexLocked(p.ID); i >= 0 {
		merged := e.items[i].Quantity + quantity
		if merged > MaxQuantity {
			return &QuantityError{ProductID: p.ID, Quantity: merged, Err: ErrQuantityLimitExceeded}
		}
		e.items[i].Quantity = merged
	} else {
		e.items = append(e.items, LineItem{Product: p, Quantity: quantity})
	}
	e.commitLocked()
	return nil
}

// RemoveItem drops the line item of productID. Unknown ids leave the items
// unchanged, but the cart is still persisted.
func (e *Engine) RemoveItem(productID int64) {
	<-e.loaded

	e.mu.Lock()
	defer e.mu.Unlock()

	e.removeLocked(productID)
}

// UpdateQuantity sets the quantity of an existing line item. A quantity of
// zero or less removes the item and always persists, like RemoveItem. A
// positive quantity for an unknown id is ignored.
func (e *Engine) UpdateQuantity(productID int64, quantity int) error {
	if quantity > MaxQuantity {
		return &QuantityError{ProductID: productID, Quantity: quantity, Err: ErrInvalidQuantity}
	}
	<-e.loaded

	e.mu.Lock()
	defer e.mu.Unlock()

	if quantity <= 0 {
		e.removeLocked(productID)
		return nil
	}
	if i := e.indexLocked(productID); i >= 0 {
		e.items[i].Quantity = quantity
		e.commitLocked()
	}
	return nil
}

// Items returns a copy of the line items in insertion order.
func (e *Engine) Items() []LineItem {
	<-e.loaded

	e.mu.Lock()
	defer e.mu.Unlock()

	return cloneItems(e.items)
}

// TotalPrice sums price times quantity over all line items.
func (e *Engine) TotalPrice() decimal.Decimal {
	<-e.loaded

	e.mu.Lock()
	defer e.mu.Unlock()

	total, _ := Totals(e.items)
	return total
}

// ItemCount sums the quantities of all line items.
func (e *Engine) ItemCount() int {
	<-e.loaded

	e.mu.Lock()
	defer e.mu.Unlock()

	_, count := Totals(e.items)
	return count
}

// Clear empties the cart.
func (e *Engine) Clear() {
	<-e.loaded

	e.mu.Lock()
	defer e.mu.Unlock()

	e.items = []LineItem{}
	e.commitLocked()
}

func (e *Engine) indexLocked(productID int64) int {
	for i, li := range e.items {
		if li.Product.ID == productID {
			return i
		}
	}
	return -1
}

func (e *Engine) removeLocked(productID int64) {
	if i := e.indexLocked(productID); i >= 0 {
		e.items = append(e.items[:i], e.items[i+1:]...)
	}
	e.commitLocked()
}

// commitLocked snapshots the current items into the pending blob and wakes
// the writer.
func (e *Engine) commitLocked() {
	if e.closed {
		e.lg.Warn("Cart modified after close, change is not persisted")
		return
	}
	e.pending = EncodeItems(e.items)
	e.pendingV++
	select {
	case e.kick <- struct{}{}:
	default:
	}
}

func (e *Engine) runSaver(ctx context.Context) {
	defer close(e.stopped)
	for {
		select {
		case <-e.kick:
			e.save(ctx)
		case <-e.stop:
			e.save(ctx)
			return
		}
	}
}

func (e *Engine) save(ctx context.Context) {
	e.mu.Lock()
	blob, v := e.pending, e.pendingV
	if v == e.savedV {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	sctx, cancel := context.WithTimeout(ctx, e.saveTimeout)
	err := e.store.Set(sctx, StorageKey, blob)
	cancel()

	e.saves.Add(ctx, 1)
	if err != nil {
		err = fmt.Errorf("%w: set %q: %w", ErrStorage, StorageKey, err)
		e.saveErrors.Add(ctx, 1)
		e.lg.Error("Save cart failed", zap.Error(err), zap.Uint64("version", v))
	}

	e.mu.Lock()
	e.savedV = v
	e.lastErr = err
	close(e.saveEvent)
	e.saveEvent = make(chan struct{})
	e.mu.Unlock()
}

// Flush waits until the state produced by the latest mutation has been
// written and returns the error of that write, if any.
func (e *Engine) Flush(ctx context.Context) error {
	select {
	case <-e.loaded:
	case <-ctx.Done():
		return ctx.Err()
	}

	e.mu.Lock()
	target := e.pendingV
	for e.savedV < target {
		ch := e.saveEvent
		e.mu.Unlock()
		select {
		case <-ch:
		case <-e.stopped:
			e.mu.Lock()
			if e.savedV < target {
				e.mu.Unlock()
				return ErrClosed
			}
			e.mu.Unlock()
		case <-ctx.Done():
			return ctx.Err()
		}
		e.mu.Lock()
	}
	err := e.lastErr
	e.mu.Unlock()
	return err
}

// Close flushes pending changes and stops the background writer. Further
// mutations still apply in memory but are no longer persisted.
func (e *Engine) Close(ctx context.Context) error {
	var err error
	e.closeOnce.Do(func() {
		err = e.Flush(ctx)

		e.mu.Lock()
		e.closed = true
		e.mu.Unlock()
		close(e.stop)

		select {
		case <-e.stopped:
		case <-ctx.Done():
			if err == nil {
				err = ctx.Err()
			}
		}
	})
	return err
}
