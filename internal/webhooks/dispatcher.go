package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ziadkadry99/zoomdeck/internal/audit"
)

// DeliveryTimeout bounds a single POST to a subscriber.
const DeliveryTimeout = 10 * time.Second

// Dispatcher delivers history entries to the webhooks subscribed to them.
type Dispatcher struct {
	store  *Store
	client *http.Client
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher backed by the given store.
func NewDispatcher(store *Store, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store:  store,
		client: &http.Client{Timeout: DeliveryTimeout},
		logger: logger,
	}
}

// Observe queues entries for delivery without blocking the caller. It fits
// presentation.Store.Observe.
func (d *Dispatcher) Observe(ctx context.Context, entries []audit.Entry) {
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.Dispatch(ctx, entries)
	}()
}

// Wait blocks until every queued delivery has finished.
func (d *Dispatcher) Wait() { d.wg.Wait() }

// Dispatch sends every entry to the matching webhooks of its presentation
// and records each outcome. Delivery failures are logged, not returned.
func (d *Dispatcher) Dispatch(ctx context.Context, entries []audit.Entry) {
	hooks := map[string][]Webhook{}
	for _, e := range entries {
		list, ok := hooks[e.PresentationID]
		if !ok {
			var err error
			list, err = d.store.List(ctx, e.PresentationID)
			if err != nil {
				d.logger.Error("loading webhooks", "presentation", e.PresentationID, "err", err)
				continue
			}
			hooks[e.PresentationID] = list
		}
		for _, w := range list {
			if !w.Wants(e.Action) {
				continue
			}
			status, err := d.deliver(ctx, w, e)
			if err != nil {
				d.logger.Warn("webhook delivery failed", "webhook", w.ID, "action", e.Action, "err", err)
			}
			if err := d.store.RecordDelivery(ctx, w.ID, status, err); err != nil {
				d.logger.Error("recording webhook delivery", "webhook", w.ID, "err", err)
			}
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, w Webhook, e audit.Entry) (int, error) {
	payload, err := json.Marshal(Delivery{WebhookID: w.ID, Entry: e})
	if err != nil {
		return 0, fmt.Errorf("marshalling delivery: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderEvent, string(e.Action))

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}
