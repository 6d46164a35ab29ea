package realtime

import (
	"context"
	"errors"
)

// Notifier delivers one event to one address.
type Notifier interface {
	Deliver(ctx context.Context, address, event string, payload any) error
}

// FanoutNotifier delivers to every backend and joins their errors.
type FanoutNotifier struct {
	backends []Notifier
}

// NewFanoutNotifier creates a FanoutNotifier. Nil backends are dropped.
func NewFanoutNotifier(backends ...Notifier) *FanoutNotifier {
	f := &FanoutNotifier{}
	for _, b := range backends {
		if b != nil {
			f.backends = append(f.backends, b)
		}
	}
	return f
}

// Deliver calls every backend, even after a failure.
func (f *FanoutNotifier) Deliver(ctx context.Context, address, event string, payload any) error {
	var errs []error
	for _, b := range f.backends {
		if err := b.Deliver(ctx, address, event, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
