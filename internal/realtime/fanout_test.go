package realtime

import (
	"context"
	"errors"
	"testing"
)

type recordingNotifier struct {
	calls int
	err   error
}

func (r *recordingNotifier) Deliver(ctx context.Context, address, event string, payload any) error {
	r.calls++
	return r.err
}

func TestFanoutNotifier_CallsEveryBackend(t *testing.T) {
	failing := &recordingNotifier{err: ErrAddressNotConnected}
	ok := &recordingNotifier{}

	f := NewFanoutNotifier(failing, nil, ok)
	err := f.Deliver(context.Background(), "driver-1", "new-ride", nil)

	if !errors.Is(err, ErrAddressNotConnected) {
		t.Errorf("expected joined error to contain ErrAddressNotConnected, got %v", err)
	}
	if failing.calls != 1 || ok.calls != 1 {
		t.Errorf("expected both backends called once, got %d and %d", failing.calls, ok.calls)
	}
}

func TestFanoutNotifier_NoErrors(t *testing.T) {
	f := NewFanoutNotifier(&recordingNotifier{}, &recordingNotifier{})
	if err := f.Deliver(context.Background(), "a", "e", nil); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
