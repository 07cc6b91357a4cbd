package inventory

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"ovc-go/internal/database/sqlc"
)

type fakeSource struct {
	mu    sync.Mutex
	rows  map[string][]*sqlc.DeviceAddress
	calls int
	err   error
}

func (f *fakeSource) ListDeviceAddresses(ctx context.Context, deviceID string) ([]*sqlc.DeviceAddress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[deviceID], nil
}

func addr(address, typ string, priority int64) *sqlc.DeviceAddress {
	return &sqlc.DeviceAddress{Address: address, AddressType: typ, Priority: priority}
}

func TestResolver_Addresses(t *testing.T) {
	ctx := context.Background()

	t.Run("orders by priority then primary network", func(t *testing.T) {
		src := &fakeSource{rows: map[string][]*sqlc.DeviceAddress{
			"dev-1": {
				addr("10.0.2.1", "Network-02", 0),
				addr("10.0.1.1", PrimaryAddressType, 0),
				addr("10.0.0.9", "Network-02", 1),
				addr("10.0.1.1", PrimaryAddressType, 2),
			},
		}}
		r := NewResolver(src, 8, time.Minute)

		got, err := r.Addresses(ctx, "dev-1")
		if err != nil {
			t.Fatalf("Addresses() error = %v", err)
		}
		want := []string{"10.0.1.1", "10.0.2.1", "10.0.0.9"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Addresses() = %v, want %v", got, want)
		}
	})

	t.Run("caches until invalidated", func(t *testing.T) {
		src := &fakeSource{rows: map[string][]*sqlc.DeviceAddress{
			"dev-1": {addr("10.0.0.1", PrimaryAddressType, 0)},
		}}
		r := NewResolver(src, 8, time.Minute)

		r.Addresses(ctx, "dev-1")
		r.Addresses(ctx, "dev-1")
		if src.calls != 1 {
			t.Errorf("source called %d times, want 1", src.calls)
		}

		src.rows["dev-1"] = append(src.rows["dev-1"], addr("10.0.0.2", "Network-02", 1))
		r.Invalidate("dev-1")

		got, _ := r.Addresses(ctx, "dev-1")
		if len(got) != 2 || src.calls != 2 {
			t.Errorf("after Invalidate() got %v with %d calls", got, src.calls)
		}
	})

	t.Run("entries expire", func(t *testing.T) {
		src := &fakeSource{rows: map[string][]*sqlc.DeviceAddress{}}
		r := NewResolver(src, 8, 10*time.Millisecond)

		r.Addresses(ctx, "dev-1")
		time.Sleep(50 * time.Millisecond)
		r.Addresses(ctx, "dev-1")
		if src.calls != 2 {
			t.Errorf("source called %d times, want 2", src.calls)
		}
	})

	t.Run("callers cannot mutate the cache", func(t *testing.T) {
		src := &fakeSource{rows: map[string][]*sqlc.DeviceAddress{
			"dev-1": {addr("10.0.0.1", PrimaryAddressType, 0)},
		}}
		r := NewResolver(src, 8, time.Minute)

		got, _ := r.Addresses(ctx, "dev-1")
		got[0] = "changed"
		again, _ := r.Addresses(ctx, "dev-1")
		if again[0] != "10.0.0.1" {
			t.Errorf("cached address = %q, want 10.0.0.1", again[0])
		}
	})

	t.Run("errors are not cached", func(t *testing.T) {
		src := &fakeSource{err: errors.New("db down")}
		r := NewResolver(src, 8, time.Minute)

		if _, err := r.Addresses(ctx, "dev-1"); err == nil {
			t.Fatal("Addresses() expected error")
		}
		src.err = nil
		if _, err := r.Addresses(ctx, "dev-1"); err != nil {
			t.Errorf("Addresses() error = %v", err)
		}
		if src.calls != 2 {
			t.Errorf("source called %d times, want 2", src.calls)
		}
	})
}
