// Package inventory resolves device ids to the network addresses scans and
// restores are sent to.
package inventory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"ovc-go/internal/database/sqlc"
	"ovc-go/internal/ovc"
)

// PrimaryAddressType is tried before other address types of equal priority.
const PrimaryAddressType = "Network-01"

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ovc_address_cache_hits_total",
		Help: "Device address lookups served from the cache.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ovc_address_cache_misses_total",
		Help: "Device address lookups that went to the database.",
	})
)

// AddressSource lists the stored addresses of a device.
type AddressSource interface {
	ListDeviceAddresses(ctx context.Context, deviceID string) ([]*sqlc.DeviceAddress, error)
}

// Resolver implements ovc.AddressResolver over the device address inventory,
// caching each device's ordered address list for a TTL.
type Resolver struct {
	source AddressSource
	cache  *expirable.LRU[string, []string]
}

var _ ovc.AddressResolver = (*Resolver)(nil)

// NewResolver creates a Resolver caching up to size devices for ttl.
func NewResolver(source AddressSource, size int, ttl time.Duration) *Resolver {
	return &Resolver{
		source: source,
		cache:  expirable.NewLRU[string, []string](size, nil, ttl),
	}
}

// Addresses returns the device's addresses, most preferred first: lower
// priority values first, Network-01 before other types at equal priority.
func (r *Resolver) Addresses(ctx context.Context, deviceID string) ([]string, error) {
	if addrs, ok := r.cache.Get(deviceID); ok {
		cacheHitsTotal.Inc()
		return slices.Clone(addrs), nil
	}
	cacheMissesTotal.Inc()

	rows, err := r.source.ListDeviceAddresses(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("loading addresses of device %s: %w", deviceID, err)
	}

	addrs := orderAddresses(rows)
	r.cache.Add(deviceID, addrs)
	return slices.Clone(addrs), nil
}

// Invalidate drops the cached addresses of deviceID.
func (r *Resolver) Invalidate(deviceID string) {
	r.cache.Remove(deviceID)
}

func orderAddresses(rows []*sqlc.DeviceAddress) []string {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b *sqlc.DeviceAddress) int {
		if c := cmp.Compare(a.Priority, b.Priority); c != 0 {
			return c
		}
		return cmp.Compare(typeRank(a.AddressType), typeRank(b.AddressType))
	})

	seen := make(map[string]bool, len(sorted))
	addrs := make([]string, 0, len(sorted))
	for _, row := range sorted {
		if row.Address == "" || seen[row.Address] {
			continue
		}
		seen[row.Address] = true
		addrs = append(addrs, row.Address)
	}
	return addrs
}

func typeRank(addressType string) int {
	if addressType == PrimaryAddressType {
		return 0
	}
	return 1
}
