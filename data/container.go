// Package data provides thread-safe storage for the parsed product
// registries. The Container uses atomic pointers so registry refreshes swap
// in new data with zero downtime for concurrent readers.
package data

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/kerlann/pharmatools/interfaces"
	"github.com/kerlann/pharmatools/logging"
	"github.com/kerlann/pharmatools/registry/entities"
)

// Compile-time check to ensure Container implements DataStore
var _ interfaces.DataStore = (*Container)(nil)

// Container holds the registry data with atomic pointers for zero-downtime updates
type Container struct {
	products        atomic.Value // []entities.Product
	bySource        atomic.Value // map[string][]entities.Product
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewContainer creates a new Container with empty data
func NewContainer() *Container {
	c := &Container{}
	c.products.Store(make([]entities.Product, 0))
	c.bySource.Store(make(map[string][]entities.Product))
	c.lastUpdated.Store(time.Time{})
	c.serverStartTime.Store(time.Now())
	return c
}

// Thread-safe getters with type check

// GetProducts returns the merged product list from all registries
func (c *Container) GetProducts() []entities.Product {
	if v := c.products.Load(); v != nil {
		if products, ok := v.([]entities.Product); ok {
			return products
		}
	}

	logging.Warn("Product list is empty or invalid")
	return []entities.Product{}
}

// GetProductsBySource returns the products of one registry source
func (c *Container) GetProductsBySource(source string) []entities.Product {
	if v := c.bySource.Load(); v != nil {
		if bySource, ok := v.(map[string][]entities.Product); ok {
			return bySource[source]
		}
	}

	logging.Warn("Product source map is empty or invalid")
	return []entities.Product{}
}

// GetSources returns the registry sources currently loaded, sorted
func (c *Container) GetSources() []string {
	if v := c.bySource.Load(); v != nil {
		if bySource, ok := v.(map[string][]entities.Product); ok {
			sources := make([]string, 0, len(bySource))
			for source := range bySource {
				sources = append(sources, source)
			}
			sort.Strings(sources)
			return sources
		}
	}
	return []string{}
}

// GetLastUpdated returns the timestamp of the last registry refresh
func (c *Container) GetLastUpdated() time.Time {
	if v := c.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// GetServerStartTime returns the time the process started serving
func (c *Container) GetServerStartTime() time.Time {
	if v := c.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}
	return time.Time{}
}

// IsUpdating reports whether a registry refresh is in progress
func (c *Container) IsUpdating() bool {
	return c.updating.Load()
}

// UpdateData atomically swaps in a freshly parsed registry dataset
func (c *Container) UpdateData(products []entities.Product, bySource map[string][]entities.Product) {
	c.products.Store(products)
	c.bySource.Store(bySource)
	c.lastUpdated.Store(time.Now())
}

// BeginUpdate marks an update as started. It returns false when another
// update is already running.
func (c *Container) BeginUpdate() bool {
	return c.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the running update as finished
func (c *Container) EndUpdate() {
	c.updating.Store(false)
}
