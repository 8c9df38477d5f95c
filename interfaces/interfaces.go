// Package interfaces defines core abstractions for pharmatools
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"time"

	"github.com/kerlann/pharmatools/registry/entities"
)

// DataStore defines the contract for registry data storage operations.
// It provides thread-safe access to the parsed product registries
// with atomic operations for zero-downtime updates.
type DataStore interface {
	// Data retrieval methods
	GetProducts() []entities.Product
	GetProductsBySource(source string) []entities.Product
	GetSources() []string
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	// Data update methods
	UpdateData(products []entities.Product, bySource map[string][]entities.Product)
	BeginUpdate() bool
	EndUpdate()
}

// RegistryParser defines the contract for parsing product registries from
// external sources. It handles downloading, processing, and transforming raw
// exports into structured entities.
type RegistryParser interface {
	// ParseAll downloads and parses all registry exports
	ParseAll() ([]entities.Product, map[string][]entities.Product, error)
}

// Scheduler defines the contract for job scheduling and health monitoring.
// It manages automated registry refreshes and system health checks.
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()
}

// InputValidator defines the contract for validating user input.
type InputValidator interface {
	// ValidateInput validates user input strings
	ValidateInput(input string) error

	// ValidateDrugName validates a drug name query
	ValidateDrugName(input string) error

	// ValidateURL validates a user-supplied URL
	ValidateURL(input string) error
}
