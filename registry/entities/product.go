// Package entities defines the data structures for authorized drug products
// parsed from the national registries.
package entities

// Registry source identifiers.
const (
	SourceSwissmedic = "swissmedic"
	SourceFDA        = "fda"
)

// Product is one authorized product row from a registry export.
type Product struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	LicenseHolder   string `json:"licenseHolder"`
	ValidUntil      string `json:"validUntil"`
	ActiveSubstance string `json:"activeSubstance"`
	Source          string `json:"source"`
}
