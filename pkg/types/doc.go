// Package types defines the Catalog interface, the BeerRecord entity,
// configuration, and standard error values for the taplist local cache.
package types
