package store

import (
	"fmt"
	"slices"
	"strings"
)

// Store drivers.
const (
	DriverBolt = "bbolt"
	DriverJSON = "json"
)

// SupportedDrivers lists all available store drivers.
var SupportedDrivers = []string{DriverBolt, DriverJSON}

// IsSupportedDriver reports whether NewStore accepts driver.
func IsSupportedDriver(driver string) bool {
	return slices.Contains(SupportedDrivers, normalizeDriver(driver))
}

func normalizeDriver(driver string) string {
	return strings.ToLower(strings.TrimSpace(driver))
}

// NewStore opens the build history at path with the named driver:
//   - "bbolt": one bbolt file, builds keyed per job by number
//   - "json": one JSON file rewritten on every save, for tests and small setups
func NewStore(driver, path string) (Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store path is required")
	}

	switch normalizeDriver(driver) {
	case DriverBolt:
		return NewBoltStore(path)
	case DriverJSON:
		return NewJSONStore(path)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s (supported: %v)", driver, SupportedDrivers)
	}
}
