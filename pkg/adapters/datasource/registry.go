package datasource

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// AdapterInfo describes a registered adapter.
type AdapterInfo struct {
	Type        string `json:"type"`         // "postgres", "mysql", "sqlserver"
	DisplayName string `json:"display_name"` // "PostgreSQL", "MySQL"
	Description string `json:"description"`
}

// AdapterRegistration contains info plus the discoverer factory.
type AdapterRegistration struct {
	Info                    AdapterInfo
	SchemaDiscovererFactory func(ctx context.Context, cfg Config, logger *zap.Logger) (SchemaDiscoverer, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]AdapterRegistration)
)

// Register is called by each adapter's init() function.
// Thread-safe for concurrent init() calls.
func Register(reg AdapterRegistration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Info.Type] = reg
}

// RegisteredAdapters returns info for all registered adapters.
func RegisteredAdapters() []AdapterInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]AdapterInfo, 0, len(registry))
	for _, reg := range registry {
		result = append(result, reg.Info)
	}
	return result
}

// GetSchemaDiscovererFactory returns the discoverer factory for a datasource
// type, or nil if the type is not registered.
func GetSchemaDiscovererFactory(dsType string) func(ctx context.Context, cfg Config, logger *zap.Logger) (SchemaDiscoverer, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if reg, ok := registry[dsType]; ok {
		return reg.SchemaDiscovererFactory
	}
	return nil
}

// IsRegistered checks if an adapter type is available.
func IsRegistered(dsType string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[dsType]
	return ok
}
