package enums

import (
	"fmt"
	"strings"
)

// StorageBackend selects the snapshot persistence adapter.
type StorageBackend string

const (
	StorageBackendMemory   StorageBackend = "memory"
	StorageBackendRedis    StorageBackend = "redis"
	StorageBackendPostgres StorageBackend = "postgres"
	StorageBackendSQLite   StorageBackend = "sqlite"
)

var validStorageBackends = []StorageBackend{
	StorageBackendMemory,
	StorageBackendRedis,
	StorageBackendPostgres,
	StorageBackendSQLite,
}

// String implements fmt.Stringer.
func (s StorageBackend) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StorageBackend.
func (s StorageBackend) IsValid() bool {
	for _, candidate := range validStorageBackends {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsSQL reports whether the backend is served by GORM.
func (s StorageBackend) IsSQL() bool {
	return s == StorageBackendPostgres || s == StorageBackendSQLite
}

// ParseStorageBackend converts raw input into a StorageBackend.
func ParseStorageBackend(value string) (StorageBackend, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validStorageBackends {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid storage backend %q", value)
}
