package indexer

import "fmt"

// ConfigError reports an invalid chunking or pipeline setting.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
