package community

import (
	"errors"
	"fmt"
)

// ErrMissingAttribute is the cause of every ConfigurationError raised when a
// node lacks the community attribute.
var ErrMissingAttribute = errors.New("community attribute missing")

// ConfigurationError reports that community features were requested but
// the graph does not carry the community attribute on every node.
type ConfigurationError struct {
	Key    string // Attribute that was looked up
	NodeID uint64 // First node found without it
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("node %d has no %q attribute: run community detection first", e.NodeID, e.Key)
}

// Unwrap returns ErrMissingAttribute so callers can match with errors.Is.
func (e *ConfigurationError) Unwrap() error {
	return ErrMissingAttribute
}

// IsConfigurationError reports whether err carries a ConfigurationError
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
