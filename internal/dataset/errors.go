package dataset

import "fmt"

// ConfigError reports that a required analytics input is missing or
// malformed: a file that does not exist, a schema with missing columns,
// or a temporal column that never parses. It is fatal to the engine that
// owns the dataset and is cached by the lazy holder, so the same error
// text is surfaced on every subsequent use.
type ConfigError struct {
	msg string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return e.msg
}

// Configf builds a ConfigError with fmt-style formatting.
func Configf(format string, args ...any) error {
	return &ConfigError{msg: fmt.Sprintf(format, args...)}
}
