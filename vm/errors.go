package vm

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAddress is matched by errors raised for addresses whose page
	// number falls outside the address space.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrConfiguration is matched by errors raised for bad frame counts,
	// unknown replacement algorithms and malformed inputs.
	ErrConfiguration = errors.New("configuration error")
)

// InvalidAddressError reports an address that cannot be decoded.
type InvalidAddressError struct {
	Address    uint32
	PageNumber PageNumber
	NumPages   uint32
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid address %d: page %d out of range [0, %d)",
		e.Address, e.PageNumber, e.NumPages)
}

// Is makes errors.Is(err, ErrInvalidAddress) succeed.
func (e *InvalidAddressError) Is(target error) bool {
	return target == ErrInvalidAddress
}

// ConfigError reports a configuration value that cannot be used.
type ConfigError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Is makes errors.Is(err, ErrConfiguration) succeed.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}
