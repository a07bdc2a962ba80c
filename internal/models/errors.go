package models

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType int

const (
	ErrDuplicatePackage ErrorType = iota
	ErrPackageNotFound
	ErrInvalidFilenameFormat
	ErrFileNotFound
	ErrTransferFailure
	ErrRenderFailure
	ErrRegistryCorrupt
	ErrInvalidConfig
	ErrSigning
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrDuplicatePackage:
		return "DuplicatePackage"
	case ErrPackageNotFound:
		return "PackageNotFound"
	case ErrInvalidFilenameFormat:
		return "InvalidFilenameFormat"
	case ErrFileNotFound:
		return "FileNotFound"
	case ErrTransferFailure:
		return "TransferFailure"
	case ErrRenderFailure:
		return "RenderFailure"
	case ErrRegistryCorrupt:
		return "RegistryCorrupt"
	case ErrInvalidConfig:
		return "InvalidConfig"
	case ErrSigning:
		return "Signing"
	default:
		return "Unknown"
	}
}

// WheelhouseError represents an error raised by a registry, upload or render operation
type WheelhouseError struct {
	Type    ErrorType
	Package string
	Err     error
}

// Error implements the error interface
func (e *WheelhouseError) Error() string {
	if e.Package != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Package, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Type, e.Err)
}

// Unwrap returns the wrapped error
func (e *WheelhouseError) Unwrap() error {
	return e.Err
}

// NewError builds a WheelhouseError of the given type
func NewError(t ErrorType, pkg string, err error) *WheelhouseError {
	return &WheelhouseError{Type: t, Package: pkg, Err: err}
}

// IsErrorType reports whether err, or any error it wraps, is a WheelhouseError of type t
func IsErrorType(err error, t ErrorType) bool {
	var werr *WheelhouseError
	for err != nil {
		if !errors.As(err, &werr) {
			return false
		}
		if werr.Type == t {
			return true
		}
		err = werr.Err
	}
	return false
}
