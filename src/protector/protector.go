//go:build !openbsd

// Package protector restricts the process on systems that support it
package protector

// Protect does nothing on this OS
func Protect() error {
	return nil
}
