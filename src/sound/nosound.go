//go:build nosound

package sound

// DefaultBackend returns the backend sounds are played with
func DefaultBackend() Backend {
	return SilentBackend{}
}
