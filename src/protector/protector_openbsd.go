//go:build openbsd

package protector

import "golang.org/x/sys/unix"

// Protect pledges what the engine needs: reading assets, writing saves and
// logs, the terminal and the audio device
func Protect() error {
	return unix.PledgePromises("stdio rpath wpath cpath flock tty audio")
}
