//go:build !windows
// +build !windows

package flags

import (
	"fmt"
	"os"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh/terminal"
)

// askPassword prompts on the controlling terminal, which may differ from
// stdin when a request body is piped in.
func askPassword(userName string) (string, error) {
	fd := syscall.Stdin
	if !terminal.IsTerminal(fd) {
		tty, err := os.Open("/dev/tty")
		if err != nil {
			return "", errors.Wrap(err, "failed to allocate terminal")
		}
		defer tty.Close()
		fd = int(tty.Fd())
	}

	fmt.Fprintf(os.Stderr, "Password for %s: ", userName)
	password, err := terminal.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errors.Wrap(err, "failed to read password from terminal")
	}
	return string(password), nil
}
