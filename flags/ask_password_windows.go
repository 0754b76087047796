//go:build windows
// +build windows

package flags

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh/terminal"
)

func askPassword(userName string) (string, error) {
	fmt.Fprintf(os.Stderr, "Password for %s: ", userName)
	password, err := terminal.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errors.Wrap(err, "failed to read password from terminal")
	}
	return string(password), nil
}
