package keystore

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	terminal "golang.org/x/term"
)

const passwordAttempts = 3

// GetPassword prompts on the controlling terminal for a keystore password.
func GetPassword(msg string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !terminal.IsTerminal(fd) {
		return nil, errors.Errorf("stdin is not a terminal, set %s instead", EnvPassword)
	}
	var lastErr error
	for i := 0; i < passwordAttempts; i++ {
		fmt.Println(msg)
		fmt.Print("> ")
		password, err := terminal.ReadPassword(fd)
		fmt.Printf("\n")
		if err != nil {
			fmt.Printf("invalid input: %s\n", err)
			lastErr = err
			continue
		}
		return password, nil
	}
	return nil, errors.Wrap(lastErr, "read password")
}
