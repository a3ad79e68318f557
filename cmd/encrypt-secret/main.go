// Command encrypt-secret encrypts a sensitive configuration value into
// its ENC: form for use in .env files. Input is read with echo disabled.
package main

import (
	"fmt"
	"os"

	"github.com/shic-it/feishu-approval-mailer/internal/secret"
	"golang.org/x/term"
)

func main() {
	fmt.Println("Enter the value to encrypt (input hidden):")
	fmt.Print("> ")

	value, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read input: %v\n", err)
		os.Exit(1)
	}
	if len(value) == 0 {
		fmt.Fprintln(os.Stderr, "Empty value, nothing to encrypt")
		os.Exit(1)
	}

	fmt.Printf("\nEncrypted value (copy to .env):\n%s\n", secret.Encrypt(string(value)))
}
