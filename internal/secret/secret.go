// Package secret implements the at-rest obfuscation scheme for sensitive
// configuration values. Values are XORed with a machine-derived key and
// stored as "ENC:" + base64, so credentials never sit in plain text in
// .env files checked onto a host.
package secret

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
)

// Prefix marks an encrypted configuration value.
const Prefix = "ENC:"

// key derives the 32-byte key from $ENCRYPTION_KEY, falling back to a
// user@hostname machine identity so values are bound to the host that
// encrypted them.
func key() []byte {
	if envKey := os.Getenv("ENCRYPTION_KEY"); envKey != "" {
		sum := sha256.Sum256([]byte(envKey))
		return sum[:]
	}

	user := os.Getenv("USER")
	if user == "" {
		user = "default"
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	sum := sha256.Sum256([]byte(user + "@" + hostname))
	return sum[:]
}

// IsEncrypted reports whether a value carries the ENC: prefix.
func IsEncrypted(value string) bool {
	return len(value) >= len(Prefix) && value[:len(Prefix)] == Prefix
}

// Encrypt obfuscates a plaintext value into its ENC: form.
func Encrypt(plaintext string) string {
	data := xorWithKey([]byte(plaintext), key())
	return Prefix + base64.StdEncoding.EncodeToString(data)
}

// Decrypt recovers the plaintext from an ENC: value. Values without the
// prefix pass through unchanged.
func Decrypt(value string) (string, error) {
	if !IsEncrypted(value) {
		return value, nil
	}

	data, err := base64.StdEncoding.DecodeString(value[len(Prefix):])
	if err != nil {
		return "", fmt.Errorf("failed to decode encrypted value: %w", err)
	}

	return string(xorWithKey(data, key())), nil
}

func xorWithKey(data, key []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ key[i%len(key)]
	}
	return out
}
