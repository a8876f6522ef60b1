// Package sops wraps the sops binary, which owns encryption, decryption and
// in-place rewriting of secrets files.
package sops

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"unicode/utf8"

	"github.com/schaermu/sops-shell/internal/failure"
)

// DefaultBinary is the sops executable looked up in PATH by default
const DefaultBinary = "sops"

// Client provides the encrypted file operations needed by a sync
type Client interface {
	// Decrypt returns the full plaintext of the file at path
	Decrypt(ctx context.Context, path string) (string, error)
	// Set encrypts value and stores it under key in the file at path
	Set(ctx context.Context, path, key, value string) error
}

// ShellClient implements Client by shelling out to the sops command
type ShellClient struct {
	binary string
	args   []string
}

// NewShellClient creates a sops client. args are passed before every
// operation's own flags.
func NewShellClient(binary string, args []string) *ShellClient {
	if binary == "" {
		binary = DefaultBinary
	}
	return &ShellClient{
		binary: binary,
		args:   args,
	}
}

// Decrypt runs "sops --decrypt" on path
func (c *ShellClient) Decrypt(ctx context.Context, path string) (string, error) {
	out, err := c.run(ctx, "--decrypt", path)
	if err != nil {
		return "", failure.New(failure.Decrypt, err).WithPath(path)
	}

	if !utf8.Valid(out) {
		return "", failure.Errorf(failure.Encoding, "decrypted content is not valid UTF-8").WithPath(path)
	}

	return string(out), nil
}

// Set runs "sops --set" to replace the value of a top-level key
func (c *ShellClient) Set(ctx context.Context, path, key, value string) error {
	expr := FormatKey(key) + " " + FormatValue(value)
	if _, err := c.run(ctx, "--set", expr, path); err != nil {
		return failure.New(failure.SetValue, err).WithPath(path).WithKey(key)
	}
	return nil
}

// run executes sops and returns stdout, or an error carrying stderr
func (c *ShellClient) run(ctx context.Context, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(c.binary); err != nil {
		return nil, fmt.Errorf("sops command not found, install sops or ensure %q is in PATH: %w", c.binary, err)
	}

	full := make([]string, 0, len(c.args)+len(args))
	full = append(full, c.args...)
	full = append(full, args...)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.binary, full...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("sops %s failed: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}

	return stdout.Bytes(), nil
}

// FormatKey renders key as a sops tree path selecting a top-level entry
func FormatKey(key string) string {
	return "[" + encode(key) + "]"
}

// FormatValue renders value as a JSON literal for "sops --set". Text that is
// already valid JSON keeps its type (numbers, booleans, objects); anything
// else becomes a JSON string.
func FormatValue(value string) string {
	if json.Valid([]byte(value)) {
		dec := json.NewDecoder(strings.NewReader(value))
		dec.UseNumber()

		var parsed any
		if err := dec.Decode(&parsed); err == nil {
			return encode(parsed)
		}
	}
	return encode(value)
}

// encode marshals v compactly without HTML escaping
func encode(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%q", fmt.Sprint(v))
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
