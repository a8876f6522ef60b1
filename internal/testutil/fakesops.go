// Package testutil provides helpers shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeSopsScript stands in for the sops binary. It decrypts by printing the
// file unchanged and records every --set expression in "<file>.sets".
// A "<file>.fail" marker makes decryption fail, "<file>.setfail" makes every
// set fail. Each invocation's arguments are appended to the log.
const fakeSopsScript = `#!/bin/sh
printf '%s\n' "$*" >> '@LOG@'
while [ $# -gt 0 ]; do
	case "$1" in
	--decrypt)
		shift
		if [ -f "$1.fail" ]; then
			echo "Error: could not decrypt $1" >&2
			exit 128
		fi
		cat "$1"
		exit 0
		;;
	--set)
		shift
		expr="$1"
		shift
		if [ -f "$1.setfail" ]; then
			echo "Error: could not set $expr" >&2
			exit 1
		fi
		printf '%s\n' "$expr" >> "$1.sets"
		exit 0
		;;
	*)
		shift
		;;
	esac
done
echo "unsupported invocation" >&2
exit 2
`

// FakeSops is a scripted sops binary living in a test temp dir
type FakeSops struct {
	Binary string
	Log    string
}

// NewFakeSops writes the fake sops script into a fresh temp dir
func NewFakeSops(t *testing.T) *FakeSops {
	t.Helper()

	dir := t.TempDir()
	logPath := filepath.Join(dir, "invocations.log")
	binary := filepath.Join(dir, "sops")

	script := strings.ReplaceAll(fakeSopsScript, "@LOG@", logPath)
	if err := os.WriteFile(binary, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write fake sops: %v", err)
	}

	return &FakeSops{Binary: binary, Log: logPath}
}

// Invocations returns the argument lines of every call made so far
func (f *FakeSops) Invocations(t *testing.T) []string {
	t.Helper()
	return readLines(t, f.Log)
}

// Sets returns the --set expressions recorded for the secrets file at path
func (f *FakeSops) Sets(t *testing.T, path string) []string {
	t.Helper()
	return readLines(t, path+".sets")
}

// FailDecrypt makes decryption of path fail
func FailDecrypt(t *testing.T, path string) {
	t.Helper()
	touch(t, path+".fail")
}

// FailSet makes every set on path fail
func FailSet(t *testing.T, path string) {
	t.Helper()
	touch(t, path+".setfail")
}

// WriteSecretsFile writes content to name inside a fresh temp dir and returns
// its path
func WriteSecretsFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write secrets file: %v", err)
	}
	return path
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}
