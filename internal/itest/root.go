//go:build integration

// Package itest runs the reelcut binary and the ffmpeg adapter against real
// tools. Build with -tags integration.
package itest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

const (
	modulePath = "github.com/forPelevin/reelcut"
	cliPackage = "./cmd/reelcut"
)

// findRepoRoot walks up from the working directory to the go.mod that
// declares modulePath.
func findRepoRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		b, err := os.ReadFile(filepath.Join(wd, "go.mod"))
		if err == nil && bytes.Contains(b, []byte("module "+modulePath+"\n")) {
			return wd, nil
		}
		parent := filepath.Dir(wd)
		if parent == wd {
			return "", fmt.Errorf("no go.mod for %s above the working directory", modulePath)
		}
		wd = parent
	}
}
