package core

import (
	"os"
	"path/filepath"
	"strings"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// NormalizeGroup is the canonical form used whenever two group names are compared.
// Groups are typed by hand, so " исп-029 " and "ИСП-029" must be the same group.
func NormalizeGroup(group string) string {
	return CleanString(group, true /* lower */)
}

// SameGroup reports whether a and b name the same non-empty group.
func SameGroup(a, b string) bool {
	na := NormalizeGroup(a)
	return na != "" && na == NormalizeGroup(b)
}

// Getwd tries to find the project root (the directory holding go.mod).
// go-test changes the working directory to the test package being run during tests,
// so the root is searched upwards; the working directory is returned if none is found.
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	currDir := wd
	for {
		if fi, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil && !fi.IsDir() {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}
