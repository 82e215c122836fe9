package core

import (
	"log"
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

// Getwd tries to find the project root (the directory holding go.mod).
// go-test changes the working directory to the test package being run during tests,
// so walk up until go.mod is found; fall back to the current directory.
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	currDir := wd
	for {
		if fi, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil && !fi.IsDir() {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}

// ContainsString reports whether `s` is in `slice`.
func ContainsString(slice []string, s string) bool {
	for _, item := range slice {
		if item == s {
			return true
		}
	}
	return false
}

// RemoveString returns `slice` without any occurrence of `s`, and whether something was removed.
func RemoveString(slice []string, s string) ([]string, bool) {
	res := make([]string, 0, len(slice))
	for _, item := range slice {
		if item != s {
			res = append(res, item)
		}
	}
	return res, len(res) != len(slice)
}

// AddString appends `s` to `slice` unless already present.
func AddString(slice []string, s string) []string {
	if ContainsString(slice, s) {
		return slice
	}
	return append(slice, s)
}
