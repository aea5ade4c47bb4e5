//go:build windows

package runner

// fixOutputProcessing is a no-op: console output translation is not
// affected by raw input mode on Windows.
func fixOutputProcessing(fd int) {}
