//go:build !windows

package pathutil

// longPath is a no-op outside Windows; POSIX has no MAX_PATH limit mux-media
// needs to work around.
func longPath(path string) string { return path }
