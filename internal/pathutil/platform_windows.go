//go:build windows

package pathutil

import "strings"

// longPath prepends the \\?\ prefix Windows needs to address paths longer
// than MAX_PATH, unless it is already present or the path is a UNC share
// (which uses \\?\UNC\ instead).
func longPath(path string) string {
	if strings.HasPrefix(path, `\\?\`) {
		return path
	}
	if strings.HasPrefix(path, `\\`) {
		return `\\?\UNC\` + path[2:]
	}
	return `\\?\` + path
}
