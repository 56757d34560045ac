// Package lookup resolves command names to executable paths.
//
// Names containing a path separator resolve directly, absolute or relative to
// a working directory. Bare names are searched through a PATH-like list. A
// resolved command must be an existing, readable, executable regular file.
package lookup

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/GriffinCanCode/PipeKit/errdefs"
)

// Resolve maps a command name to an executable path. dir anchors relative
// names that contain a separator; pathList (os.PathListSeparator-delimited)
// is searched for bare names.
func Resolve(name, dir, pathList string) (string, error) {
	if name == "" {
		return "", errdefs.Configuration("empty command name")
	}

	if strings.ContainsRune(name, os.PathSeparator) {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		if err := checkExecutable(path); err != nil {
			return "", err
		}
		return path, nil
	}

	return Which(name, pathList)
}

// Which searches every directory in pathList for an executable file named
// name and returns the first hit.
func Which(name, pathList string) (string, error) {
	for _, dir := range filepath.SplitList(pathList) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(expandUser(dir), name)
		if checkExecutable(candidate) == nil {
			return candidate, nil
		}
	}
	return "", errdefs.Configuration("%s: command not found", name)
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errdefs.Configuration("%s: command not found", path)
	}
	if !info.Mode().IsRegular() {
		return errdefs.Configuration("%s: not a regular file", path)
	}
	if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
		return errdefs.Configuration("%s: not readable and executable", path)
	}
	return nil
}

func expandUser(dir string) string {
	if dir == "~" || strings.HasPrefix(dir, "~"+string(os.PathSeparator)) {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, dir[1:])
		}
	}
	return dir
}
