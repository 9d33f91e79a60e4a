package trash

import (
	"errors"
	"os"
	"os/user"
	"path/filepath"
)

// ErrNoHome is returned by CurrentEnv when the invoking user's home cannot be
// determined. It is the only condition that aborts a run.
var ErrNoHome = errors.New("cannot determine home directory of the invoking user")

// Env is the process-wide state the locator depends on, captured once at
// startup.
type Env struct {
	UID      int
	Home     string
	DataHome string // $XDG_DATA_HOME or ~/.local/share
}

// CurrentEnv captures the identity and XDG locations of the invoking user.
func CurrentEnv() (Env, error) {
	home := os.Getenv("HOME")
	if home == "" {
		if u, err := user.Current(); err == nil {
			home = u.HomeDir
		}
	}
	if home == "" || !filepath.IsAbs(home) {
		return Env{}, ErrNoHome
	}

	// Relative XDG paths are invalid and must be ignored.
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" || !filepath.IsAbs(dataHome) {
		dataHome = filepath.Join(home, ".local", "share")
	}

	return Env{
		UID:      os.Getuid(),
		Home:     filepath.Clean(home),
		DataHome: filepath.Clean(dataHome),
	}, nil
}

// HomeTrash returns the path of the user's home trash directory.
func (e Env) HomeTrash() string {
	return filepath.Join(e.DataHome, "Trash")
}
