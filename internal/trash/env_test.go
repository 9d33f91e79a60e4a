package trash_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aatumaykin/trash-expiry/internal/trash"
)

func TestCurrentEnv(t *testing.T) {
	home := t.TempDir()

	tests := []struct {
		name      string
		dataHome  string
		wantTrash string
	}{
		{
			name:      "xdg data home unset",
			dataHome:  "",
			wantTrash: filepath.Join(home, ".local", "share", "Trash"),
		},
		{
			name:      "xdg data home set",
			dataHome:  "/srv/data",
			wantTrash: "/srv/data/Trash",
		},
		{
			name:      "relative xdg data home ignored",
			dataHome:  "relative/data",
			wantTrash: filepath.Join(home, ".local", "share", "Trash"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", home)
			t.Setenv("XDG_DATA_HOME", tt.dataHome)

			env, err := trash.CurrentEnv()
			require.NoError(t, err)

			assert.Equal(t, home, env.Home)
			assert.Equal(t, os.Getuid(), env.UID)
			assert.Equal(t, tt.wantTrash, env.HomeTrash())
		})
	}
}

func TestCurrentEnv_RelativeHome(t *testing.T) {
	t.Setenv("HOME", "not/absolute")

	_, err := trash.CurrentEnv()
	assert.ErrorIs(t, err, trash.ErrNoHome)
}
