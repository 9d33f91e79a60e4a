package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/aatumaykin/trash-expiry/internal/expiry"
	"github.com/aatumaykin/trash-expiry/internal/trash"
)

func resetFlags() {
	configPath = ""
	debug = false
	dryRun = false
	installTimer = false
	enableTimer = false
	listFormat = "text"
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestRootFlags(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantConfig string
		wantDebug  bool
		wantDryRun bool
	}{
		{
			name:       "with config flag",
			args:       []string{"--config", "test.toml"},
			wantConfig: "test.toml",
		},
		{
			name:      "with debug flag",
			args:      []string{"--debug"},
			wantDebug: true,
		},
		{
			name:       "short flags",
			args:       []string{"-c", "test.toml", "-d", "-n"},
			wantConfig: "test.toml",
			wantDebug:  true,
			wantDryRun: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			t.Cleanup(resetFlags)

			require.NoError(t, rootCmd.ParseFlags(tt.args))

			assert.Equal(t, tt.wantConfig, configPath)
			assert.Equal(t, tt.wantDebug, debug)
			assert.Equal(t, tt.wantDryRun, dryRun)
		})
	}
}

func TestCommandStructure(t *testing.T) {
	found := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		found[cmd.Name()] = true
	}
	for _, name := range []string{"version", "config", "list", "daemon"} {
		assert.True(t, found[name], "command %q not registered", name)
	}

	sub := make(map[string]bool)
	for _, cmd := range configCmd.Commands() {
		sub[cmd.Name()] = true
	}
	assert.True(t, sub["validate"])
	assert.True(t, sub["path"])

	assert.NotNil(t, rootCmd.Flags().Lookup("install-timer"))
	assert.NotNil(t, rootCmd.Flags().Lookup("enable"))
	assert.NotNil(t, listCmd.Flags().Lookup("format"))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitFailure, exitCode(&exitError{code: exitFailure}))
	assert.Equal(t, exitFatal, exitCode(&exitError{code: exitFatal, err: trash.ErrNoHome}))
	assert.Equal(t, exitFatal, exitCode(errors.New("unknown flag: --bogus")))

	err := &exitError{code: exitFatal, err: trash.ErrNoHome}
	assert.ErrorIs(t, err, trash.ErrNoHome)
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "trash-expiry")
	assert.Contains(t, out, "Version:")
}

func TestConfigPathCmd(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")

	out, err := execute(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/xdg-test/trash-expiry/config.toml\n", out)

	out, err = execute(t, "config", "path", "--config", "/etc/custom.toml")
	require.NoError(t, err)
	assert.Equal(t, "/etc/custom.toml\n", out)
}

func TestConfigValidateCmd(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantErr  bool
		contains []string
	}{
		{
			name:     "valid",
			content:  "warn_after_days = 20\ndelete_after_days = 30\nschedule = \"0 3 * * *\"\n",
			contains: []string{"Configuration is valid", "warn_after_days:   20", "delete_after_days: 30"},
		},
		{
			name:     "warn after delete",
			content:  "warn_after_days = 40\ndelete_after_days = 30\n",
			wantErr:  true,
			contains: []string{"1 problem(s)", "warn_after_days (40) is greater than delete_after_days (30)"},
		},
		{
			name:     "malformed values and bad pattern",
			content:  "warn_after_days = \"soon\"\nprotect = [\"(unclosed\"]\n",
			wantErr:  true,
			contains: []string{"2 problem(s)", "warn_after_days", "protect pattern"},
		},
		{
			name:     "unknown keys are listed",
			content:  "colour = \"red\"\n",
			contains: []string{"ignored unknown key: colour", "Configuration is valid"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)

			out, err := execute(t, "config", "validate", path)

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, exitFailure, exitCode(err))
			} else {
				require.NoError(t, err)
			}
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
		})
	}
}

func TestEnableRequiresInstallTimer(t *testing.T) {
	_, err := execute(t, "--enable")

	require.Error(t, err)
	assert.Equal(t, exitFatal, exitCode(err))
}

func TestInstallTimer(t *testing.T) {
	root := t.TempDir()
	t.Setenv("HOME", filepath.Join(root, "home"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "xdg"))
	cfg := writeConfig(t, "schedule = \"30 4 * * 1-5\"\n[logging]\noutput = \""+filepath.Join(root, "log.txt")+"\"\n")

	_, err := execute(t, "--install-timer", "--config", cfg)
	require.NoError(t, err)

	unitDir := filepath.Join(root, "xdg", "systemd", "user")
	timerUnit, err := os.ReadFile(filepath.Join(unitDir, "trash-expiry.timer"))
	require.NoError(t, err)
	assert.Contains(t, string(timerUnit), "OnCalendar=Mon,Tue,Wed,Thu,Fri *-*-* 04:30:00\n")

	service, err := os.ReadFile(filepath.Join(unitDir, "trash-expiry.service"))
	require.NoError(t, err)
	assert.Contains(t, string(service), "Type=oneshot")
	assert.Contains(t, string(service), "--config "+cfg)
}

func TestWriteList(t *testing.T) {
	deleted := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)
	entries := []expiry.Entry{
		{
			Directory: trash.Directory{Path: "/home/u/.local/share/Trash"},
			Item: trash.Item{
				Name:        "report.pdf",
				ContentPath: "/home/u/.local/share/Trash/files/report.pdf",
				Info:        trash.Info{OriginalPath: "/home/u/report.pdf", DeletionDate: deleted},
			},
			Class: expiry.ClassExpired,
			Age:   70 * expiry.Day,
		},
		{
			Directory: trash.Directory{Path: "/home/u/.local/share/Trash"},
			Item: trash.Item{
				Name: "odd",
				Info: trash.Info{OriginalPath: "/home/u/odd", DateErr: trash.ErrDateUnparsable},
			},
			Class: expiry.ClassUnknown,
		},
	}

	t.Run("text", func(t *testing.T) {
		buf := &bytes.Buffer{}
		require.NoError(t, writeList(buf, "text", entries))

		out := buf.String()
		assert.Contains(t, out, "CLASS")
		assert.Contains(t, out, "expired")
		assert.Contains(t, out, "70d")
		assert.Contains(t, out, "2024-03-01T12:00:00")
		assert.Contains(t, out, "/home/u/report.pdf")
		assert.Contains(t, out, "unknown")
	})

	t.Run("yaml", func(t *testing.T) {
		buf := &bytes.Buffer{}
		require.NoError(t, writeList(buf, "yaml", entries))

		var decoded []map[string]any
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
		require.Len(t, decoded, 2)
		assert.Equal(t, "expired", decoded[0]["class"])
		assert.Equal(t, 70, decoded[0]["age_days"])
		assert.Equal(t, "/home/u/report.pdf", decoded[0]["original_path"])
		assert.Equal(t, "unknown", decoded[1]["class"])
		assert.Nil(t, decoded[1]["age_days"])
		assert.NotContains(t, decoded[1], "deletion_date")
	})
}

func TestListRejectsUnknownFormat(t *testing.T) {
	_, err := execute(t, "list", "--format", "json")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}
