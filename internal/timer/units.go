package timer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/aatumaykin/trash-expiry/internal/logger"
)

const (
	// UnitName is the base name shared by the service and the timer.
	UnitName    = "trash-expiry"
	ServiceFile = UnitName + ".service"
	TimerFile   = UnitName + ".timer"
)

// Units holds the rendered unit files.
type Units struct {
	Service string
	Timer   string
}

// Render builds the oneshot service running exe and the timer firing it on
// sched. configPath is passed with --config when not empty.
func Render(exe, configPath string, sched Schedule) Units {
	execStart := quote(exe)
	if configPath != "" {
		execStart += " --config " + quote(configPath)
	}

	var service strings.Builder
	service.WriteString("[Unit]\n")
	service.WriteString("Description=Delete expired items from the trash\n")
	service.WriteString("Documentation=https://specifications.freedesktop.org/trash-spec/latest/\n")
	service.WriteString("\n[Service]\n")
	service.WriteString("Type=oneshot\n")
	fmt.Fprintf(&service, "ExecStart=%s\n", execStart)
	service.WriteString("Nice=10\n")
	service.WriteString("IOSchedulingClass=idle\n")

	var timer strings.Builder
	timer.WriteString("[Unit]\n")
	timer.WriteString("Description=Periodic trash expiry\n")
	timer.WriteString("\n[Timer]\n")
	if sched.Every > 0 {
		fmt.Fprintf(&timer, "OnActiveSec=%ds\n", int64(sched.Every.Seconds()))
		fmt.Fprintf(&timer, "OnUnitActiveSec=%ds\n", int64(sched.Every.Seconds()))
	} else {
		fmt.Fprintf(&timer, "OnCalendar=%s\n", sched.OnCalendar)
		timer.WriteString("Persistent=true\n")
	}
	timer.WriteString("\n[Install]\n")
	timer.WriteString("WantedBy=timers.target\n")

	return Units{Service: service.String(), Timer: timer.String()}
}

// quote wraps s in double quotes when systemd would otherwise split it.
func quote(s string) string {
	if !strings.ContainsAny(s, " \t\"'\\") {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

// DefaultDir returns the systemd user unit directory,
// $XDG_CONFIG_HOME/systemd/user.
func DefaultDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "systemd", "user"), nil
}

// Install writes units into dir. Files whose content is already identical
// are left untouched; the result reports whether anything was written.
func Install(dir string, units Units) (bool, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, fmt.Errorf("failed to create unit directory %s: %w", dir, err)
	}

	changed := false
	for name, content := range map[string]string{ServiceFile: units.Service, TimerFile: units.Timer} {
		wrote, err := writeIfChanged(filepath.Join(dir, name), []byte(content))
		if err != nil {
			return changed, err
		}
		changed = changed || wrote
	}
	return changed, nil
}

func writeIfChanged(path string, content []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, content) {
		return false, nil
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}

// CommandRunner runs an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Systemctl runs commands with os/exec, returning stderr in the error.
func Systemctl(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, msg)
		}
		return fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return nil
}

// Enable reloads the user manager and enables the timer.
func Enable(ctx context.Context, run CommandRunner, log *logger.Logger) error {
	if run == nil {
		run = Systemctl
	}
	if log == nil {
		log = logger.Discard()
	}
	steps := [][]string{
		{"--user", "daemon-reload"},
		{"--user", "enable", "--now", TimerFile},
	}
	for _, args := range steps {
		log.Debug("running systemctl", logger.Field{Key: "args", Value: strings.Join(args, " ")})
		if err := run(ctx, "systemctl", args...); err != nil {
			return err
		}
	}
	log.Info("systemd timer enabled", logger.Field{Key: "unit", Value: TimerFile})
	return nil
}
