package timer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"@daily", "daily"},
		{"@midnight", "daily"},
		{"@weekly", "weekly"},
		{"@annually", "yearly"},
		{"@hourly", "hourly"},
		{"0 3 * * *", "*-*-* 03:00:00"},
		{"30 2 * * 1-5", "Mon,Tue,Wed,Thu,Fri *-*-* 02:30:00"},
		{"0 0 * * 0", "Sun *-*-* 00:00:00"},
		{"0 0 * * 7", "Sun *-*-* 00:00:00"},
		{"0 0 * * SAT,sun", "Sat,Sun *-*-* 00:00:00"},
		{"*/15 * * * *", "*-*-* *:00/15:00"},
		{"0 9-17 * * *", "*-*-* 09..17:00:00"},
		{"0 1-5/2 * * *", "*-*-* 01,03,05:00:00"},
		{"0,30 6 1 * *", "*-*-01 06:00,30:00"},
		{"0 0 1 */3 *", "*-01/3-01 00:00:00"},
		{"0 4 * JAN-MAR *", "*-01..03-* 04:00:00"},
		{"CRON_TZ=UTC 0 3 * * *", "*-*-* 03:00:00 UTC"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Translate(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.OnCalendar)
			assert.Zero(t, got.Every)
		})
	}
}

func TestTranslate_Every(t *testing.T) {
	got, err := Translate("@every 6h")
	require.NoError(t, err)
	assert.Equal(t, 6*time.Hour, got.Every)
	assert.Empty(t, got.OnCalendar)
}

func TestTranslate_Errors(t *testing.T) {
	tests := []struct {
		name        string
		expr        string
		unsupported bool
	}{
		{name: "garbage", expr: "daily please"},
		{name: "too many fields", expr: "0 0 3 * * *"},
		{name: "out of range", expr: "61 * * * *"},
		{name: "both day fields", expr: "0 0 13 * 5", unsupported: true},
		{name: "sub-second interval", expr: "@every 500ms", unsupported: true},
		{name: "zero interval", expr: "@every 0s", unsupported: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Translate(tt.expr)
			require.Error(t, err)
			assert.Equal(t, tt.unsupported, errors.Is(err, ErrUnsupported))
		})
	}
}

func TestRender(t *testing.T) {
	units := Render("/usr/local/bin/trash-expiry", "", Schedule{OnCalendar: "daily"})

	assert.Contains(t, units.Service, "Type=oneshot\n")
	assert.Contains(t, units.Service, "ExecStart=/usr/local/bin/trash-expiry\n")
	assert.Contains(t, units.Timer, "OnCalendar=daily\n")
	assert.Contains(t, units.Timer, "Persistent=true\n")
	assert.Contains(t, units.Timer, "WantedBy=timers.target\n")
}

func TestRender_QuotesAndInterval(t *testing.T) {
	units := Render("/opt/my tools/trash-expiry", "/home/u/.config/trash-expiry/config.toml", Schedule{Every: 90 * time.Minute})

	assert.Contains(t, units.Service,
		`ExecStart="/opt/my tools/trash-expiry" --config /home/u/.config/trash-expiry/config.toml`)
	assert.Contains(t, units.Timer, "OnUnitActiveSec=5400s\n")
	assert.NotContains(t, units.Timer, "OnCalendar=")
}

func TestInstall(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "systemd", "user")
	units := Render("/usr/bin/trash-expiry", "", Schedule{OnCalendar: "daily"})

	changed, err := Install(dir, units)
	require.NoError(t, err)
	assert.True(t, changed)

	service, err := os.ReadFile(filepath.Join(dir, ServiceFile))
	require.NoError(t, err)
	assert.Equal(t, units.Service, string(service))
	timer, err := os.ReadFile(filepath.Join(dir, TimerFile))
	require.NoError(t, err)
	assert.Equal(t, units.Timer, string(timer))

	// second install with identical content touches nothing
	before, err := os.Stat(filepath.Join(dir, TimerFile))
	require.NoError(t, err)
	changed, err = Install(dir, units)
	require.NoError(t, err)
	assert.False(t, changed)
	after, err := os.Stat(filepath.Join(dir, TimerFile))
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())

	// a new schedule rewrites the timer
	changed, err = Install(dir, Render("/usr/bin/trash-expiry", "", Schedule{OnCalendar: "weekly"}))
	require.NoError(t, err)
	assert.True(t, changed)
	timer, err = os.ReadFile(filepath.Join(dir, TimerFile))
	require.NoError(t, err)
	assert.Contains(t, string(timer), "OnCalendar=weekly")
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")

	dir, err := DefaultDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/xdg-config/systemd/user", dir)
}

func TestEnable(t *testing.T) {
	var calls []string
	run := func(_ context.Context, name string, args ...string) error {
		calls = append(calls, name+" "+strings.Join(args, " "))
		return nil
	}

	require.NoError(t, Enable(context.Background(), run, nil))
	assert.Equal(t, []string{
		"systemctl --user daemon-reload",
		"systemctl --user enable --now trash-expiry.timer",
	}, calls)
}

func TestEnable_StopsOnFailure(t *testing.T) {
	calls := 0
	run := func(context.Context, string, ...string) error {
		calls++
		return errors.New("Failed to connect to bus")
	}

	err := Enable(context.Background(), run, nil)
	assert.ErrorContains(t, err, "Failed to connect to bus")
	assert.Equal(t, 1, calls)
}
