package vlc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionConfigArgv(t *testing.T) {
	tests := []struct {
		name string
		cfg  SessionConfig
		want []string
	}{
		{"empty", SessionConfig{Verbosity: -1}, nil},
		{"zero verbosity is forwarded", SessionConfig{}, []string{"--verbose=0"}},
		{"everything", SessionConfig{
			PluginPath:   "/usr/lib/vlc/plugins",
			Verbosity:    2,
			Quiet:        true,
			NoVideoTitle: true,
			Args:         []string{"--no-xlib"},
		}, []string{
			"--plugin-path=/usr/lib/vlc/plugins", "--verbose=2", "--quiet", "--no-video-title-show", "--no-xlib",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.Argv())
		})
	}
}

func TestDefaultSessionConfig(t *testing.T) {
	t.Setenv("VLC_PLUGIN_PATH", "/opt/vlc/modules")
	cfg := DefaultSessionConfig()
	assert.Equal(t, "/opt/vlc/modules", cfg.PluginPath)
	assert.Equal(t, []string{"--plugin-path=/opt/vlc/modules"}, cfg.Argv())
}
