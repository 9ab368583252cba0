package vlc

import (
	"os"
	"strconv"
)

// SessionConfig describes the arguments a session is created with.
type SessionConfig struct {
	// PluginPath is forwarded as --plugin-path. Defaults to
	// $VLC_PLUGIN_PATH.
	PluginPath string

	// Verbosity is forwarded as --verbose. Negative leaves libvlc's
	// default.
	Verbosity int

	// Quiet passes --quiet.
	Quiet bool

	// NoVideoTitle passes --no-video-title-show.
	NoVideoTitle bool

	// Args are appended verbatim after the options above.
	Args []string
}

// DefaultSessionConfig reads the environment overrides.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		PluginPath: os.Getenv("VLC_PLUGIN_PATH"),
		Verbosity:  -1,
	}
}

// Argv returns the arguments the config expands to, without argv[0].
func (c SessionConfig) Argv() []string {
	var args []string
	if c.PluginPath != "" {
		args = append(args, "--plugin-path="+c.PluginPath)
	}
	if c.Verbosity >= 0 {
		args = append(args, "--verbose="+strconv.Itoa(c.Verbosity))
	}
	if c.Quiet {
		args = append(args, "--quiet")
	}
	if c.NoVideoTitle {
		args = append(args, "--no-video-title-show")
	}
	return append(args, c.Args...)
}
