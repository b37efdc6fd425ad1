// Package config loads shadowlet configuration from the project config file,
// environment variables and CLI flags.
package config

// Config holds the resolved shadowlet configuration.
type Config struct {
	// Namespace is the namespace the session starts in.
	Namespace string `koanf:"namespace"`

	// InitFiles are source files evaluated at startup, in order. Relative
	// paths resolve against the project root.
	InitFiles []string `koanf:"init_files"`

	// StatePath is the SQLite database holding shadow snapshots.
	StatePath string `koanf:"state_path"`

	// HistoryFile is the readline history file.
	HistoryFile string `koanf:"history_file"`

	// Prompt is the REPL prompt template; %s is the current namespace.
	Prompt string `koanf:"prompt"`

	// WatchInit re-evaluates init files when they change on disk.
	WatchInit bool `koanf:"watch_init"`

	// Output selects the shadows listing format: table or plain.
	Output string `koanf:"output"`

	Verbose bool `koanf:"verbose"`

	// ProjectRoot is the directory the config file was found in (or the
	// working directory). Not read from the file itself.
	ProjectRoot string `koanf:"-"`
}
