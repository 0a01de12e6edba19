package server

// StorageServerConfig points to the root of the hash-sharded blob tree.
type StorageServerConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type UploadServerConfig struct {
	UILibrary string   `mapstructure:"ui_library" yaml:"ui_library"`
	MaxSize   string   `mapstructure:"max_size"   yaml:"max_size"`
	MimeTypes []string `mapstructure:"mime_types" yaml:"mime_types"`
	MaxFiles  int      `mapstructure:"max_files"  yaml:"max_files"`
}

type HTTPServerConfig struct {
	Address      string `mapstructure:"address"       yaml:"address"`
	ReadTimeout  string `mapstructure:"read_timeout"  yaml:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// RetentionServerConfig controls the periodic draft cleanup run by the agent.
type RetentionServerConfig struct {
	Enabled    bool   `mapstructure:"enabled"      yaml:"enabled"`
	Interval   string `mapstructure:"interval"     yaml:"interval"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Component  string `mapstructure:"component"    yaml:"component"`
}
