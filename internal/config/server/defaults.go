package server

import "github.com/spf13/viper"

func GetServerDefault() BaseServerConfig {
	return BaseServerConfig{
		ShutdownTimeout: "10s",

		Log: LogServerConfig{
			Level:      "INFO",
			TimeFormat: "2006-01-02 15:04:05",
			File:       "",
			NoColor:    false,
			JSON:       false,
			NoTerminal: false,
			Rotation: LogServerRotationConfig{
				MaxSize:    128,
				MaxBackups: 5,
				MaxAge:     16,
				Compress:   false,
			},
		},

		Metadata: MetadataServerConfig{
			Type: "sqlite",
			SQLite: MetadataSQLiteConfig{
				Path:     "./data/godraft.db",
				LogLevel: "silent",
			},
		},

		Storage: StorageServerConfig{
			Path: "./data/files",
		},

		Upload: UploadServerConfig{
			UILibrary: "fineuploader",
			MaxSize:   "32MB",
			MimeTypes: []string{},
			MaxFiles:  1,
		},

		HTTP: HTTPServerConfig{
			Address:      ":8080",
			ReadTimeout:  "30s",
			WriteTimeout: "60s",
		},

		Retention: RetentionServerConfig{
			Enabled:    true,
			Interval:   "1h",
			MaxAgeDays: 7,
			Component:  "user",
		},
	}
}

func setDefaults() {
	defaults := GetServerDefault()

	viper.SetDefault("shutdown_timeout", defaults.ShutdownTimeout)

	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("log.time_format", defaults.Log.TimeFormat)
	viper.SetDefault("log.file", defaults.Log.File)
	viper.SetDefault("log.no_color", defaults.Log.NoColor)
	viper.SetDefault("log.json", defaults.Log.JSON)
	viper.SetDefault("log.no_terminal", defaults.Log.NoTerminal)
	viper.SetDefault("log.rotation.max_size", defaults.Log.Rotation.MaxSize)
	viper.SetDefault("log.rotation.max_backups", defaults.Log.Rotation.MaxBackups)
	viper.SetDefault("log.rotation.max_age", defaults.Log.Rotation.MaxAge)
	viper.SetDefault("log.rotation.compress", defaults.Log.Rotation.Compress)

	viper.SetDefault("metadata.type", defaults.Metadata.Type)
	viper.SetDefault("metadata.sqlite.path", defaults.Metadata.SQLite.Path)
	viper.SetDefault("metadata.sqlite.log_level", defaults.Metadata.SQLite.LogLevel)

	viper.SetDefault("storage.path", defaults.Storage.Path)

	viper.SetDefault("upload.ui_library", defaults.Upload.UILibrary)
	viper.SetDefault("upload.max_size", defaults.Upload.MaxSize)
	viper.SetDefault("upload.mime_types", defaults.Upload.MimeTypes)
	viper.SetDefault("upload.max_files", defaults.Upload.MaxFiles)

	viper.SetDefault("http.address", defaults.HTTP.Address)
	viper.SetDefault("http.read_timeout", defaults.HTTP.ReadTimeout)
	viper.SetDefault("http.write_timeout", defaults.HTTP.WriteTimeout)

	viper.SetDefault("retention.enabled", defaults.Retention.Enabled)
	viper.SetDefault("retention.interval", defaults.Retention.Interval)
	viper.SetDefault("retention.max_age_days", defaults.Retention.MaxAgeDays)
	viper.SetDefault("retention.component", defaults.Retention.Component)
}
