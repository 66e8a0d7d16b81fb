package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Jobs          JobsConfig          `mapstructure:"jobs"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	History       HistoryConfig       `mapstructure:"history"`
	Notification  NotificationConfig  `mapstructure:"notification"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// JobsConfig contains job runner configuration. Timeouts are idle
// windows: they reset whenever the tool emits an output line.
type JobsConfig struct {
	DownloadDir        string        `mapstructure:"download_dir"`
	TranscriptDir      string        `mapstructure:"transcript_dir"`
	LogsDir            string        `mapstructure:"logs_dir"`
	YTDLPBinary        string        `mapstructure:"ytdlp_binary"`
	FFmpegBinary       string        `mapstructure:"ffmpeg_binary"`
	DownloadTimeout    time.Duration `mapstructure:"download_timeout"`
	TranscribeTimeout  time.Duration `mapstructure:"transcribe_timeout"`
	CancelGracePeriod  time.Duration `mapstructure:"cancel_grace_period"`
	EventBufferSize    int           `mapstructure:"event_buffer_size"`
	SubscriberDeadline time.Duration `mapstructure:"subscriber_deadline"`
}

// TimeoutFor returns the idle-timeout window for a job kind.
func (c JobsConfig) TimeoutFor(kind JobKind) time.Duration {
	if kind == KindTranscribe {
		return c.TranscribeTimeout
	}
	return c.DownloadTimeout
}

// TranscriptionConfig contains transcription API configuration. The API
// key reaches the core only through this struct, never from ambient env.
type TranscriptionConfig struct {
	APIURL     string        `mapstructure:"api_url"`
	APIKey     string        `mapstructure:"api_key"`
	Model      string        `mapstructure:"model"`
	Language   string        `mapstructure:"language"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxFileMB  float64       `mapstructure:"max_file_mb"`
	Timestamps bool          `mapstructure:"timestamps"`
}

// HistoryConfig contains job history configuration
type HistoryConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

// NotificationConfig contains desktop notification configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Sound   bool   `mapstructure:"sound"`
	Method  string `mapstructure:"method"` // osascript, notify-send, etc.
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Jobs: JobsConfig{
			DownloadDir:        "$HOME/Downloads/tubescribe",
			TranscriptDir:      "$HOME/Downloads/tubescribe/transcripts",
			LogsDir:            "$HOME/Downloads/tubescribe/logs",
			YTDLPBinary:        "yt-dlp",
			FFmpegBinary:       "ffmpeg",
			DownloadTimeout:    10 * time.Minute,
			TranscribeTimeout:  20 * time.Minute,
			CancelGracePeriod:  5 * time.Second,
			EventBufferSize:    256,
			SubscriberDeadline: 5 * time.Second,
		},
		Transcription: TranscriptionConfig{
			APIURL:    "https://api.groq.com/openai/v1/audio/transcriptions",
			Model:     "whisper-large-v3",
			Timeout:   5 * time.Minute,
			MaxFileMB: 25,
		},
		History: HistoryConfig{
			DatabasePath: "$HOME/Downloads/tubescribe/config/history.db",
		},
		Notification: NotificationConfig{
			Enabled: true,
			Sound:   false,
			Method:  "auto",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
