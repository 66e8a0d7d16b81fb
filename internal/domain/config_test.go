package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.NotNil(t, config)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "yt-dlp", config.Jobs.YTDLPBinary)
	assert.Equal(t, "ffmpeg", config.Jobs.FFmpegBinary)
	assert.Equal(t, 10*time.Minute, config.Jobs.DownloadTimeout)
	assert.Equal(t, 20*time.Minute, config.Jobs.TranscribeTimeout)
	assert.Equal(t, 5*time.Second, config.Jobs.CancelGracePeriod)
	assert.Equal(t, 256, config.Jobs.EventBufferSize)
	assert.Equal(t, "whisper-large-v3", config.Transcription.Model)
	assert.Equal(t, 25.0, config.Transcription.MaxFileMB)
	assert.Empty(t, config.Transcription.APIKey)
	assert.True(t, config.Notification.Enabled)
	assert.Equal(t, "info", config.Logging.Level)
}

func TestJobsConfig_TimeoutFor(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, config.Jobs.DownloadTimeout, config.Jobs.TimeoutFor(KindDownloadVideo))
	assert.Equal(t, config.Jobs.DownloadTimeout, config.Jobs.TimeoutFor(KindDownloadAudio))
	assert.Equal(t, config.Jobs.TranscribeTimeout, config.Jobs.TimeoutFor(KindTranscribe))
}
