package infrastructure

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/tubescribe/internal/domain"
)

func TestToolCommandBuilder_VideoDownload(t *testing.T) {
	builder := NewToolCommandBuilder("yt-dlp", "ffmpeg")
	dest := filepath.Join(t.TempDir(), "video.mp4")
	spec := domain.NewJobSpec(domain.KindDownloadVideo, "https://youtu.be/abc123", domain.Quality720p, dest)

	argv, err := builder.Build(spec)
	require.NoError(t, err)

	assert.Equal(t, "yt-dlp", argv[0])
	assert.Contains(t, argv, "bestvideo[height<=720]+bestaudio/best[height<=720]")
	assert.Contains(t, argv, "--merge-output-format")
	assert.Contains(t, argv, "--newline")
	assert.Contains(t, argv, "--no-warnings")
	assert.Contains(t, argv, "--no-playlist")
	assert.Contains(t, argv, dest)
	// URL is the last discrete token
	assert.Equal(t, spec.Target, argv[len(argv)-1])
}

func TestToolCommandBuilder_AudioDownload(t *testing.T) {
	builder := NewToolCommandBuilder("yt-dlp", "ffmpeg")
	dest := filepath.Join(t.TempDir(), "audio.mp3")
	spec := domain.NewJobSpec(domain.KindDownloadAudio, "https://youtu.be/abc123", "", dest)

	argv, err := builder.Build(spec)
	require.NoError(t, err)

	assert.Contains(t, argv, "-x")
	assert.Contains(t, argv, "--audio-format")
	assert.Contains(t, argv, "mp3")
	assert.NotContains(t, argv, "--merge-output-format")
	assert.Equal(t, spec.Target, argv[len(argv)-1])
}

func TestToolCommandBuilder_UnknownQualityFallsBackToBest(t *testing.T) {
	builder := NewToolCommandBuilder("yt-dlp", "ffmpeg")
	dest := filepath.Join(t.TempDir(), "video.mp4")
	spec := domain.NewJobSpec(domain.KindDownloadVideo, "https://youtu.be/abc123", domain.Quality("8k"), dest)

	argv, err := builder.Build(spec)
	require.NoError(t, err)

	assert.Contains(t, argv, "bestvideo+bestaudio/best")
}

func TestToolCommandBuilder_TranscribeExtraction(t *testing.T) {
	builder := NewToolCommandBuilder("yt-dlp", "ffmpeg")
	dest := filepath.Join(t.TempDir(), "audio.mp3")
	spec := domain.NewJobSpec(domain.KindTranscribe, "/home/user/talk.mp4", "", dest)

	argv, err := builder.Build(spec)
	require.NoError(t, err)

	assert.Equal(t, "ffmpeg", argv[0])
	assert.Contains(t, argv, "-vn")
	assert.Contains(t, argv, "32k")
	assert.Contains(t, argv, "16000")
	assert.Contains(t, argv, "/home/user/talk.mp4")
	assert.Equal(t, dest, argv[len(argv)-1])
}

func TestToolCommandBuilder_URLNeverJoinedIntoShellString(t *testing.T) {
	builder := NewToolCommandBuilder("yt-dlp", "ffmpeg")
	dest := filepath.Join(t.TempDir(), "video.mp4")
	// A hostile URL stays one argv token; no shell ever sees it
	target := "https://youtu.be/abc123?x=$(rm -rf /)&y=;id"
	spec := domain.NewJobSpec(domain.KindDownloadVideo, target, domain.QualityBest, dest)

	argv, err := builder.Build(spec)
	require.NoError(t, err)
	assert.Equal(t, target, argv[len(argv)-1])
}

func TestToolCommandBuilder_InvalidSpec(t *testing.T) {
	builder := NewToolCommandBuilder("yt-dlp", "ffmpeg")

	_, err := builder.Build(domain.NewJobSpec(domain.KindDownloadVideo, "", domain.QualityBest, "/tmp/x.mp4"))
	assert.ErrorIs(t, err, domain.ErrInvalidJobSpec)

	_, err = builder.Build(domain.NewJobSpec(domain.KindDownloadVideo, "https://vimeo.com/1", domain.QualityBest, "/tmp/x.mp4"))
	assert.ErrorIs(t, err, domain.ErrInvalidJobSpec)
}

func TestToolCommandBuilder_MissingDestinationParent(t *testing.T) {
	builder := NewToolCommandBuilder("yt-dlp", "ffmpeg")
	dest := filepath.Join(t.TempDir(), "does", "not", "exist", "video.mp4")
	spec := domain.NewJobSpec(domain.KindDownloadVideo, "https://youtu.be/abc123", domain.QualityBest, dest)

	_, err := builder.Build(spec)
	assert.ErrorIs(t, err, domain.ErrInvalidJobSpec)
}
