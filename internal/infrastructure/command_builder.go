package infrastructure

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/yourusername/tubescribe/internal/domain"
)

// Whisper-native audio settings for transcription extraction.
// 32 kbps mono at 16 kHz keeps an hour of speech well under the API's
// 25 MB upload limit.
const (
	whisperBitrate    = "32k"
	whisperSampleRate = "16000"
	whisperChannels   = "1"
)

// qualityFormatSpec maps a quality selector to a yt-dlp format spec.
// "best" adds no height constraint.
var qualityFormatSpec = map[domain.Quality]string{
	domain.QualityBest:  "bestvideo+bestaudio/best",
	domain.Quality1080p: "bestvideo[height<=1080]+bestaudio/best[height<=1080]",
	domain.Quality720p:  "bestvideo[height<=720]+bestaudio/best[height<=720]",
	domain.Quality480p:  "bestvideo[height<=480]+bestaudio/best[height<=480]",
	domain.Quality360p:  "bestvideo[height<=360]+bestaudio/best[height<=360]",
}

// ToolCommandBuilder builds argument vectors for yt-dlp and ffmpeg.
// It implements domain.CommandBuilder.
type ToolCommandBuilder struct {
	ytdlpBinary  string
	ffmpegBinary string
}

// NewToolCommandBuilder creates a command builder using the configured
// binaries. Empty values fall back to PATH lookup names.
func NewToolCommandBuilder(ytdlpBinary, ffmpegBinary string) *ToolCommandBuilder {
	if ytdlpBinary == "" {
		ytdlpBinary = "yt-dlp"
	}
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	return &ToolCommandBuilder{ytdlpBinary: ytdlpBinary, ffmpegBinary: ffmpegBinary}
}

// Build returns the argv for the spec's external process, binary first.
// Arguments are discrete tokens for exec; nothing is ever joined into a
// shell string.
func (b *ToolCommandBuilder) Build(spec domain.JobSpec) ([]string, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := checkDestination(spec.Destination); err != nil {
		return nil, err
	}

	switch spec.Kind {
	case domain.KindDownloadVideo, domain.KindDownloadAudio:
		return b.buildDownloadArgs(spec), nil
	case domain.KindTranscribe:
		return b.buildExtractArgs(spec), nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidJobSpec, spec.Kind)
	}
}

// buildDownloadArgs builds the yt-dlp invocation.
func (b *ToolCommandBuilder) buildDownloadArgs(spec domain.JobSpec) []string {
	args := []string{b.ytdlpBinary}

	if spec.Kind == domain.KindDownloadAudio {
		args = append(args,
			"-f", "bestaudio/best",
			"-x", // extract audio
			"--audio-format", "mp3",
			"--audio-quality", "0",
		)
	} else {
		formatSpec, ok := qualityFormatSpec[spec.Quality]
		if !ok {
			formatSpec = qualityFormatSpec[domain.QualityBest]
		}
		args = append(args,
			"-f", formatSpec,
			"--merge-output-format", "mp4",
		)
	}

	args = append(args, "-o", spec.Destination)

	// --newline keeps each progress update on its own line for the parser.
	args = append(args,
		"--newline",
		"--no-warnings",
		"--no-playlist",
	)

	// URL last, as a discrete token
	args = append(args, spec.Target)
	return args
}

// buildExtractArgs builds the ffmpeg audio-extraction invocation used by
// transcription jobs.
func (b *ToolCommandBuilder) buildExtractArgs(spec domain.JobSpec) []string {
	return []string{
		b.ffmpegBinary,
		"-i", spec.Target,
		"-vn", // no video
		"-acodec", "libmp3lame",
		"-ab", whisperBitrate,
		"-ar", whisperSampleRate,
		"-ac", whisperChannels,
		"-y", // overwrite
		spec.Destination,
	}
}

// checkDestination verifies the destination's parent directory exists and
// is writable before anything is spawned.
func checkDestination(dest string) error {
	parent := filepath.Dir(dest)
	info, err := os.Stat(parent)
	if err != nil {
		return fmt.Errorf("%w: destination parent %q: %v", domain.ErrInvalidJobSpec, parent, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: destination parent %q is not a directory", domain.ErrInvalidJobSpec, parent)
	}
	probe, err := os.CreateTemp(parent, ".tubescribe-write-*")
	if err != nil {
		return fmt.Errorf("%w: destination parent %q is not writable", domain.ErrInvalidJobSpec, parent)
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}
