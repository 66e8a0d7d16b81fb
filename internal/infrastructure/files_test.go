package infrastructure

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/tubescribe/internal/domain"
)

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "My Video Title", SanitizeFilename("My Video Title"))
	assert.Equal(t, "a_b_c_d_e_f_g_h_i", SanitizeFilename(`a<b>c:d"e/f\g|h?i`))
	assert.Equal(t, "trimmed", SanitizeFilename("  trimmed .. "))
	assert.Equal(t, "untitled", SanitizeFilename(""))
	assert.Equal(t, "untitled", SanitizeFilename(" ... "))
	assert.Equal(t, "tabfree", SanitizeFilename("tab\tfree"))
}

func TestSanitizeFilename_LengthCap(t *testing.T) {
	long := strings.Repeat("x", 300)
	assert.Len(t, []rune(SanitizeFilename(long)), 200)
}

func TestOutputFilename(t *testing.T) {
	assert.Equal(t, "clip.mp4", OutputFilename("clip", domain.KindDownloadVideo))
	assert.Equal(t, "clip.mp3", OutputFilename("clip", domain.KindDownloadAudio))
	assert.Equal(t, "clip.txt", OutputFilename("clip", domain.KindTranscribe))
	assert.Equal(t, "a_b.mp4", OutputFilename("a/b", domain.KindDownloadVideo))
}

func TestUniqueFilename(t *testing.T) {
	dir := t.TempDir()

	assert.Equal(t, "video.mp4", UniqueFilename(dir, "video.mp4"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "video.mp4"), []byte("x"), 0644))
	assert.Equal(t, "video (1).mp4", UniqueFilename(dir, "video.mp4"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "video (1).mp4"), []byte("x"), 0644))
	assert.Equal(t, "video (2).mp4", UniqueFilename(dir, "video.mp4"))
}

func TestFileSizeMB(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob")
	require.NoError(t, os.WriteFile(path, make([]byte, 1024*1024), 0644))

	assert.InDelta(t, 1.0, FileSizeMB(path), 0.01)
	assert.Zero(t, FileSizeMB(filepath.Join(dir, "missing")))
}
