package conf

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesEmbeddedDefaults(t *testing.T) {
	settingsInstance = nil
	once = sync.Once{}

	s, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 48000, s.Device.SampleRate)
	assert.Equal(t, int64(268435456), s.Editor.UndoByteBudget)
	assert.Equal(t, "rename", s.Export.Conflict)
	assert.Equal(t, 1024, s.Spectrogram.FFTSize)
	assert.Equal(t, "ffmpeg", s.Decode.FfmpegPath)
}

func TestSettingMemoizesAfterLoad(t *testing.T) {
	settingsInstance = nil
	once = sync.Once{}

	_, err := Load("")
	require.NoError(t, err)

	got := Setting()
	assert.Same(t, GetSettings(), got)
}
