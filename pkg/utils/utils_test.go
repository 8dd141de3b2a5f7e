package utils

import (
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatMissionTime(t *testing.T) {
	assert.Equal(t, "00:00", FormatMissionTime(0))
	assert.Equal(t, "00:59", FormatMissionTime(59))
	assert.Equal(t, "01:05", FormatMissionTime(65))
	assert.Equal(t, "120:05", FormatMissionTime(7205))
	assert.Equal(t, "00:00", FormatMissionTime(-3))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "42s", FormatDuration(42*time.Second))
	assert.Equal(t, "2m 5s", FormatDuration(125*time.Second))
	assert.Equal(t, "1h 0m 1s", FormatDuration(time.Hour+time.Second))
}

func TestUnixMillisRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 123_000_000, time.UTC)
	assert.True(t, FromUnixMillis(UnixMillis(ts)).Equal(ts))
}

func TestS7Encoding(t *testing.T) {
	assert.Equal(t, []byte{0x00, 0x05}, Int16ToBytes(5))
	assert.Equal(t, int16(-2), BytesToInt16(Int16ToBytes(-2)))
	assert.Equal(t, int32(70000), BytesToInt32(Int32ToBytes(70000)))
	assert.Equal(t, float32(12.5), BytesToFloat32(Float32ToBytes(12.5)))
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "240", FormatFloat(240, 3))
	assert.Equal(t, "12.5", FormatFloat(12.5, 3))
	assert.Equal(t, "-0.125", FormatFloat(-0.125, 3))
}

func TestHSLString(t *testing.T) {
	assert.Equal(t, "hsl(120, 70%, 60%)", HSLString(120, 70, 60))
	assert.Equal(t, "hsl(-12.5, 70%, 60%)", HSLString(-12.5, 70, 60))
}

func TestHSLToRGBA(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 255, G: 0, B: 0, A: 255}, HSLToRGBA(0, 100, 50))
	assert.Equal(t, color.RGBA{R: 0, G: 255, B: 0, A: 255}, HSLToRGBA(120, 100, 50))
	assert.Equal(t, color.RGBA{R: 0, G: 0, B: 255, A: 255}, HSLToRGBA(240, 100, 50))
	// matiz cíclico: 480 equivale a 120
	assert.Equal(t, HSLToRGBA(120, 70, 60), HSLToRGBA(480, 70, 60))
	assert.Equal(t, HSLToRGBA(300, 70, 60), HSLToRGBA(-60, 70, 60))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, HSLToRGBA(10, 50, 100))
}
