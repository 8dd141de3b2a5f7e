package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mission_go/internal/command"
	"mission_go/internal/pointcloud"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// flags são globais e sobrevivem entre execuções
	configPath, logLevel = "", "error"
	encodeInput, encodeModes, encodeIndent = command.Input{}, false, false
	cloudCamera, cloudPoints, cloudSeed, cloudRotation, cloudTimeMs, cloudPNG = 0, 0, 0, 0, 0, ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestEncodeCommand(t *testing.T) {
	out, err := run(t, "encode", "--mode", "0.1", "--motor-ids", "1,2,3", "--motor-goals", "1000,1500,2000")
	require.NoError(t, err)
	assert.JSONEq(t, `{"controlMode":5,"motorIds":[1,2,3],"motorGoals":[1000,1500,2000]}`, out)

	out, err = run(t, "encode", "--mode", "2.2", "--vertices", "4,5", "--amount", "30")
	require.NoError(t, err)
	assert.JSONEq(t, `{"robotMode":1,"vertices":[4,5],"inverted":false,"amount":30}`, out)
}

func TestEncodeRejectsBadInput(t *testing.T) {
	_, err := run(t, "encode", "--mode", "1.1", "--position", "1 2")
	require.Error(t, err)

	var parseErr *command.ParseError
	assert.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "position", parseErr.Field)
}

func TestEncodeList(t *testing.T) {
	out, err := run(t, "encode", "--list")
	require.NoError(t, err)

	var modes []command.ModeInfo
	require.NoError(t, json.Unmarshal([]byte(out), &modes))
	assert.Len(t, modes, 19)
}

func TestPointCloudJSON(t *testing.T) {
	out, err := run(t, "pointcloud", "--camera", "1", "--seed", "7", "--time", "0")
	require.NoError(t, err)

	var frame pointcloud.Frame
	require.NoError(t, json.Unmarshal([]byte(out), &frame))
	assert.Equal(t, "/camera/cam1/pointcloud", frame.Topic)
	require.NotEmpty(t, frame.Circles)
	for _, c := range frame.Circles {
		assert.True(t, c.X >= 0 && c.X < float64(frame.Width))
		assert.True(t, c.Y >= 0 && c.Y < float64(frame.Height))
	}
}

func TestPointCloudPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cloud.png")

	out, err := run(t, "pointcloud", "--camera", "2", "--seed", "3", "--time", "0", "--png", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestPointCloudUnknownCamera(t *testing.T) {
	_, err := run(t, "pointcloud", "--camera", "9", "--time", "0")
	assert.ErrorIs(t, err, pointcloud.ErrUnknownCamera)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := run(t, "encode", "--config", filepath.Join(t.TempDir(), "nope.json"), "--mode", "4")
	assert.Error(t, err)
}
