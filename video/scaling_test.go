package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/draw"
)

func TestNewScaler(t *testing.T) {
	scaler := NewScaler()
	assert.NotNil(t, scaler)

	assert.NotNil(t, NewScalerWithInterpolator(nil))
}

func TestScaler_Scale_BasicFunctionality(t *testing.T) {
	scaler := NewScaler()

	srcFrame := createTestFrame(320, 240)

	result, err := scaler.Scale(srcFrame, 640, 480)

	require.NoError(t, err)
	assert.Equal(t, uint32(640), result.Width)
	assert.Equal(t, uint32(480), result.Height)
	assert.Equal(t, 640, result.YStride)
	assert.Equal(t, 320, result.UStride)
	assert.Len(t, result.Y, 640*480)
	assert.Len(t, result.U, 320*240)
	assert.Len(t, result.V, 320*240)
}

func TestScaler_Scale_DownScaling(t *testing.T) {
	scaler := NewScaler()

	srcFrame := createTestFrame(640, 480)

	result, err := scaler.Scale(srcFrame, 320, 240)

	require.NoError(t, err)
	assert.Equal(t, uint32(320), result.Width)
	assert.Equal(t, uint32(240), result.Height)
	assert.Len(t, result.Y, 320*240)
	assert.Len(t, result.U, 160*120)
}

func TestScaler_Scale_SameDimensions(t *testing.T) {
	scaler := NewScaler()

	srcFrame := createTestFrame(64, 48)
	srcFrame.Y[100] = 123

	result, err := scaler.Scale(srcFrame, 64, 48)

	require.NoError(t, err)
	assert.True(t, result.Equal(srcFrame))
	assert.NotSame(t, &srcFrame.Y[0], &result.Y[0], "scale must not alias the source")
}

func TestScaler_Scale_UniformPlanePreserved(t *testing.T) {
	scaler := NewScalerWithInterpolator(draw.CatmullRom)

	srcFrame, err := NewVideoFrame(33, 17)
	require.NoError(t, err)
	for i := range srcFrame.Y {
		srcFrame.Y[i] = 200
	}

	result, err := scaler.Scale(srcFrame, 20, 11)
	require.NoError(t, err)
	for _, v := range result.Y {
		require.Equal(t, byte(200), v)
	}
	for _, v := range result.U {
		require.Equal(t, byte(128), v)
	}
}

func TestScaler_Scale_InvalidInput(t *testing.T) {
	scaler := NewScaler()

	_, err := scaler.Scale(nil, 64, 64)
	assert.Error(t, err)

	_, err = scaler.Scale(createTestFrame(16, 16), 0, 16)
	assert.Error(t, err)

	broken := createTestFrame(16, 16)
	broken.Y = broken.Y[:4]
	_, err = scaler.Scale(broken, 32, 32)
	assert.Error(t, err)
}

func TestScaler_GetScaleFactors(t *testing.T) {
	scaler := NewScaler()

	x, y := scaler.GetScaleFactors(320, 240, 640, 120)
	assert.InDelta(t, 2.0, x, 1e-9)
	assert.InDelta(t, 0.5, y, 1e-9)
}

func TestScaler_IsScalingRequired(t *testing.T) {
	scaler := NewScaler()

	assert.False(t, scaler.IsScalingRequired(640, 480, 640, 480))
	assert.True(t, scaler.IsScalingRequired(640, 480, 640, 482))
}
