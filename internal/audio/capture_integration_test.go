//go:build integration

package audio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestListDevicesIntegration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	devices, err := ListDevices(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, devices)
}

func TestCaptureShortClipIntegration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	selection, err := SelectDevice(ctx, "default", "default")
	require.NoError(t, err)

	capture, err := StartCapture(ctx, selection.Device)
	require.NoError(t, err)
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, capture.Stop())

	total := 0
	for chunk := range capture.Chunks() {
		total += len(chunk)
	}
	require.Positive(t, total)
}
