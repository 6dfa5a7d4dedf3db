package audio

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeWAVHeader(t *testing.T) {
	pcm := []byte{1, 2, 3, 4}
	out := EncodeWAV(pcm, 16000, 1)

	require.Len(t, out, 48)
	require.Equal(t, "RIFF", string(out[0:4]))
	require.Equal(t, uint32(40), binary.LittleEndian.Uint32(out[4:8]))
	require.Equal(t, "WAVE", string(out[8:12]))
	require.Equal(t, uint16(1), binary.LittleEndian.Uint16(out[22:24]))
	require.Equal(t, uint32(16000), binary.LittleEndian.Uint32(out[24:28]))
	require.Equal(t, uint32(32000), binary.LittleEndian.Uint32(out[28:32]))
	require.Equal(t, "data", string(out[36:40]))
	require.Equal(t, uint32(4), binary.LittleEndian.Uint32(out[40:44]))
	require.Equal(t, pcm, out[44:])
}

func TestEncodeClipUsesCaptureFormat(t *testing.T) {
	out := EncodeClip(nil)
	require.Len(t, out, 44)
	require.Equal(t, uint32(SampleRate), binary.LittleEndian.Uint32(out[24:28]))
}
