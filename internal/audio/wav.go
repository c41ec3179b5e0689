// Package audio wraps collaborator speech output for playback.
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// PCM format returned by the speech collaborator.
const (
	SampleRate    = 24000
	Channels      = 1
	BitsPerSample = 16
)

// ErrOddLength is returned when PCM data does not hold whole 16-bit samples.
var ErrOddLength = errors.New("pcm data length is not a multiple of the sample size")

type wavHeader struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// WAV wraps raw little-endian PCM (mono, 24kHz, 16-bit) in a RIFF/WAVE
// container so ordinary players can decode it.
func WAV(pcm []byte) ([]byte, error) {
	blockAlign := Channels * BitsPerSample / 8
	if len(pcm)%blockAlign != 0 {
		return nil, ErrOddLength
	}
	h := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     uint32(36 + len(pcm)),
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   Channels,
		SampleRate:    SampleRate,
		ByteRate:      uint32(SampleRate * blockAlign),
		BlockAlign:    uint16(blockAlign),
		BitsPerSample: BitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: uint32(len(pcm)),
	}
	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))
	if err := binary.Write(&buf, binary.LittleEndian, h); err != nil {
		return nil, err
	}
	buf.Write(pcm)
	return buf.Bytes(), nil
}

// DurationMillis returns the playback length in milliseconds of pcm.
func DurationMillis(pcm []byte) int64 {
	return int64(len(pcm)) * 1000 / int64(SampleRate*Channels*BitsPerSample/8)
}
