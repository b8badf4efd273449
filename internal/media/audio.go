package media

import (
	"bytes"
	"encoding/binary"
	"time"
)

// PCMFormat describes raw interleaved PCM sample layout.
type PCMFormat struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// SpeechFormat is the fixed hand-off format for synthesized speech:
// signed 16-bit little-endian, mono, 24 kHz.
var SpeechFormat = PCMFormat{SampleRate: 24000, Channels: 1, BitsPerSample: 16}

// Audio is a raw PCM buffer in a known format.
type Audio struct {
	Format PCMFormat
	PCM    []byte
}

// Duration returns the playback length of the buffer.
func (a *Audio) Duration() time.Duration {
	bytesPerSec := a.Format.SampleRate * a.Format.Channels * a.Format.BitsPerSample / 8
	if bytesPerSec == 0 {
		return 0
	}
	return time.Duration(len(a.PCM)) * time.Second / time.Duration(bytesPerSec)
}

// WAV wraps the PCM buffer in a canonical 44-byte RIFF/WAVE header.
func (a *Audio) WAV() []byte {
	f := a.Format
	blockAlign := f.Channels * f.BitsPerSample / 8
	byteRate := f.SampleRate * blockAlign
	dataLen := len(a.PCM)

	var buf bytes.Buffer
	buf.Grow(44 + dataLen)
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(f.Channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(f.SampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(f.BitsPerSample))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	buf.Write(a.PCM)
	return buf.Bytes()
}
