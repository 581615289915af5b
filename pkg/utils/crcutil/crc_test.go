package crcutil

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestCrc16(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint16
	}{
		{name: "read holding register", data: []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x01}, want: 0x0A84},
		{name: "read ten registers", data: []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x0A}, want: 0xCDC5},
		{name: "empty", data: []byte{}, want: 0xFFFF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Crc16(tt.data))
		})
	}
}

func TestCrc16OfFrameWithCrcIsZero(t *testing.T) {
	frame := []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x01, 0x84, 0x0A}
	assert.Equal(t, uint16(0), Crc16(frame))
}

func TestLrc(t *testing.T) {
	assert.Equal(t, byte(0xDF), Lrc([]byte{0x01, 0x03, 0x00, 0x13, 0x00, 0x0A}))
	assert.Equal(t, byte(0x00), Lrc([]byte{}))

	data := []byte{0x11, 0x22, 0x33}
	var sum byte
	for _, b := range append(data, Lrc(data)) {
		sum += b
	}
	assert.Equal(t, byte(0), sum)
}
