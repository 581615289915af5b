package binutil

// ParseUint16 解析 big-endian
func ParseUint16(buf []byte) uint16 {
	return uint16(buf[0])<<8 + uint16(buf[1])
}

// ParseUint16LittleEndian 解析
func ParseUint16LittleEndian(buf []byte) uint16 {
	return uint16(buf[1])<<8 + uint16(buf[0])
}

// WriteUint16 编码 big-endian
func WriteUint16(buf []byte, value uint16) {
	buf[0] = byte(value >> 8)
	buf[1] = byte(value)
}

// WriteUint16LittleEndian 编码
func WriteUint16LittleEndian(buf []byte, value uint16) {
	buf[1] = byte(value >> 8)
	buf[0] = byte(value)
}

// Uint16sToBytes encodes register values big-endian, two bytes each.
func Uint16sToBytes(values []uint16) []byte {
	buf := make([]byte, len(values)*2)
	for i, v := range values {
		WriteUint16(buf[i*2:], v)
	}
	return buf
}

// BytesToUint16s decodes big-endian register values. A trailing odd byte is ignored.
func BytesToUint16s(buf []byte) []uint16 {
	values := make([]uint16, len(buf)/2)
	for i := range values {
		values[i] = ParseUint16(buf[i*2:])
	}
	return values
}

// Dup 复制
func Dup(buf []byte) []byte {
	b := make([]byte, len(buf))
	copy(b, buf)
	return b
}

// PackedLength returns the number of bytes needed to hold count bits.
func PackedLength(count int) int {
	ln := count >> 3
	if count&0x07 > 0 {
		ln++
	}
	return ln
}

// ShrinkBool 压缩布尔类型, bit i of the result is buf[i], least significant bit first.
func ShrinkBool(buf []bool) []byte {
	b := make([]byte, PackedLength(len(buf)))
	for i, v := range buf {
		if v {
			b[i>>3] |= 1 << (i & 0x07)
		}
	}
	return b
}

// ExpandBool 展开布尔类型, returning exactly count values. Missing bytes read as false.
func ExpandBool(buf []byte, count int) []bool {
	b := make([]bool, count)
	for i := 0; i < count; i++ {
		if i>>3 >= len(buf) {
			break
		}
		b[i] = buf[i>>3]&(1<<(i&0x07)) > 0
	}
	return b
}
