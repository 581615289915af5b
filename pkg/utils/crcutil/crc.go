package crcutil

// crcTable is the lookup table for the reflected polynomial 0xA001 (x^16 + x^15 + x^2 + 1).
var crcTable = makeTable(0xA001)

func makeTable(poly uint16) [256]uint16 {
	var table [256]uint16
	for i := range table {
		crc := uint16(i)
		for j := 0; j < 8; j++ {
			if crc&0x0001 != 0 {
				crc = crc>>1 ^ poly
			} else {
				crc >>= 1
			}
		}
		table[i] = crc
	}
	return table
}

// Crc16 computes the Modbus CRC-16 (seed 0xFFFF). The low byte goes on the wire first.
func Crc16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc = crc>>8 ^ crcTable[byte(crc)^b]
	}
	return crc
}

// Lrc computes the longitudinal redundancy check: the two's complement of the byte sum.
func Lrc(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return ^sum + 1
}
