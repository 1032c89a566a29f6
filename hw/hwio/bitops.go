package hwio

// 8-bit operations
func GetBit8(v uint8, n uint) bool {
	return GetBiti8(v, n) != 0
}

func GetBiti8(v uint8, n uint) uint8 {
	return v >> n & 0x01
}

func SetBit8(v *uint8, n uint) {
	*v |= 1 << n
}

func ClearBit8(v *uint8, n uint) {
	*v &^= 1 << n
}

func WriteBit8(v *uint8, n uint, on bool) {
	if on {
		SetBit8(v, n)
	} else {
		ClearBit8(v, n)
	}
}

// Reverse8 returns v with its bits in reverse order.
func Reverse8(v uint8) uint8 {
	v = (v&0xF0)>>4 | (v&0x0F)<<4
	v = (v&0xCC)>>2 | (v&0x33)<<2
	v = (v&0xAA)>>1 | (v&0x55)<<1
	return v
}

// SamePage reports whether a and b lie in the same 256-byte page.
func SamePage(a, b uint16) bool {
	return a&0xFF00 == b&0xFF00
}
