package page

// Bit i of the bitmap tracks slot i; bit 0 is the least significant bit of
// byte 0.

func testBit(bm []byte, i int) bool {
	return bm[i>>3]&(1<<(i&7)) != 0
}

func setBit(bm []byte, i int) {
	bm[i>>3] |= 1 << (i & 7)
}

func clearBit(bm []byte, i int) {
	bm[i>>3] &^= 1 << (i & 7)
}
