package cpu

const (
	FONT_START      = 0x000 // Address of the glyph for '0'.
	FONT_GLYPH_SIZE = 5     // Bytes per glyph.
	FONT_GLYPHS     = 16    // Glyphs '0' through 'F'.
	FONT_SIZE       = FONT_GLYPH_SIZE * FONT_GLYPHS
)

// Font is the 4x5 hexadecimal digit font, loaded at FONT_START.
var Font = [FONT_SIZE]byte{
	0xf0, 0x90, 0x90, 0x90, 0xf0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xf0, 0x10, 0xf0, 0x80, 0xf0, // 2
	0xf0, 0x10, 0xf0, 0x10, 0xf0, // 3
	0x90, 0x90, 0xf0, 0x10, 0x10, // 4
	0xf0, 0x80, 0xf0, 0x10, 0xf0, // 5
	0xf0, 0x80, 0xf0, 0x90, 0xf0, // 6
	0xf0, 0x10, 0x20, 0x40, 0x40, // 7
	0xf0, 0x90, 0xf0, 0x90, 0xf0, // 8
	0xf0, 0x90, 0xf0, 0x10, 0xf0, // 9
	0xf0, 0x90, 0xf0, 0x90, 0x90, // A
	0xe0, 0x90, 0xe0, 0x90, 0xe0, // B
	0xf0, 0x80, 0x80, 0x80, 0xf0, // C
	0xe0, 0x90, 0x90, 0x90, 0xe0, // D
	0xf0, 0x80, 0xf0, 0x80, 0xf0, // E
	0xf0, 0x80, 0xf0, 0x80, 0x80, // F
}

// Glyph returns the font bitmap for a hexadecimal digit.
func Glyph(digit uint8) []byte {
	start := FONT_GLYPH_SIZE * int(digit&0xf)
	return Font[start : start+FONT_GLYPH_SIZE]
}

// GlyphAddress returns the address of the glyph for a hexadecimal digit.
func GlyphAddress(digit uint8) uint16 {
	return FONT_START + FONT_GLYPH_SIZE*uint16(digit&0xf)
}
