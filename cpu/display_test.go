package cpu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplay_Draw(t *testing.T) {
	assert := assert.New(t)

	d := &Display{}

	collision := d.Draw(0, 0, []byte{0b1010_0000})
	assert.False(collision)
	assert.True(d.Pixel(0, 0))
	assert.False(d.Pixel(1, 0))
	assert.True(d.Pixel(2, 0))
	assert.Equal(2, d.Lit())

	// Overlapping one pixel turns it off.
	collision = d.Draw(2, 0, []byte{0b1000_0000})
	assert.True(collision)
	assert.False(d.Pixel(2, 0))
	assert.Equal(1, d.Lit())
}

func TestDisplay_Wrap(t *testing.T) {
	assert := assert.New(t)

	d := &Display{}

	// Wraps per pixel, horizontally and vertically.
	d.Draw(DISPLAY_WIDTH-2, DISPLAY_HEIGHT-1, []byte{0xf0, 0x80})
	assert.True(d.Pixel(62, 31))
	assert.True(d.Pixel(63, 31))
	assert.True(d.Pixel(0, 31))
	assert.True(d.Pixel(1, 31))
	assert.True(d.Pixel(62, 0))
	assert.Equal(5, d.Lit())

	// Starting positions wrap too.
	d.Clear()
	d.Draw(DISPLAY_WIDTH+3, DISPLAY_HEIGHT+4, []byte{0x80})
	assert.True(d.Pixel(3, 4))
	assert.True(d.Pixel(-61, -28))
}

func TestDisplay_SelfInverse(t *testing.T) {
	assert := assert.New(t)

	d := &Display{}
	d.Draw(10, 10, []byte{0xff})
	before := d.Cells

	sprite := Glyph(0x8)
	assert.True(d.Draw(8, 8, sprite))
	assert.True(d.Draw(8, 8, sprite))
	assert.Equal(before, d.Cells)
}

func TestDisplay_String(t *testing.T) {
	assert := assert.New(t)

	d := &Display{}
	d.Draw(0, 0, []byte{0xc0})

	lines := strings.Split(strings.TrimSuffix(d.String(), "\n"), "\n")
	assert.Len(lines, DISPLAY_HEIGHT)
	assert.Equal("##"+strings.Repeat(".", DISPLAY_WIDTH-2), lines[0])
	assert.Equal(strings.Repeat(".", DISPLAY_WIDTH), lines[1])
}

func TestDisplay_Pixels(t *testing.T) {
	assert := assert.New(t)

	d := &Display{}
	d.Draw(5, 1, []byte{0x80})

	var lit []int
	count := 0
	for n, on := range d.Pixels() {
		count++
		if on {
			lit = append(lit, n)
		}
	}
	assert.Equal(DISPLAY_SIZE, count)
	assert.Equal([]int{DISPLAY_WIDTH + 5}, lit)

	rows := 0
	for y, row := range d.Rows() {
		assert.Len(row, DISPLAY_WIDTH)
		assert.Equal(y == 1, row[5])
		rows++
	}
	assert.Equal(DISPLAY_HEIGHT, rows)
}
