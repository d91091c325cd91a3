package cpu

import (
	"iter"
	"strings"
)

const (
	DISPLAY_WIDTH  = 64
	DISPLAY_HEIGHT = 32
	DISPLAY_SIZE   = DISPLAY_WIDTH * DISPLAY_HEIGHT

	SPRITE_WIDTH = 8 // Pixels per sprite row.
)

// Display is the monochrome framebuffer, stored row-major.
type Display struct {
	Cells [DISPLAY_SIZE]bool
}

// Clear turns every pixel off.
func (d *Display) Clear() {
	clear(d.Cells[:])
}

// Pixel returns the state of the pixel at (x, y). Coordinates wrap.
func (d *Display) Pixel(x, y int) bool {
	return d.Cells[d.index(x, y)]
}

func (d *Display) index(x, y int) int {
	x %= DISPLAY_WIDTH
	if x < 0 {
		x += DISPLAY_WIDTH
	}
	y %= DISPLAY_HEIGHT
	if y < 0 {
		y += DISPLAY_HEIGHT
	}
	return y*DISPLAY_WIDTH + x
}

// Draw XORs an 8-pixel wide sprite onto the display, one byte per row,
// MSB leftmost. Each pixel wraps independently at the display edges.
// Returns true if any pixel was turned off.
func (d *Display) Draw(x, y int, sprite []byte) (collision bool) {
	for row, bits := range sprite {
		for col := range SPRITE_WIDTH {
			if bits&(0x80>>col) == 0 {
				continue
			}
			n := d.index(x+col, y+row)
			if d.Cells[n] {
				collision = true
			}
			d.Cells[n] = !d.Cells[n]
		}
	}

	return
}

// Pixels iterates over all cells in row-major order, by cell index.
func (d *Display) Pixels() iter.Seq2[int, bool] {
	return func(yield func(int, bool) bool) {
		for n, on := range d.Cells {
			if !yield(n, on) {
				return
			}
		}
	}
}

// Rows iterates over the display rows.
func (d *Display) Rows() iter.Seq2[int, []bool] {
	return func(yield func(int, []bool) bool) {
		for y := range DISPLAY_HEIGHT {
			if !yield(y, d.Cells[y*DISPLAY_WIDTH:(y+1)*DISPLAY_WIDTH]) {
				return
			}
		}
	}
}

// Lit returns the number of pixels that are on.
func (d *Display) Lit() (count int) {
	for _, on := range d.Cells {
		if on {
			count++
		}
	}
	return
}

// String renders the display with '#' for lit and '.' for dark pixels.
func (d *Display) String() string {
	var sb strings.Builder
	sb.Grow((DISPLAY_WIDTH + 1) * DISPLAY_HEIGHT)
	for _, row := range d.Rows() {
		for _, on := range row {
			if on {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
