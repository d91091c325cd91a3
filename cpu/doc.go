// Package cpu implements the CHIP-8 interpreter core and its assembler.
//
// The machine has 4KB of byte addressable memory with the hexadecimal font
// resident at address 0x000 and programs loaded at 0x200, sixteen 8-bit
// registers (V0-VF, where VF doubles as the carry, borrow and collision
// flag), a 16-bit index register I, a 16-deep return stack, a 64x32
// monochrome display drawn by XOR, a 16-key keypad and the delay and sound
// timers.
//
// A cycle (Tick) fetches the big-endian instruction word at the program
// counter, decodes it into an Instruction, executes it, and then decrements
// the timers. No wall clock is kept; the caller paces Tick.
//
// The assembler accepts the conventional CHIP-8 mnemonics, with labels,
// equates, macros and compile-time $(...) expressions.
package cpu
