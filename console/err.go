package console

import (
	"errors"

	"github.com/ezrec/chip8/translate"
)

var f = translate.From

var (
	ErrTerminal = errors.New(f("terminal unavailable"))
)

// ErrKeyName is returned for host key names with no terminal character.
type ErrKeyName string

func (err ErrKeyName) Error() string {
	return f("key name '%v' has no character", string(err))
}
