package video

import (
	"github.com/ezrec/chip8/translate"
)

var f = translate.From

// ErrKeyName is returned for host key names that are not recognized.
type ErrKeyName string

func (err ErrKeyName) Error() string {
	return f("key name '%v' unknown", string(err))
}
