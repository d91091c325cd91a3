package config

import (
	"errors"

	"github.com/ezrec/chip8/translate"
)

var f = translate.From

var (
	ErrConfigRead  = errors.New(f("configuration unreadable"))
	ErrValueRange  = errors.New(f("value out of range"))
	ErrColorSyntax = errors.New(f("color syntax"))
)

// ErrKeyUnknown is returned for configuration keys that are not recognized.
type ErrKeyUnknown string

func (err ErrKeyUnknown) Error() string {
	return f("configuration key '%v' unknown", string(err))
}

// ErrSetting identifies the setting with an invalid value.
type ErrSetting struct {
	Key string
	Err error
}

func (err *ErrSetting) Error() string {
	return f("%v: %v", err.Key, err.Err)
}

func (err *ErrSetting) Unwrap() error {
	return err.Err
}
