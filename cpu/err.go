package cpu

import (
	"errors"

	"github.com/ezrec/mcs8/translate"
)

var f = translate.From

var (
	// Memory errors
	ErrAddressRange = errors.New(f("address range exceeded"))
)
