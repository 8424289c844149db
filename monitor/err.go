package monitor

import (
	"github.com/ezrec/mcs8/translate"
)

var f = translate.From

type ErrParseHex string

func (err ErrParseHex) Error() string {
	return f("'%v' is not a hex value", string(err))
}

type ErrEval string

func (err ErrEval) Error() string {
	return f("'%v' is not a valid expression", string(err))
}
