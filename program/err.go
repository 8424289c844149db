package program

import (
	"errors"

	"github.com/ezrec/mcs8/translate"
)

var f = translate.From

var (
	ErrProgramEmpty = errors.New(f("program empty"))
	ErrByteRange    = errors.New(f("byte value out of range"))
)

type ErrParseByte string

func (err ErrParseByte) Error() string {
	return f("'%v' is not a hex byte", string(err))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}
