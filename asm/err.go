package asm

import (
	"errors"

	"github.com/ezrec/mcs8/translate"
)

var f = translate.From

var (
	ErrEquateSyntax    = errors.New(f(".equ syntax"))
	ErrEquateDuplicate = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate  = errors.New(f("label duplicated"))
	ErrOrgSyntax       = errors.New(f(".org syntax"))
	ErrOrgLate         = errors.New(f(".org after emitted code"))
	ErrDataSyntax      = errors.New(f(".db syntax"))
	ErrOperandMode     = errors.New(f("addressing mode not available"))
	ErrOperandRange    = errors.New(f("operand out of range"))
)

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrMnemonic string

func (err ErrMnemonic) Error() string {
	return f("'%v' is not a mnemonic", string(err))
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
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
