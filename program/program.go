// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package program loads machine code images for the mcs8 core, either
// as raw binary or as whitespace-separated hex byte text.
package program

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// Program is a loadable image and the address it wants to live at.
type Program struct {
	Data   []byte
	Origin uint16
}

// ReadBin slurps a raw binary image, byte for byte.
func ReadBin(in io.Reader) (prog *Program, err error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return
	}
	if len(data) == 0 {
		err = ErrProgramEmpty
		return
	}

	prog = &Program{Data: data}
	return
}

// stripComment drops everything from the first '#', ';', or "//" on.
func stripComment(line string) string {
	for _, marker := range []string{"#", ";", "//"} {
		if at := strings.Index(line, marker); at >= 0 {
			line = line[:at]
		}
	}
	return line
}

// ParseHex reads a text image of hex byte values separated by
// whitespace. Tokens may carry a 0x prefix, and ',' and '_' are
// treated as spacing. Any token that is not a hex byte fails the
// whole load, with the offending line attached.
func ParseHex(in io.Reader) (prog *Program, err error) {
	var data []byte

	scanner := bufio.NewScanner(in)
	lineno := 0
	for scanner.Scan() {
		lineno++
		raw := scanner.Text()

		line := stripComment(raw)
		line = strings.ReplaceAll(line, ",", " ")
		line = strings.ReplaceAll(line, "_", " ")

		for _, token := range strings.Fields(line) {
			hex := strings.TrimPrefix(strings.TrimPrefix(token, "0x"), "0X")

			value, fail := strconv.ParseUint(hex, 16, 16)
			if fail != nil {
				err = ErrSyntax{LineNo: lineno, Line: raw, Err: ErrParseByte(token)}
				return
			}
			if value > 0xff {
				err = ErrSyntax{LineNo: lineno, Line: raw, Err: ErrByteRange}
				return
			}

			data = append(data, byte(value))
		}
	}
	if err = scanner.Err(); err != nil {
		return
	}

	if len(data) == 0 {
		err = ErrProgramEmpty
		return
	}

	prog = &Program{Data: data}
	return
}
