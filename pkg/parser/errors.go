package parser

import "fmt"

// ParseError reports a telegram or line that does not have the expected shape.
type ParseError struct {
	Msg  string
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	msg := e.Msg
	if e.Line != "" {
		msg = fmt.Sprintf("%s: %q", msg, e.Line)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// InvalidChecksumError is returned when the CRC in the telegram does not
// match the content. It unwraps to a *ParseError.
type InvalidChecksumError struct {
	Calculated uint16
	Expected   uint16
}

func (e *InvalidChecksumError) Error() string {
	return fmt.Sprintf("invalid telegram: checksum %04X does not match %04X", e.Calculated, e.Expected)
}

func (e *InvalidChecksumError) Unwrap() error {
	return &ParseError{Msg: "checksum mismatch"}
}
