package command

import "fmt"

// ParseError indica que um campo de texto do operador não pôde ser lido como
// o tipo ou a quantidade esperada
type ParseError struct {
	Field  string
	Input  string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("campo %s inválido (%q): %s: %v", e.Field, e.Input, e.Reason, e.Err)
	}
	return fmt.Sprintf("campo %s inválido (%q): %s", e.Field, e.Input, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseErr(field, input, reason string, err error) *ParseError {
	return &ParseError{Field: field, Input: input, Reason: reason, Err: err}
}
