// Package protocol implements the line-based command grammar spoken
// between bank clients and the server: one verb per line, at most one
// argument, newline-terminated, bounded length.
package protocol

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Verb identifies a protocol command.
type Verb int

const (
	VerbOpen Verb = iota
	VerbStart
	VerbCredit
	VerbDebit
	VerbBalance
	VerbFinish
	VerbExit
)

// String implements fmt.Stringer.
func (v Verb) String() string {
	switch v {
	case VerbOpen:
		return "open"
	case VerbStart:
		return "start"
	case VerbCredit:
		return "credit"
	case VerbDebit:
		return "debit"
	case VerbBalance:
		return "balance"
	case VerbFinish:
		return "finish"
	case VerbExit:
		return "exit"
	default:
		return "unknown"
	}
}

// Command is one parsed request line.
type Command struct {
	Verb Verb
	Arg  string // account name or amount text; empty for no-arg verbs
}

// Parse errors.  All of them are protocol-level: the server answers
// with an error line and keeps the connection open.
var (
	ErrEmptyLine        = errors.New("empty command line")
	ErrUnknownCommand   = errors.New("unknown command")
	ErrMissingArgument  = errors.New("missing argument")
	ErrTrailingArgument = errors.New("unexpected argument")
	ErrBadAmount        = errors.New("amount must be a decimal number")
)

// arity maps each verb to whether it takes an argument.  Verbs are
// case-sensitive.
var arity = map[string]struct {
	verb    Verb
	wantArg bool
}{
	"open":    {VerbOpen, true},
	"start":   {VerbStart, true},
	"credit":  {VerbCredit, true},
	"debit":   {VerbDebit, true},
	"balance": {VerbBalance, false},
	"finish":  {VerbFinish, false},
	"exit":    {VerbExit, false},
}

// Parse turns one request line (without its terminator) into a Command.
// The argument, when present, is everything after the first space, so
// account names may contain spaces.
func Parse(line string) (Command, error) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return Command{}, ErrEmptyLine
	}

	word, rest, hasArg := strings.Cut(line, " ")
	spec, ok := arity[word]
	if !ok {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, word)
	}

	if spec.wantArg {
		rest = strings.TrimSpace(rest)
		if !hasArg || rest == "" {
			return Command{}, fmt.Errorf("%w: %s requires an argument", ErrMissingArgument, word)
		}
		return Command{Verb: spec.verb, Arg: rest}, nil
	}

	if hasArg && strings.TrimSpace(rest) != "" {
		return Command{}, fmt.Errorf("%w: %s takes no argument", ErrTrailingArgument, word)
	}
	return Command{Verb: spec.verb}, nil
}

// ParseAmount parses a currency amount with at most two decimal places.
// Non-numeric text is rejected, never coerced to zero.
func ParseAmount(text string) (decimal.Decimal, error) {
	amt, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrBadAmount, text)
	}
	if amt.Exponent() < -2 {
		return decimal.Zero, fmt.Errorf("%w: %q has more than two decimal places", ErrBadAmount, text)
	}
	return amt, nil
}
