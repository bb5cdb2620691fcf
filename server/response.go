package server

import (
	"errors"

	"bankd/bank"
	"bankd/protocol"
)

// promptText is written before every read; the interactive client
// relies on it.
const promptText = "Enter command: "

// errorLine maps a protocol-level error to the single response line the
// client sees.  Unknown errors collapse to a generic complaint rather
// than leaking internals.
func errorLine(err error) string {
	switch {
	case errors.Is(err, bank.ErrNotFound):
		return "Account does not exist."
	case errors.Is(err, bank.ErrDuplicate):
		return "An account with that name already exists."
	case errors.Is(err, bank.ErrBankFull):
		return "Could not create account: Bank is full."
	case errors.Is(err, bank.ErrNegativeAmount):
		return "Cannot move a negative amount."
	case errors.Is(err, bank.ErrInsufficientFunds):
		return "Insufficient funds."
	case errors.Is(err, bank.ErrNotInSession):
		return "Account must be in session first."
	case errors.Is(err, bank.ErrAlreadyInSession):
		return "Account currently in session."
	case errors.Is(err, protocol.ErrUnknownCommand),
		errors.Is(err, protocol.ErrEmptyLine):
		return "Unknown command."
	case errors.Is(err, protocol.ErrMissingArgument),
		errors.Is(err, protocol.ErrTrailingArgument),
		errors.Is(err, protocol.ErrBadAmount),
		errors.Is(err, protocol.ErrLineTooLong):
		return "There was an error processing your request."
	default:
		return "There was an error processing your request."
	}
}
