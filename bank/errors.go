package bank

import "errors"

// Domain errors reported by the store and the session state machine.
// They are protocol-level conditions: the server maps each of them to a
// response line and the connection keeps going.
var (
	// ErrNotFound means no account with the given name exists.
	ErrNotFound = errors.New("account does not exist")

	// ErrDuplicate means an account with the given name already exists.
	ErrDuplicate = errors.New("an account with that name already exists")

	// ErrBankFull means the store reached its account capacity.
	ErrBankFull = errors.New("bank is full")

	// ErrNegativeAmount rejects credits and debits of negative amounts.
	ErrNegativeAmount = errors.New("amount must not be negative")

	// ErrInsufficientFunds rejects debits that would overdraw.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNotInSession rejects account operations issued outside a session.
	ErrNotInSession = errors.New("account must be in session first")

	// ErrAlreadyInSession rejects open/start while a session is active.
	ErrAlreadyInSession = errors.New("account currently in session")

	// ErrSessionClosed rejects commands after the session terminated.
	ErrSessionClosed = errors.New("session is closed")
)
