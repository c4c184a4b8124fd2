package game

import "errors"

// ErrInvalidCardCount indicates a purchase asked for fewer than one card or
// more than the price table allows.
var ErrInvalidCardCount = errors.New("invalid card count")

// ErrInsufficientFunds indicates the ledger refused a debit.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrGameNotActive indicates the session does not accept the operation in its
// current status.
var ErrGameNotActive = errors.New("game is not active")

// ErrNumbersExhausted indicates all 75 numbers have been drawn.
var ErrNumbersExhausted = errors.New("all numbers have been drawn")

// ErrCapacityExceeded indicates a new player tried to join a full session.
var ErrCapacityExceeded = errors.New("game is full")

// ErrNotFound indicates an unknown card, game or player identifier.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a compare-and-save lost against a concurrent writer.
var ErrConflict = errors.New("version conflict")

// ErrCardUnavailable indicates a requested card is missing, inactive or
// already attached to the session.
var ErrCardUnavailable = errors.New("card unavailable")

// ErrInvalidRules indicates a rules or price table configuration is unusable.
var ErrInvalidRules = errors.New("invalid rules")

// ErrInvalidTransition indicates a status change not allowed from the
// current status.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrClosed indicates the engine has been shut down.
var ErrClosed = errors.New("engine closed")
