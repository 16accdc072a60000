package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrProtocolViolation covers frames that are well delimited but carry
	// content the server does not accept, such as an unknown tag.
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrMalformedBet is a bet sub-frame that could not be parsed. The frame
	// itself was fully consumed.
	ErrMalformedBet = fmt.Errorf("%w: malformed bet", ErrProtocolViolation)
)
