package protocol

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/maxogod/distro-lottery/src/common/models"
)

// EncodeBet returns the length-prefixed sub-frame for bet. Fields are laid
// out as first_name#last_name#document#birthdate#number#agency.
func EncodeBet(bet models.Bet) ([]byte, error) {
	if err := ValidateBet(bet); err != nil {
		return nil, err
	}

	message := strings.Join([]string{
		bet.FirstName,
		bet.LastName,
		bet.Document,
		bet.Birthdate,
		strconv.Itoa(bet.Number),
		strconv.Itoa(int(bet.Agency)),
	}, Separator)

	data := make([]byte, BetLengthBytes, BetLengthBytes+len(message))
	binary.BigEndian.PutUint32(data, uint32(len(message)))
	return append(data, message...), nil
}

// DecodeBet parses the text payload of a bet sub-frame.
func DecodeBet(payload []byte) (models.Bet, error) {
	if payload == nil {
		return models.Bet{}, fmt.Errorf("%w: payload exceeds %d bytes", ErrMalformedBet, MaxBetLength)
	}
	if !utf8.Valid(payload) {
		return models.Bet{}, fmt.Errorf("%w: payload is not valid utf-8", ErrMalformedBet)
	}

	fields := strings.Split(string(payload), Separator)
	if len(fields) != ExpectedBetFields {
		return models.Bet{}, fmt.Errorf("%w: need %d fields, but %d were given: %q",
			ErrMalformedBet, ExpectedBetFields, len(fields), fields)
	}

	number, err := strconv.Atoi(fields[4])
	if err != nil {
		return models.Bet{}, fmt.Errorf("%w: invalid number %q", ErrMalformedBet, fields[4])
	}
	agency, err := strconv.ParseUint(fields[5], 10, 8)
	if err != nil {
		return models.Bet{}, fmt.Errorf("%w: invalid agency %q", ErrMalformedBet, fields[5])
	}

	bet := models.Bet{
		FirstName: fields[0],
		LastName:  fields[1],
		Document:  fields[2],
		Birthdate: fields[3],
		Number:    number,
		Agency:    models.AgencyID(agency),
	}
	if err := ValidateBet(bet); err != nil {
		return models.Bet{}, err
	}

	return bet, nil
}

// ValidateBet checks the field constraints shared by the encoder and decoder.
func ValidateBet(bet models.Bet) error {
	for _, field := range []string{bet.FirstName, bet.LastName, bet.Document, bet.Birthdate} {
		if strings.Contains(field, Separator) {
			return fmt.Errorf("%w: field %q contains the separator", ErrMalformedBet, field)
		}
	}
	if bet.Agency == 0 {
		return fmt.Errorf("%w: agency must be positive", ErrMalformedBet)
	}
	if bet.Number < 0 {
		return fmt.Errorf("%w: negative number %d", ErrMalformedBet, bet.Number)
	}
	if _, err := parseDocument(bet.Document); err != nil {
		return err
	}
	if _, err := time.Parse(BirthdateLayout, bet.Birthdate); err != nil {
		return fmt.Errorf("%w: invalid birthdate %q", ErrMalformedBet, bet.Birthdate)
	}
	return nil
}

func parseDocument(document string) (uint32, error) {
	value, err := strconv.ParseUint(document, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: document %q does not fit in %d bytes", ErrMalformedBet, document, DocumentBytes)
	}
	return uint32(value), nil
}
