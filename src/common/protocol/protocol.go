package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"github.com/maxogod/distro-lottery/src/common/models"
	"github.com/maxogod/distro-lottery/src/common/network"
)

type protocol struct{}

func NewProtocol() Protocol {
	return &protocol{}
}

func (p *protocol) ReadMessageType(r io.Reader) (MessageType, error) {
	header, err := network.ReadBytes(r, MessageHeaderLength)
	if err != nil {
		return 0, err
	}
	return MessageType(header[0]), nil
}

func (p *protocol) ReadBet(r io.Reader) (models.Bet, error) {
	payload, err := readBetFrame(r)
	if err != nil {
		return models.Bet{}, err
	}
	return DecodeBet(payload)
}

func (p *protocol) ReadBatch(r io.Reader) (BatchResult, error) {
	sizeBytes, err := network.ReadBytes(r, BatchLengthBytes)
	if err != nil {
		return BatchResult{}, err
	}
	betsToRead := int(sizeBytes[0])

	result := BatchResult{Bets: make([]models.Bet, 0, betsToRead)}
	for range betsToRead {
		payload, err := readBetFrame(r)
		if err != nil {
			return result, err
		}

		bet, parseErr := DecodeBet(payload)
		if parseErr != nil {
			result.Rejected++
			continue
		}
		result.Bets = append(result.Bets, bet)
	}

	return result, nil
}

func (p *protocol) ReadAgency(r io.Reader) (models.AgencyID, error) {
	agency, err := network.ReadBytes(r, AgencyBytes)
	if err != nil {
		return 0, err
	}
	return models.AgencyID(agency[0]), nil
}

func (p *protocol) ReadWinners(r io.Reader) ([]string, error) {
	lengthBytes, err := network.ReadBytes(r, WinnersLengthBytes)
	if err != nil {
		return nil, err
	}

	payloadLength := binary.BigEndian.Uint32(lengthBytes)
	if payloadLength%DocumentBytes != 0 {
		return nil, fmt.Errorf("%w: winners payload of %d bytes is not a multiple of %d",
			ErrProtocolViolation, payloadLength, DocumentBytes)
	}

	winners := make([]string, 0, payloadLength/DocumentBytes)
	for range payloadLength / DocumentBytes {
		document, err := network.ReadBytes(r, DocumentBytes)
		if err != nil {
			return nil, err
		}
		winners = append(winners, strconv.FormatUint(uint64(binary.BigEndian.Uint32(document)), 10))
	}

	return winners, nil
}

func (p *protocol) SendResponse(w io.Writer, messageType MessageType) error {
	return network.WriteFull(w, []byte{byte(messageType)})
}

func (p *protocol) SendWinners(w io.Writer, documents []string) error {
	data := make([]byte, MessageHeaderLength+WinnersLengthBytes, MessageHeaderLength+WinnersLengthBytes+len(documents)*DocumentBytes)
	data[0] = byte(LotteryWinners)
	binary.BigEndian.PutUint32(data[MessageHeaderLength:], uint32(len(documents)*DocumentBytes))

	for _, document := range documents {
		value, err := parseDocument(document)
		if err != nil {
			return err
		}
		data = binary.BigEndian.AppendUint32(data, value)
	}

	return network.WriteFull(w, data)
}

func (p *protocol) SendBatch(w io.Writer, bets []models.Bet) error {
	if len(bets) > MaxBatchSize {
		return fmt.Errorf("batch of %d bets exceeds the maximum of %d", len(bets), MaxBatchSize)
	}

	data := []byte{byte(BatchStart), byte(len(bets))}
	for _, bet := range bets {
		encoded, err := EncodeBet(bet)
		if err != nil {
			return err
		}
		data = append(data, encoded...)
	}

	return network.WriteFull(w, data)
}

func (p *protocol) SendFinishedTransmission(w io.Writer) error {
	return network.WriteFull(w, []byte{byte(FinishedTransmission)})
}

func (p *protocol) SendGetLotteryResults(w io.Writer, agency models.AgencyID) error {
	return network.WriteFull(w, []byte{byte(GetLotteryResults), byte(agency)})
}

/* --- PRIVATE METHODS --- */

// readBetFrame consumes one length-prefixed bet sub-frame. Oversized payloads
// are skipped and surface as ErrMalformedBet through DecodeBet(nil).
func readBetFrame(r io.Reader) ([]byte, error) {
	lengthBytes, err := network.ReadBytes(r, BetLengthBytes)
	if err != nil {
		return nil, err
	}

	length := binary.BigEndian.Uint32(lengthBytes)
	if length > MaxBetLength {
		if err := network.Discard(r, int(length)); err != nil {
			return nil, err
		}
		return nil, nil
	}

	return network.ReadBytes(r, int(length))
}
