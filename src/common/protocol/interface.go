package protocol

import (
	"io"

	"github.com/maxogod/distro-lottery/src/common/models"
)

// BatchResult is the outcome of reading one batch frame. Every declared slot
// was consumed, so len(Bets)+Rejected equals the declared count.
type BatchResult struct {
	Bets     []models.Bet
	Rejected int
}

// Protocol encodes and decodes the lottery frames over a byte stream.
// Stream failures are reported as network.ErrConnectionClosed or
// network.ErrTimeout; content failures as ErrProtocolViolation.
type Protocol interface {

	// ReadMessageType reads the one-byte header of the next frame.
	ReadMessageType(r io.Reader) (MessageType, error)

	// ReadBet reads one length-prefixed bet. ErrMalformedBet means the
	// sub-frame was consumed but its content was invalid.
	ReadBet(r io.Reader) (models.Bet, error)

	// ReadBatch reads the batch count and then exactly that many bet
	// sub-frames, counting the ones that fail to parse.
	ReadBatch(r io.Reader) (BatchResult, error)

	// ReadAgency reads the agency id carried by GET_LOTTERY_RESULTS.
	ReadAgency(r io.Reader) (models.AgencyID, error)

	// ReadWinners reads the body of a LOTTERY_WINNERS frame, after its header.
	ReadWinners(r io.Reader) ([]string, error)

	// SendResponse writes a single-byte server response.
	SendResponse(w io.Writer, messageType MessageType) error

	// SendWinners writes a full LOTTERY_WINNERS frame.
	SendWinners(w io.Writer, documents []string) error

	// SendBatch writes a full BATCH_START frame.
	SendBatch(w io.Writer, bets []models.Bet) error

	// SendFinishedTransmission writes a FINISHED_TRANSMISSION frame.
	SendFinishedTransmission(w io.Writer) error

	// SendGetLotteryResults writes a GET_LOTTERY_RESULTS frame for agency.
	SendGetLotteryResults(w io.Writer, agency models.AgencyID) error
}
