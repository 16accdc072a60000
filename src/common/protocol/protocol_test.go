package protocol_test

import (
	"bytes"
	"encoding/binary"
	"testing"
	"testing/iotest"

	"github.com/maxogod/distro-lottery/src/common/models"
	"github.com/maxogod/distro-lottery/src/common/network"
	"github.com/maxogod/distro-lottery/src/common/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===== INPUT DATA =====

var Bets = []models.Bet{
	{Agency: 1, FirstName: "Santiago Lionel", LastName: "Lorca", Document: "30904465", Birthdate: "1999-03-17", Number: 7574},
	{Agency: 1, FirstName: "María", LastName: "Núñez", Document: "2", Birthdate: "2000-01-01", Number: 0},
	{Agency: 5, FirstName: "", LastName: "", Document: "4294967295", Birthdate: "1970-12-31", Number: 123456},
}

func rawBet(text string) []byte {
	data := make([]byte, 4)
	binary.BigEndian.PutUint32(data, uint32(len(text)))
	return append(data, text...)
}

// ===== TESTS =====

func TestBet_EncodeDecodeRoundTrip(t *testing.T) {
	p := protocol.NewProtocol()

	for _, bet := range Bets {
		encoded, err := protocol.EncodeBet(bet)
		require.NoError(t, err)

		decoded, err := p.ReadBet(iotest.OneByteReader(bytes.NewReader(encoded)))
		require.NoError(t, err)
		assert.Equal(t, bet, decoded)
	}
}

func TestBet_FieldOrder(t *testing.T) {
	encoded, err := protocol.EncodeBet(Bets[0])
	require.NoError(t, err)

	assert.Equal(t, "Santiago Lionel#Lorca#30904465#1999-03-17#7574#1", string(encoded[4:]))
	assert.Equal(t, uint32(len(encoded)-4), binary.BigEndian.Uint32(encoded[:4]))
}

func TestBet_Malformed(t *testing.T) {
	cases := map[string]string{
		"missing field":   "a#b#1#2000-01-01#5",
		"extra field":     "a#b#1#2000-01-01#5#1#x",
		"bad document":    "a#b#doc#2000-01-01#5#1",
		"huge document":   "a#b#4294967296#2000-01-01#5#1",
		"bad birthdate":   "a#b#1#01/01/2000#5#1",
		"bad number":      "a#b#1#2000-01-01#five#1",
		"negative number": "a#b#1#2000-01-01#-5#1",
		"zero agency":     "a#b#1#2000-01-01#5#0",
		"agency overflow": "a#b#1#2000-01-01#5#256",
		"empty payload":   "",
		"invalid utf8":    "a\xff#b#1#2000-01-01#5#1",
	}

	p := protocol.NewProtocol()
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := p.ReadBet(bytes.NewReader(rawBet(text)))
			assert.ErrorIs(t, err, protocol.ErrMalformedBet)
			assert.ErrorIs(t, err, protocol.ErrProtocolViolation)
		})
	}
}

func TestBet_EncodeRejectsSeparator(t *testing.T) {
	bet := Bets[0]
	bet.FirstName = "Juan#Pablo"

	_, err := protocol.EncodeBet(bet)
	assert.ErrorIs(t, err, protocol.ErrMalformedBet)
}

func TestReadBatch_ConsumesEveryDeclaredSlot(t *testing.T) {
	var stream bytes.Buffer
	stream.Write([]byte{3})
	good1, _ := protocol.EncodeBet(Bets[0])
	good3, _ := protocol.EncodeBet(Bets[1])
	stream.Write(good1)
	stream.Write(rawBet("only#five#fields#2000-01-01#1"))
	stream.Write(good3)
	// next frame on the wire must stay aligned
	stream.Write([]byte{byte(protocol.FinishedTransmission)})

	p := protocol.NewProtocol()
	result, err := p.ReadBatch(&stream)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Rejected)
	assert.Equal(t, []models.Bet{Bets[0], Bets[1]}, result.Bets)
	assert.Equal(t, 3, len(result.Bets)+result.Rejected)

	next, err := p.ReadMessageType(&stream)
	require.NoError(t, err)
	assert.Equal(t, protocol.FinishedTransmission, next)
}

func TestReadBatch_OversizedBetIsSkipped(t *testing.T) {
	var stream bytes.Buffer
	stream.Write([]byte{2})
	oversized := make([]byte, 4)
	binary.BigEndian.PutUint32(oversized, protocol.MaxBetLength+1)
	stream.Write(oversized)
	stream.Write(make([]byte, protocol.MaxBetLength+1))
	good, _ := protocol.EncodeBet(Bets[2])
	stream.Write(good)

	result, err := protocol.NewProtocol().ReadBatch(&stream)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rejected)
	assert.Equal(t, []models.Bet{Bets[2]}, result.Bets)
	assert.Zero(t, stream.Len())
}

func TestReadBatch_EmptyBatch(t *testing.T) {
	result, err := protocol.NewProtocol().ReadBatch(bytes.NewReader([]byte{0}))
	require.NoError(t, err)
	assert.Empty(t, result.Bets)
	assert.Zero(t, result.Rejected)
}

func TestReadBatch_StreamClosedMidBatch(t *testing.T) {
	var stream bytes.Buffer
	stream.Write([]byte{2})
	good, _ := protocol.EncodeBet(Bets[0])
	stream.Write(good)
	stream.Write([]byte{0, 0})

	result, err := protocol.NewProtocol().ReadBatch(&stream)
	assert.ErrorIs(t, err, network.ErrConnectionClosed)
	assert.Len(t, result.Bets, 1)
}

func TestSendBatch_ReadBack(t *testing.T) {
	p := protocol.NewProtocol()
	var stream bytes.Buffer
	require.NoError(t, p.SendBatch(&stream, Bets))

	messageType, err := p.ReadMessageType(&stream)
	require.NoError(t, err)
	assert.Equal(t, protocol.BatchStart, messageType)

	result, err := p.ReadBatch(&stream)
	require.NoError(t, err)
	assert.Equal(t, Bets, result.Bets)
	assert.Zero(t, result.Rejected)
}

func TestSendBatch_TooLarge(t *testing.T) {
	bets := make([]models.Bet, protocol.MaxBatchSize+1)
	for i := range bets {
		bets[i] = Bets[0]
	}
	var stream bytes.Buffer
	assert.Error(t, protocol.NewProtocol().SendBatch(&stream, bets))
	assert.Zero(t, stream.Len())
}

func TestSendWinners_Layout(t *testing.T) {
	var stream bytes.Buffer
	require.NoError(t, protocol.NewProtocol().SendWinners(&stream, []string{"30904465", "1"}))

	expected := []byte{
		3,
		0, 0, 0, 8,
		0x01, 0xd7, 0x90, 0x91,
		0, 0, 0, 1,
	}
	assert.Equal(t, expected, stream.Bytes())
}

func TestSendWinners_ReadBack(t *testing.T) {
	p := protocol.NewProtocol()
	var stream bytes.Buffer
	require.NoError(t, p.SendWinners(&stream, []string{}))
	require.NoError(t, p.SendWinners(&stream, []string{"4294967295", "12"}))

	for _, expected := range [][]string{{}, {"4294967295", "12"}} {
		messageType, err := p.ReadMessageType(&stream)
		require.NoError(t, err)
		assert.Equal(t, protocol.LotteryWinners, messageType)

		winners, err := p.ReadWinners(&stream)
		require.NoError(t, err)
		assert.Equal(t, expected, winners)
	}
}

func TestSendWinners_InvalidDocumentWritesNothing(t *testing.T) {
	var stream bytes.Buffer
	err := protocol.NewProtocol().SendWinners(&stream, []string{"1", "abc"})
	assert.ErrorIs(t, err, protocol.ErrMalformedBet)
	assert.Zero(t, stream.Len())
}

func TestReadWinners_BadLength(t *testing.T) {
	_, err := protocol.NewProtocol().ReadWinners(bytes.NewReader([]byte{0, 0, 0, 3, 1, 2, 3}))
	assert.ErrorIs(t, err, protocol.ErrProtocolViolation)
}

func TestClientFrames(t *testing.T) {
	p := protocol.NewProtocol()
	var stream bytes.Buffer

	require.NoError(t, p.SendFinishedTransmission(&stream))
	require.NoError(t, p.SendGetLotteryResults(&stream, 4))
	assert.Equal(t, []byte{1, 2, 4}, stream.Bytes())

	messageType, err := p.ReadMessageType(&stream)
	require.NoError(t, err)
	assert.Equal(t, protocol.FinishedTransmission, messageType)

	messageType, err = p.ReadMessageType(&stream)
	require.NoError(t, err)
	assert.Equal(t, protocol.GetLotteryResults, messageType)

	agency, err := p.ReadAgency(&stream)
	require.NoError(t, err)
	assert.Equal(t, models.AgencyID(4), agency)
}

func TestReadMessageType_ClosedStream(t *testing.T) {
	_, err := protocol.NewProtocol().ReadMessageType(bytes.NewReader(nil))
	assert.ErrorIs(t, err, network.ErrConnectionClosed)
	assert.NotErrorIs(t, err, protocol.ErrProtocolViolation)
}

func TestSendResponse(t *testing.T) {
	var stream bytes.Buffer
	p := protocol.NewProtocol()
	require.NoError(t, p.SendResponse(&stream, protocol.Success))
	require.NoError(t, p.SendResponse(&stream, protocol.Error))
	require.NoError(t, p.SendResponse(&stream, protocol.CantGiveLotteryResults))
	assert.Equal(t, []byte{0, 1, 2}, stream.Bytes())
}
