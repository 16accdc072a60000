package protocol

// MessageType is the one-byte tag opening every frame. Client and server
// tags share the value space; direction disambiguates them.
type MessageType uint8

// Client side message codes
const (
	BatchStart           MessageType = 0
	FinishedTransmission MessageType = 1
	GetLotteryResults    MessageType = 2
)

// Server side message codes
const (
	Success                MessageType = 0
	Error                  MessageType = 1
	CantGiveLotteryResults MessageType = 2
	LotteryWinners         MessageType = 3
)

// Field widths in bytes
const (
	MessageHeaderLength = 1
	BatchLengthBytes    = 1
	BetLengthBytes      = 4
	AgencyBytes         = 1
	WinnersLengthBytes  = 4
	DocumentBytes       = 4
)

const (
	Separator         = "#"
	ExpectedBetFields = 6
	BirthdateLayout   = "2006-01-02"

	// MaxBatchSize is the largest count a batch header can declare.
	MaxBatchSize = 255

	// MaxBetLength bounds a single bet payload. Longer payloads are skipped
	// and counted as rejected.
	MaxBetLength = 64 * 1024
)
