package models

import "fmt"

// AgencyID identifies a betting agency, 1..N.
type AgencyID uint8

// Bet is a single wager as received from an agency. It is built by the
// protocol decoder and never mutated afterwards.
type Bet struct {
	Agency    AgencyID
	FirstName string
	LastName  string
	Document  string
	Birthdate string // YYYY-MM-DD
	Number    int
}

func (b Bet) String() string {
	return fmt.Sprintf("Bet[agency=%d document=%s number=%d]", b.Agency, b.Document, b.Number)
}

// WinnersByAgency maps every agency to the documents of its winning bets, in
// the order the bets were stored.
type WinnersByAgency map[AgencyID][]string

// For returns the winners of agency, or an empty slice if it had none.
func (w WinnersByAgency) For(agency AgencyID) []string {
	if docs, ok := w[agency]; ok {
		return docs
	}
	return []string{}
}
