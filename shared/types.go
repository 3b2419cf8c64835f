package shared

import (
	"encoding/binary"
	"strconv"
)

// CandidateSize is the size of an encoded candidate blob in bytes.
const CandidateSize = 8

// Puzzle is the input of a single solve attempt.
type Puzzle struct {
	// Prefix is the fixed protocol prefix every coin hash starts with.
	Prefix  string
	CoinID  string
	MinerID string
	// Difficulty is the number of leading zero hex characters required in the coin hash.
	Difficulty uint
}

// Candidate is a nonce believed to solve a Puzzle.
type Candidate uint64

// Blob returns the wire representation of the candidate: 8 bytes, little endian.
func (c Candidate) Blob() []byte {
	b := make([]byte, CandidateSize)
	binary.LittleEndian.PutUint64(b, uint64(c))
	return b
}

func (c Candidate) String() string {
	return strconv.FormatUint(uint64(c), 10)
}
