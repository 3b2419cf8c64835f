package shared

import (
	"encoding/binary"
	"hash"

	"github.com/minio/sha256-simd"
)

type CoinHasher struct {
	h      hash.Hash
	input  []byte
	offset int
}

// NewCoinHasher prepares a hasher for sha256(prefix || coinID || blob || minerID)
// where only the blob changes between calls to Hash.
func NewCoinHasher(p Puzzle) *CoinHasher {
	input := make([]byte, 0, len(p.Prefix)+len(p.CoinID)+CandidateSize+len(p.MinerID))
	input = append(input, p.Prefix...)
	input = append(input, p.CoinID...)
	offset := len(input)
	input = append(input, make([]byte, CandidateSize)...) // placeholder for nonce
	input = append(input, p.MinerID...)
	return &CoinHasher{h: sha256.New(), input: input, offset: offset}
}

func (c *CoinHasher) Hash(candidate Candidate, output []byte) []byte {
	binary.LittleEndian.PutUint64(c.input[c.offset:c.offset+CandidateSize], uint64(candidate))

	c.h.Reset()
	c.h.Write(c.input)
	return c.h.Sum(output)
}

// CheckLeadingZeroBits checks if the first 'expected' bits of the byte array are all zero.
func CheckLeadingZeroBits(data []byte, expected uint) bool {
	if len(data)*8 < int(expected) {
		return false
	}
	for i := 0; i < int(expected/8); i++ {
		if data[i] != 0 {
			return false
		}
	}
	if expected%8 != 0 {
		if data[expected/8]>>(8-expected%8) != 0 {
			return false
		}
	}

	return true
}

// CheckLeadingZeroHex checks if the hex encoding of data starts with 'expected' zero characters.
func CheckLeadingZeroHex(data []byte, expected uint) bool {
	if expected > uint(len(data))*2 {
		return false
	}
	return CheckLeadingZeroBits(data, 4*expected)
}

// Verify reports whether candidate solves the puzzle.
func Verify(p Puzzle, candidate Candidate) bool {
	return CheckLeadingZeroHex(NewCoinHasher(p).Hash(candidate, nil), p.Difficulty)
}
