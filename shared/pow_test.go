package shared_test

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/coinminer/shared"
)

func TestCheckLeadingZeroBits(t *testing.T) {
	r := require.New(t)

	r.True(shared.CheckLeadingZeroBits([]byte{0x00}, 0))
	r.True(shared.CheckLeadingZeroBits([]byte{0x00}, 8))

	// Out of bounds
	r.False(shared.CheckLeadingZeroBits([]byte{0x00}, 9))

	r.True(shared.CheckLeadingZeroBits([]byte{0x0F}, 4))
	r.False(shared.CheckLeadingZeroBits([]byte{0x0F}, 5))

	r.True(shared.CheckLeadingZeroBits([]byte{0x00, 0x0F}, 5))
	r.True(shared.CheckLeadingZeroBits([]byte{0x00, 0x0F}, 12))
	r.False(shared.CheckLeadingZeroBits([]byte{0x00, 0x0F}, 13))
}

func TestCheckLeadingZeroHex(t *testing.T) {
	r := require.New(t)

	r.True(shared.CheckLeadingZeroHex([]byte{0x00, 0x0F}, 3))
	r.False(shared.CheckLeadingZeroHex([]byte{0x00, 0x1F}, 3))
	r.True(shared.CheckLeadingZeroHex([]byte{0xFF}, 0))
	r.True(shared.CheckLeadingZeroHex([]byte{0x00, 0x00}, 4))
	r.False(shared.CheckLeadingZeroHex([]byte{0x00, 0x00}, 5))
	// 4*expected overflows uint
	r.False(shared.CheckLeadingZeroHex([]byte{0xFF, 0xFF}, 1<<62))
}

func TestCandidateBlob(t *testing.T) {
	require.Equal(t, []byte{42, 0, 0, 0, 0, 0, 0, 0}, shared.Candidate(42).Blob())
	require.Equal(t, []byte{1, 2, 0, 0, 0, 0, 0, 0}, shared.Candidate(0x0201).Blob())
}

func TestCoinHasherMatchesPlainSha256(t *testing.T) {
	p := shared.Puzzle{
		Prefix:  "CPEN 442 Coin2022",
		CoinID:  strings.Repeat("ab", 32),
		MinerID: "free-vbucks",
	}
	h := shared.NewCoinHasher(p)

	for _, c := range []shared.Candidate{0, 7, 1 << 40} {
		var input []byte
		input = append(input, p.Prefix...)
		input = append(input, p.CoinID...)
		input = append(input, c.Blob()...)
		input = append(input, p.MinerID...)
		expected := sha256.Sum256(input)

		require.Equal(t, hex.EncodeToString(expected[:]), hex.EncodeToString(h.Hash(c, nil)), "candidate %d", c)
	}
}

func TestVerify(t *testing.T) {
	p := shared.Puzzle{
		Prefix:     "CPEN 442 Coin2022",
		CoinID:     strings.Repeat("0", 64),
		MinerID:    "abc",
		Difficulty: 1,
	}
	h := shared.NewCoinHasher(p)
	var found shared.Candidate
	for c := shared.Candidate(0); ; c++ {
		if hex.EncodeToString(h.Hash(c, nil))[0] == '0' {
			found = c
			break
		}
	}
	require.True(t, shared.Verify(p, found))

	p.Difficulty = 64
	require.False(t, shared.Verify(p, found))

	p.Difficulty = 1 << 62
	for c := shared.Candidate(0); c < 5; c++ {
		require.False(t, shared.Verify(p, c), "candidate %d", c)
	}
}

func BenchmarkCoinHash(b *testing.B) {
	h := shared.NewCoinHasher(shared.Puzzle{
		Prefix:  "CPEN 442 Coin2022",
		CoinID:  strings.Repeat("ab", 32),
		MinerID: "free-vbucks",
	})

	var out []byte
	for i := 0; i < b.N; i++ {
		out = h.Hash(shared.Candidate(i), out[:0])
	}
}
