// Package tickers generates the random token tickers and supplies the
// Evaluator hands out to students.
package tickers

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/big"
	"math/rand/v2"
)

// Alphabet is the set of characters tickers are drawn from.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Values is one generated set of supplies and tickers. Supplies[i] pairs with Tickers[i].
type Values struct {
	Seed     uint64
	Supplies []*big.Int
	Tickers  []string
}

// NewRand returns a PCG source for seed. A zero seed draws one from crypto/rand.
func NewRand(seed uint64) (*rand.Rand, uint64, error) {
	if seed == 0 {
		var b [8]byte
		if _, err := crand.Read(b[:]); err != nil {
			return nil, 0, fmt.Errorf("failed to seed random source: %w", err)
		}
		seed = binary.LittleEndian.Uint64(b[:])
		if seed == 0 {
			seed = 1
		}
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), seed, nil
}

// Generate draws count supplies in [0, maxSupply) and count tickers of length
// characters from Alphabet.
func Generate(rng *rand.Rand, count, length int, maxSupply int64) (Values, error) {
	switch {
	case rng == nil:
		return Values{}, fmt.Errorf("random source is required")
	case count <= 0:
		return Values{}, fmt.Errorf("count must be positive, got %d", count)
	case length <= 0:
		return Values{}, fmt.Errorf("ticker length must be positive, got %d", length)
	case maxSupply <= 0:
		return Values{}, fmt.Errorf("max supply must be positive, got %d", maxSupply)
	}

	v := Values{
		Supplies: make([]*big.Int, count),
		Tickers:  make([]string, count),
	}
	for i := 0; i < count; i++ {
		v.Supplies[i] = big.NewInt(rng.Int64N(maxSupply))
		v.Tickers[i] = ticker(rng, length)
	}
	return v, nil
}

// GenerateSeeded is Generate over a fresh PCG source; the seed actually used
// is returned in Values.Seed so a run can be replayed.
func GenerateSeeded(seed uint64, count, length int, maxSupply int64) (Values, error) {
	rng, used, err := NewRand(seed)
	if err != nil {
		return Values{}, err
	}
	v, err := Generate(rng, count, length, maxSupply)
	if err != nil {
		return Values{}, err
	}
	v.Seed = used
	return v, nil
}

func ticker(rng *rand.Rand, length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = Alphabet[rng.IntN(len(Alphabet))]
	}
	return string(b)
}

// SupplyStrings renders supplies as decimal strings.
func (v Values) SupplyStrings() []string {
	out := make([]string, len(v.Supplies))
	for i, s := range v.Supplies {
		out[i] = s.String()
	}
	return out
}
