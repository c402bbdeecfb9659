package primeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPrime(t *testing.T) {
	cases := []struct {
		n     float64
		prime bool
	}{
		{2, true},
		{3, true},
		{4, false},
		{17, true},
		{1, false},
		{0, false},
		{-7, false},
		{7.5, false},
		{7919, true},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.prime, isPrime(tc.n), "isPrime(%v)", tc.n)
	}
}
