package domain

import (
	"fmt"
	"math/big"
	"strconv"
)

// Token amounts are decimal-string big integers (wei format). They are summed
// with arbitrary-precision integer arithmetic only; converting them to floats
// would corrupt balances.

func parseAmount(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return n, nil
}

// AddAmount returns a+b for two decimal-string amounts.
func AddAmount(a, b string) (string, error) {
	x, err := parseAmount(a)
	if err != nil {
		return "", err
	}
	y, err := parseAmount(b)
	if err != nil {
		return "", err
	}
	return x.Add(x, y).String(), nil
}

// SubAmount returns a-b for two decimal-string amounts.
func SubAmount(a, b string) (string, error) {
	x, err := parseAmount(a)
	if err != nil {
		return "", err
	}
	y, err := parseAmount(b)
	if err != nil {
		return "", err
	}
	return x.Sub(x, y).String(), nil
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
