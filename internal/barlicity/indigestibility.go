// Package barlicity scores how natural an integer subdivision of a beat is, after Clarence Barlow's
// indigestibility function.
package barlicity

import (
	"errors"
	"fmt"
	"sync"

	"github.com/MarcTheSpark/playcorder/internal/frac"
)

// ErrNotPositive is returned for arguments that are not positive integers.
var ErrNotPositive = errors.New("argument must be a positive integer")

// Calculator computes indigestibility values and memoizes them.
// It is safe for concurrent use; a single Calculator may be shared by parallel exports.
type Calculator struct {
	mu    sync.RWMutex
	cache map[int]float64
}

// NewCalculator returns an empty Calculator.
func NewCalculator() *Calculator {
	return &Calculator{
		cache: map[int]float64{},
	}
}

// IsPrime reports whether n is prime.
func IsPrime(n int) bool {
	if n < 2 {
		return false
	}
	for i := 2; i*i <= n; i++ {
		if n%i == 0 {
			return false
		}
	}
	return true
}

// PrimeFactors returns the prime factors of n in ascending order, with multiplicity.
// PrimeFactors(1) is empty.
func PrimeFactors(n int) []int {
	var primes []int
	for i := 2; i*i <= n; i++ {
		for n%i == 0 {
			n /= i
			primes = append(primes, i)
		}
	}
	if n > 1 {
		primes = append(primes, n)
	}
	return primes
}

// Indigestibility returns Barlow's indigestibility of n: 0 for 1, 2(p-1)²/p for a prime p, and the sum
// over the prime factors for composite numbers.
func (c *Calculator) Indigestibility(n int) (float64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("indigestibility(%d): %w", n, ErrNotPositive)
	}
	c.mu.RLock()
	v, found := c.cache[n]
	c.mu.RUnlock()
	if found {
		return v, nil
	}
	if IsPrime(n) {
		v = 2 * float64((n-1)*(n-1)) / float64(n)
	} else {
		for _, p := range PrimeFactors(n) {
			pv, err := c.Indigestibility(p)
			if err != nil {
				return 0, err
			}
			v += pv
		}
	}
	c.mu.Lock()
	c.cache[n] = v
	c.mu.Unlock()
	return v, nil
}

// RawIndigestibility scores divisor relative to the natural division of a beat: the fraction
// divisor/beatNumerator is reduced, and the indigestibilities of its numerator and denominator are summed.
func (c *Calculator) RawIndigestibility(divisor, beatNumerator int) (float64, error) {
	if divisor <= 0 || beatNumerator <= 0 {
		return 0, fmt.Errorf("raw indigestibility of %d/%d: %w", divisor, beatNumerator, ErrNotPositive)
	}
	relative := frac.New(int64(divisor), int64(beatNumerator))
	num, err := c.Indigestibility(int(relative.Num()))
	if err != nil {
		return 0, err
	}
	den, err := c.Indigestibility(int(relative.Den()))
	if err != nil {
		return 0, err
	}
	return num + den, nil
}
