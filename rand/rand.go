//
// Copyright 2020 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package rand provides methods for generating random numbers from
// distributions used by the noise mechanisms.
//
// Every draw comes from a cryptographically secure stream. Sources are never
// seeded, so repeated trials are independent and not replayable.
package rand

import (
	"bufio"
	cryptorand "crypto/rand"
	"encoding/binary"
	"io"
	"math"
	"math/bits"
	"sync"

	log "github.com/golang/glog"
)

const bufferSize = 65536

// Source is a buffered stream of secure random bits. It is safe for
// concurrent use, but concurrent workers should own separate Sources so that
// no draw is shared between them and no worker waits on another's lock.
type Source struct {
	bufLock sync.Mutex
	buf     io.Reader

	bitLock sync.Mutex
	bitBuf  uint8
	bitPos  int8
}

// NewSource returns a Source backed by its own buffer over crypto/rand.
func NewSource() *Source {
	return newSourceFromReader(bufio.NewReaderSize(cryptorand.Reader, bufferSize))
}

func newSourceFromReader(r io.Reader) *Source {
	return &Source{buf: r, bitPos: math.MaxInt8}
}

var defaultSource = NewSource()

// Default returns the process-wide Source used when no Source is given.
func Default() *Source {
	return defaultSource
}

func (s *Source) read(b []byte) (int, error) {
	s.bufLock.Lock()
	defer s.bufLock.Unlock()
	return io.ReadFull(s.buf, b)
}

// U64 returns a uniformly random uint64.
func (s *Source) U64() uint64 {
	var r [8]uint8
	if _, err := s.read(r[:]); err != nil {
		log.Fatalf("out of randomness, should never happen: %v", err)
	}
	return binary.LittleEndian.Uint64(r[:])
}

// U8 returns a uniformly random uint8.
func (s *Source) U8() uint8 {
	var r [1]uint8
	if _, err := s.read(r[:]); err != nil {
		log.Fatalf("out of randomness, should never happen: %v", err)
	}
	return r[0]
}

// Boolean returns true or false with equal probability.
func (s *Source) Boolean() bool {
	s.bitLock.Lock()
	defer s.bitLock.Unlock()
	if s.bitPos > 7 { // Out of random bits.
		s.bitBuf = s.U8()
		s.bitPos = 0
	}
	res := s.bitBuf&(1<<s.bitPos) > 0
	s.bitPos++
	return res
}

// Sign returns +1.0 or -1.0 with equal probabilities.
func (s *Source) Sign() float64 {
	if s.Boolean() {
		return 1.0
	}
	return -1.0
}

// Uniform returns a float64 from the interval (0,1) such that each float in
// the interval is returned with positive probability and the resulting
// distribution simulates a continuous uniform distribution.
func (s *Source) Uniform() float64 {
	i := s.U64() % (1 << 53)
	r := (1 + float64(i)/(1<<53)) / math.Pow(2, s.Geometric())
	// Callers take the log of the output, so 0 must never be returned.
	if r == 0 {
		return 1
	}
	return r
}

// Geometric returns a float64 that counts the number of Bernoulli trials until
// the first success for a success probability of 0.5.
func (s *Source) Geometric() float64 {
	// 1 plus the number of leading zeros from an infinite stream of random bits
	// follows the desired geometric distribution.
	b := 1
	var r uint8
	for r == 0 {
		r = s.U8()
		b += bits.LeadingZeros8(r)
	}
	return float64(b)
}

// Bernoulli returns true with probability p. Values of p outside [0, 1] are
// clamped, so p ≥ 1 always returns true and p ≤ 0 always returns false.
func (s *Source) Bernoulli(p float64) bool {
	return s.Uniform() < p
}
