// Package entropy supplies run seeds from crypto/rand when the scenario does
// not pin one.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"log/slog"
	"time"
)

// Seed returns a fresh positive seed.
func Seed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// This should never happen; the clock is still unique enough per run.
		slog.Warn("crypto/rand unavailable, seeding from clock", "error", err)
		return time.Now().UnixNano()&(1<<62-1) | 1
	}
	// 62 bits keeps the seed positive with room for per-pass offsets.
	n := int64(binary.LittleEndian.Uint64(buf[:]) >> 2)
	if n == 0 {
		n = 1
	}
	return n
}

// Resolve returns seed unchanged unless it is 0, in which case it draws a
// fresh one.
func Resolve(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	s := Seed()
	slog.Info("random seed drawn", "seed", s)
	return s
}
