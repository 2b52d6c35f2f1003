package application

import "time"

// Clock interface supaya gampang ditest (record timestamps, trend windows)
type Clock interface {
	Now() time.Time
}

// SystemClock implementasi default, pakai time.Now()
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock selalu balikin waktu yang sama, dipakai di test.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }
