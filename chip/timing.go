// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package chip

// Time units in nanoseconds.
//
const (
	Nanosecond  uint64 = 1
	Microsecond        = 1000 * Nanosecond
	Millisecond        = 1000 * Microsecond
	Second             = 1000 * Millisecond
)

// Datasheet timing bounds.
//
const (
	TUVMin        = 100 * Millisecond // undervoltage filter
	TUVMax        = 350 * Millisecond
	TTXDDTOMin    = 1200 * Microsecond // TXD dominant timeout
	TTXDDTOMax    = 3800 * Microsecond
	TBusDomMin    = 1400 * Microsecond // bus dominant timeout
	TBusDomMax    = 3800 * Microsecond
	TWKFilterMin  = 500 * Nanosecond // wake-up pattern phase filter
	TWKFilterMax  = 1800 * Nanosecond
	TWKTimeoutMin = 800 * Microsecond // wake-up pattern window
	TWKTimeoutMax = 2000 * Microsecond
	TSilenceMin   = 600 * Millisecond // bus silence
	TSilenceMax   = 1200 * Millisecond

	TPropLoop1Min = 100 * Nanosecond // TXD to RXD, recessive to dominant
	TPropLoop1Max = 190 * Nanosecond
	TPropLoop2Min = 110 * Nanosecond // TXD to RXD, dominant to recessive
	TPropLoop2Max = 190 * Nanosecond

	TPowerUp     = 340 * Microsecond
	TMode        = 200 * Microsecond
	TINHDelay    = 100 * Microsecond // INH assertion delay after a wake event
	TXcvrSilence = 1 * Second        // transceiver autonomous silence
	TBiasSilence = 900 * Millisecond // bias autonomous silence
)

// Timing holds the durations, in nanoseconds, used by the detectors.
//
type Timing struct {
	UVFilter      uint64 // VCC and VIO undervoltage filter
	TXDTimeout    uint64 // TXD dominant timeout and TXD/RXD short
	BusDomTimeout uint64 // bus dominant timeout
	WakeFilter    uint64 // minimum hold of each wake-up pattern phase
	WakeTimeout   uint64 // wake-up pattern window
	SleepSilence  uint64 // Go-to-Sleep dwell time before Sleep
}

// DefaultTiming is the timing used after reset.
//
var DefaultTiming = Timing{
	UVFilter:      TUVMin,
	TXDTimeout:    TTXDDTOMin,
	BusDomTimeout: TBusDomMin,
	WakeFilter:    TWKFilterMin,
	WakeTimeout:   TWKTimeoutMax,
	SleepSilence:  TSilenceMin,
}
