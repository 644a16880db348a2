// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package chip

import "github.com/pkg/errors"

// Errors returned by pin and parameter checks. Returned errors wrap one of
// these; use errors.Cause to test for them.
//
var (
	ErrInvalidPin       = errors.New("invalid pin")
	ErrNotInput         = errors.New("pin is not an input")
	ErrInvalidVoltage   = errors.New("voltage out of range")
	ErrInvalidParameter = errors.New("invalid parameter")
)
