// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tcansim

import (
	"github.com/db47h/tcansim/chip"
	"github.com/pkg/errors"
)

// Errors returned by the simulator. Returned errors wrap one of these and
// can be tested with errors.Cause. A call that returns an error has not
// changed the simulator state.
//
var (
	ErrInvalidPin       = chip.ErrInvalidPin
	ErrNotInput         = chip.ErrNotInput
	ErrInvalidVoltage   = chip.ErrInvalidVoltage
	ErrInvalidParameter = chip.ErrInvalidParameter
	ErrInvalidEvent     = errors.New("invalid event")
	ErrInvalidSnapshot  = errors.New("invalid snapshot")
)
