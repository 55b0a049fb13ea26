// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package epd

import (
	"errors"
	"fmt"
)

// ErrOutOfBounds is returned when a pixel coordinate is outside the grid.
var ErrOutOfBounds = errors.New("epd: pixel out of bounds")

// ConfigurationError reports an unknown model or unsupported color mode.
type ConfigurationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("epd: %s %q: %s", e.Field, e.Value, e.Reason)
}

// ShapeError reports image data that does not match the display resolution.
type ShapeError struct {
	Want int
	Got  int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("epd: image has %d pixels, display needs %d", e.Got, e.Want)
}
