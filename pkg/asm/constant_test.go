/*
Copyright © 2022 Jeff Berkowitz (pdxjjb@gmail.com)

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package asm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstant1(t *testing.T) {
	cases := map[string]int32{
		"0":          0,
		"1234":       1234,
		"$FF":        255,
		"$ff":        255,
		"$FF0000":    0xFF0000,
		"%1010":      10,
		"$FFFFFFFF":  -1,
		"4294967295": -1,
	}
	for text, want := range cases {
		got, err := DecodeConstant(text)
		assert.NoError(t, err, text)
		assert.Equal(t, want, got, text)
	}
}

func TestConstant1Fail(t *testing.T) {
	cases := map[string]ConstKind{
		"":           InvalidPrefix,
		"x12":        InvalidPrefix,
		"-5":         InvalidPrefix,
		"$":          InvalidDigits,
		"%2":         InvalidDigits,
		"12z":        InvalidDigits,
		"$100000000": InvalidDigits,
	}
	for text, want := range cases {
		_, err := DecodeConstant(text)
		var ce *ConstantError
		if assert.True(t, errors.As(err, &ce), text) {
			assert.Equal(t, want, ce.Kind, text)
		}
	}
}

func TestConstantInPlace(t *testing.T) {
	val, end, err := decodeConstantAt("MOV W0, %11,", 8)
	assert.NoError(t, err)
	assert.Equal(t, int32(3), val)
	assert.Equal(t, 11, end)
}
