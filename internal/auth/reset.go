// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/samber/oops"
)

// Reset code bounds: a 6-digit numeric code in [100000, 999999].
const (
	resetCodeMin  = 100000
	resetCodeSpan = 900000
)

// GenerateResetCode draws a 6-digit numeric code uniformly at random.
func GenerateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(resetCodeSpan))
	if err != nil {
		return "", oops.Code("RESET_CODE_GENERATE_FAILED").
			With("operation", "crypto/rand.Int").
			Wrap(err)
	}
	return fmt.Sprintf("%06d", n.Int64()+resetCodeMin), nil
}
