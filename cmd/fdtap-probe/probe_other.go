// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !unix

package main

import (
	"errors"
	"fmt"
)

func runProbe(probeOptions) error {
	return fmt.Errorf("fd capture probe: %w", errors.ErrUnsupported)
}
