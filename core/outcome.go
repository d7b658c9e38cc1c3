// Copyright 2021 Compass Systems
// SPDX-License-Identifier: LGPL-3.0-only

package core

import (
	"context"
	"time"
)

// Outcome is what one check-in attempt reports back to the scheduler.
type Outcome struct {
	Succeeded   bool
	LastCheckin *time.Time // server-reported time of the latest accepted check-in, nil when unknown
	Fatal       bool       // authentication failed, the loop stops
	Err         error
}

// Attempt runs one full check-in cycle.
type Attempt interface {
	Attempt(ctx context.Context) Outcome
}

type AttemptFunc func(ctx context.Context) Outcome

func (f AttemptFunc) Attempt(ctx context.Context) Outcome {
	return f(ctx)
}
