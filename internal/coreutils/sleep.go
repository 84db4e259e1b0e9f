// SPDX-License-Identifier: MPL-2.0

package coreutils

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/invowk/multicall/internal/applet"
)

func init() {
	applet.RegisterDefault(&applet.Descriptor{
		Name:    "sleep",
		Usage:   "sleep NUMBER[SUFFIX]...",
		MinArgs: 1,
		MaxArgs: applet.Unbounded,
		Entry:   applet.MainFunc(sleepMain),
	})
}

// sleepMain pauses for the sum of its arguments, or until ctx is canceled.
func sleepMain(ctx context.Context, inv *applet.Invocation, argv []string) error {
	var total time.Duration
	for _, arg := range argv[1:] {
		d, err := parseSleepDuration(arg)
		if err != nil {
			return inv.UsageError(err.Error())
		}
		total += d
	}

	timer := time.NewTimer(total)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// parseSleepDuration parses a non-negative number of seconds with an optional
// s, m, h or d suffix.
func parseSleepDuration(s string) (time.Duration, error) {
	unit := time.Second
	num := s
	if len(s) > 0 {
		switch s[len(s)-1] {
		case 's':
			num = s[:len(s)-1]
		case 'm':
			unit, num = time.Minute, s[:len(s)-1]
		case 'h':
			unit, num = time.Hour, s[:len(s)-1]
		case 'd':
			unit, num = 24*time.Hour, s[:len(s)-1]
		}
	}

	v, err := strconv.ParseFloat(num, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) || strings.ContainsAny(num, "eExXpP") {
		return 0, fmt.Errorf("invalid time interval %q", s)
	}
	// Intervals past the Duration range saturate.
	if d := v * float64(unit); d < math.MaxInt64 {
		return time.Duration(d), nil
	}
	return time.Duration(math.MaxInt64), nil
}
