// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package telemetry sets up OpenTelemetry metrics and the instruments
// recorded by the submission engine and tally maintainer.
package telemetry
