// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tally maintains aggregate counters for engagement items.

Every increment is a single server-side upsert (counter = counter + 1), so
concurrent writers never lose updates. Response and vote counters are
applied by the submission engine inside the transaction that inserted the
response, through Maintainer.With. View counts are best effort.

# Percentages

	Percentage(votes, total) = votes / max(total, 1) * 100

An item with no responses reports 0% for every option.
*/
package tally
