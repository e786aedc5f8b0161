// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// normalize converts pgx-decoded values into the shapes the MySQL driver
// hands out for the equivalent column types.
func normalize(v any) any {
	switch v := v.(type) {
	case [16]byte:
		return formatUUID(v)
	case pgtype.Numeric:
		return numeric(v)
	case pgtype.Time:
		if !v.Valid {
			return nil
		}
		return clock(v.Microseconds)
	case pgtype.Interval:
		if !v.Valid {
			return nil
		}
		text, err := v.Value()
		if err != nil {
			return fmt.Sprintf("%dmon %dd %dus", v.Months, v.Days, v.Microseconds)
		}
		return text
	default:
		return v
	}
}

func formatUUID(v [16]byte) string {
	// Use %02x to keep leading zeros in every byte
	return fmt.Sprintf("%02x%02x%02x%02x-%02x%02x-%02x%02x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		v[0], v[1], v[2], v[3], v[4], v[5], v[6], v[7],
		v[8], v[9], v[10], v[11], v[12], v[13], v[14], v[15])
}

func numeric(n pgtype.Numeric) any {
	switch {
	case !n.Valid:
		return nil
	case n.NaN:
		return "NaN"
	case n.InfinityModifier == pgtype.Infinity:
		return "Infinity"
	case n.InfinityModifier == pgtype.NegativeInfinity:
		return "-Infinity"
	case n.Int == nil:
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

// clock renders microseconds since midnight as HH:MM:SS, keeping fractional
// seconds only when present.
func clock(us int64) string {
	d := time.Duration(us) * time.Microsecond
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	if d == 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d:%02d.%06d", h, m, s, d/time.Microsecond)
}
