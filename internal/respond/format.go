package respond

import (
	"fmt"
	"time"
)

// iecUnits are the IEC binary size suffixes §4.7 requires ("1.23
// MiB").
var iecUnits = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}

// FormatSize renders n in IEC binary units, e.g. "1.23 MiB".
func FormatSize(n uint64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	f := float64(n)
	unit := 0
	for f >= 1024 && unit < len(iecUnits)-1 {
		f /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f %s", f, iecUnits[unit])
}

// FormatRFC3339 renders t in UTC with a trailing "Z", used for
// creationdate and the HTML view's timestamps.
func FormatRFC3339(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// FormatRFC1123 renders t per RFC 1123 ("%a, %d %b %Y %H:%M:%S GMT"),
// the wire format PROPFIND's getlastmodified property requires.
func FormatRFC1123(t time.Time) string {
	return t.UTC().Format("Mon, 02 Jan 2006 15:04:05 GMT")
}
