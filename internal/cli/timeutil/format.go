// Package timeutil renders timestamps for kohubctl output.
package timeutil

import (
	"fmt"
	"time"
)

// localFormat is the layout for absolute times in detail views.
const localFormat = "Mon Jan 2 15:04:05 2006"

// Local renders t in the local zone for detail views.
func Local(t time.Time) string {
	return t.Local().Format(localFormat)
}

// Ago renders how long ago t was, at the coarsest useful unit. Table
// columns read better as ages than as RFC3339 stamps.
func Ago(t time.Time) string {
	return ago(time.Since(t))
}

func ago(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 365*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours())/24)
	default:
		return fmt.Sprintf("%dy ago", int(d.Hours())/(24*365))
	}
}
