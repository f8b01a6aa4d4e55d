package stats

import "time"

var quotes = []string{
	"Every hour is a win. Stack them.",
	"Comfort is temporary. Pride lasts longer.",
	"Strong choices, stronger days.",
	"You already did the hardest part: starting.",
	"Money saved is momentum earned.",
	"Craving passes. Wins accumulate.",
}

// Motivation returns the quote of the day. The quote changes once per UTC day.
func Motivation(now time.Time) string {
	day := now.Unix() / (24 * 60 * 60)
	i := int(day % int64(len(quotes)))
	if i < 0 {
		i += len(quotes)
	}
	return quotes[i]
}
