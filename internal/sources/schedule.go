package sources

import (
	"time"

	"github.com/Surajan01/daily-news-analysis/internal/logger"
)

// IsDue reports whether the source should be polled on a run happening at
// now. Daily sources are always due; weekly sources only on Monday. An
// unknown frequency fails open so a typo in the catalog costs an extra check
// instead of silently skipping a publication.
func IsDue(src Source, now time.Time) bool {
	switch src.Frequency {
	case FrequencyDaily:
		return true
	case FrequencyWeekly:
		return now.Weekday() == time.Monday
	default:
		logger.Warn("unknown polling frequency, treating source as due",
			"source", src.Name, "frequency", src.Frequency)
		return true
	}
}
