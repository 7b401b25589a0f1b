package activities

import "time"

// Activity is a single exercise activity record, unique by ID. The stream
// slices are the raw per-second series from the tracking service and are
// empty unless the record was enriched with detail after the initial fetch.
type Activity struct {
	ID               int64   `json:"id" parquet:"id"`
	Name             string  `json:"name" parquet:"name,optional"`
	Distance         float64 `json:"distance" parquet:"distance,optional"`
	ElapsedTime      int64   `json:"elapsed_time" parquet:"elapsed_time,optional"`
	StartDateLocal   string  `json:"start_date_local" parquet:"start_date_local,optional"`
	Type             string  `json:"type" parquet:"type,optional"`
	AverageHeartrate float64 `json:"average_heartrate,omitempty" parquet:"average_heartrate,optional"`
	MaxHeartrate     float64 `json:"max_heartrate,omitempty" parquet:"max_heartrate,optional"`
	Description      string  `json:"description,omitempty" parquet:"description,optional"`

	TimeStream     []float64 `json:"time_stream,omitempty" parquet:"time_stream,list"`
	Heartrate      []float64 `json:"heartrate,omitempty" parquet:"heartrate,list"`
	DistanceStream []float64 `json:"distance_stream,omitempty" parquet:"distance_stream,list"`
	Velocity       []float64 `json:"velocity,omitempty" parquet:"velocity,list"`
}

// Pace returns the pace in minutes per kilometer. The second return value is
// false when the distance is zero or negative and pace is undefined.
func (a Activity) Pace() (float64, bool) {
	if a.Distance <= 0 {
		return 0, false
	}
	return (float64(a.ElapsedTime) / 60) / (a.Distance / 1000), true
}

// StartDate parses the local start timestamp. Returns the zero time when the
// timestamp is missing or malformed.
func (a Activity) StartDate() time.Time {
	if a.StartDateLocal == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, a.StartDateLocal)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Dataset is the unordered union of every activity ever fetched, unique by
// activity ID.
type Dataset struct {
	Activities []Activity
}

func (d Dataset) Len() int {
	return len(d.Activities)
}

// IDSet returns the set of activity IDs present in the dataset.
func (d Dataset) IDSet() map[int64]struct{} {
	ids := make(map[int64]struct{}, len(d.Activities))
	for _, act := range d.Activities {
		ids[act.ID] = struct{}{}
	}
	return ids
}

// Stats is a small summary of the dataset used by the presentation layer.
type Stats struct {
	TotalActivities int       `json:"total_activities"`
	TotalDistance   float64   `json:"total_distance"`
	TotalElapsed    int64     `json:"total_elapsed"`
	LastActivity    time.Time `json:"last_activity"`
}

// Stats computes the dataset summary in one pass.
func (d Dataset) Stats() Stats {
	stats := Stats{TotalActivities: len(d.Activities)}
	for _, act := range d.Activities {
		stats.TotalDistance += act.Distance
		stats.TotalElapsed += act.ElapsedTime
		if start := act.StartDate(); start.After(stats.LastActivity) {
			stats.LastActivity = start
		}
	}
	return stats
}
