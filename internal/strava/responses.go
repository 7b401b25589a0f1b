package strava

// Activity is one exercise session as returned by the strava API,
// optionally enriched with the description and raw streams.
type Activity struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	Distance         float64 `json:"distance"`
	ElapsedTime      int64   `json:"elapsed_time"`
	StartDateLocal   string  `json:"start_date_local"`
	Type             string  `json:"type"`
	AverageHeartrate float64 `json:"average_heartrate"`
	MaxHeartrate     float64 `json:"max_heartrate"`

	// set by detail / streams enrichment, empty otherwise
	Description    string    `json:"description"`
	TimeStream     []float64 `json:"-"`
	Heartrate      []float64 `json:"-"`
	DistanceStream []float64 `json:"-"`
	Velocity       []float64 `json:"-"`
}

type activityDetailResponse struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
}

type stream struct {
	Data []float64 `json:"data"`
}

// streams endpoint response when queried with key_by_type=true
type streamsResponse struct {
	Time           stream `json:"time"`
	Heartrate      stream `json:"heartrate"`
	Distance       stream `json:"distance"`
	VelocitySmooth stream `json:"velocity_smooth"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}
