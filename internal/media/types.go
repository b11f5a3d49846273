package media

// HeadlineID uniquely identifies a headline.
type HeadlineID int64

// HeadlineKind distinguishes hype transitions.
type HeadlineKind int

const (
	HeadlineIgnited HeadlineKind = iota
	HeadlineFaded
)

func (k HeadlineKind) String() string {
	switch k {
	case HeadlineIgnited:
		return "IGNITED"
	case HeadlineFaded:
		return "FADED"
	default:
		return "UNKNOWN"
	}
}

// Headline is published whenever hype ignites or fades.
type Headline struct {
	ID    HeadlineID   `json:"id"`
	Time  int64        `json:"time"`
	Cycle int64        `json:"cycle"`
	Kind  HeadlineKind `json:"kind"`
	Text  string       `json:"text"`
	// Rise is the window endpoint-to-endpoint fractional price increase.
	Rise float64 `json:"rise"`
}

// HypeStatus is the detector state at one instant.
type HypeStatus struct {
	Active bool `json:"active"`
	// Countdown is the number of cycles left before active hype fades.
	Countdown int   `json:"countdown"`
	Duration  int   `json:"duration"`
	Cycles    int64 `json:"cycles"`
	Ignitions int64 `json:"ignitions"`
	Headlines int   `json:"headlines"`
}
