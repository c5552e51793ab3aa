package domain

import (
	"fmt"
	"strings"
)

// RecommendedDuration is how long a reviewer suggests spending at a park.
type RecommendedDuration uint8

// Declaration order is also the tie-break order when several durations
// share the highest count in a park's summary.
const (
	DurationFewHours RecommendedDuration = iota + 1
	DurationHalfDay
	DurationFullDay
	DurationOvernight
	DurationMultiDay
)

var durationNames = [...]string{
	DurationFewHours:  "FEW_HOURS",
	DurationHalfDay:   "HALF_DAY",
	DurationFullDay:   "FULL_DAY",
	DurationOvernight: "OVERNIGHT",
	DurationMultiDay:  "MULTI_DAY",
}

// Durations returns every valid duration in declaration order.
func Durations() []RecommendedDuration {
	return []RecommendedDuration{DurationFewHours, DurationHalfDay, DurationFullDay, DurationOvernight, DurationMultiDay}
}

// DurationNames returns the wire names of every duration.
func DurationNames() []string {
	out := make([]string, 0, len(durationNames)-1)
	for _, d := range Durations() {
		out = append(out, durationNames[d])
	}
	return out
}

func (d RecommendedDuration) IsValid() bool {
	return d >= DurationFewHours && d <= DurationMultiDay
}

func (d RecommendedDuration) String() string {
	if !d.IsValid() {
		return fmt.Sprintf("RecommendedDuration(%d)", uint8(d))
	}
	return durationNames[d]
}

// ParseRecommendedDuration parses a wire name such as "HALF_DAY".
func ParseRecommendedDuration(v string) (RecommendedDuration, error) {
	for _, d := range Durations() {
		if strings.EqualFold(v, durationNames[d]) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown recommended duration %q", v)
}

func (d RecommendedDuration) MarshalText() ([]byte, error) {
	if !d.IsValid() {
		return nil, fmt.Errorf("marshal invalid recommended duration %d", uint8(d))
	}
	return []byte(durationNames[d]), nil
}

func (d *RecommendedDuration) UnmarshalText(b []byte) error {
	parsed, err := ParseRecommendedDuration(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
