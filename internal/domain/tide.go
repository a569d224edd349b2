package domain

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// TideLevel represents a single tide height prediction at a specific time.
type TideLevel struct {
	Time    time.Time
	HeightM float64
}

// CurrentVector is a depth-averaged current at a specific time.
type CurrentVector struct {
	Time time.Time
	U    float64 // Eastward component in m/s.
	V    float64 // Northward component in m/s.
}

// Speed returns the current magnitude.
func (c CurrentVector) Speed() float64 {
	return math.Hypot(c.U, c.V)
}

// ProfilePoint is a current at one depth of the vertical profile.
type ProfilePoint struct {
	Time            time.Time
	Depth           float64 // Meters, negative below the surface.
	U               float64
	V               float64
	UAvg            float64
	VAvg            float64
	TotalWaterDepth float64
}

// Speed returns the current magnitude at the profile depth.
func (p ProfilePoint) Speed() float64 {
	return math.Hypot(p.U, p.V)
}

// Extrema represents high and low tide events.
type Extrema struct {
	Highs []TideLevel
	Lows  []TideLevel
}

// TimeGrid returns every interval from start to end, both ends included when
// end−start is a multiple of interval.
func TimeGrid(start, end time.Time, interval time.Duration) ([]time.Time, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive, got %s", ErrValidation, interval)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %s is before start %s", ErrValidation,
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	times := make([]time.Time, 0, int(end.Sub(start)/interval)+1)
	for t := start; !t.After(end); t = t.Add(interval) {
		times = append(times, t)
	}
	return times, nil
}

// FindExtrema identifies high and low waters from a level series by the
// sign change of the first difference. A flat top counts once, at its first
// sample.
func FindExtrema(predictions []TideLevel) Extrema {
	ext := Extrema{Highs: []TideLevel{}, Lows: []TideLevel{}}
	if len(predictions) < 3 {
		return ext
	}

	for i := 1; i < len(predictions)-1; i++ {
		prev := predictions[i-1].HeightM
		curr := predictions[i].HeightM

		// Skip forward over a plateau to the first differing sample.
		j := i + 1
		for j < len(predictions)-1 && predictions[j].HeightM == curr {
			j++
		}
		next := predictions[j].HeightM

		switch {
		case curr > prev && curr > next:
			ext.Highs = append(ext.Highs, predictions[i])
		case curr < prev && curr < next:
			ext.Lows = append(ext.Lows, predictions[i])
		}
	}

	return ext
}

// RefineExtremum fits a parabola through three equally spaced samples and
// returns the time and height of its vertex. Irregular spacing, a degenerate
// parabola or a vertex outside the sample interval return the middle sample.
func RefineExtremum(before, peak, after TideLevel) (time.Time, float64) {
	dt1 := peak.Time.Sub(before.Time).Hours()
	dt2 := after.Time.Sub(peak.Time).Hours()
	if math.Abs(dt1-dt2) > 1e-6 {
		return peak.Time, peak.HeightM
	}

	h0, h1, h2 := before.HeightM, peak.HeightM, after.HeightM
	a := (h2 - 2*h1 + h0) / (2 * dt1 * dt1)
	b := (h2 - h0) / (2 * dt1)
	if math.Abs(a) < 1e-10 {
		return peak.Time, peak.HeightM
	}

	dtVertex := -b / (2 * a)
	if math.Abs(dtVertex) > dt1 {
		return peak.Time, peak.HeightM
	}

	return peak.Time.Add(time.Duration(dtVertex * float64(time.Hour))), h1 + b*dtVertex + a*dtVertex*dtVertex
}

// RefineExtrema applies parabolic interpolation to all extrema.
func RefineExtrema(predictions []TideLevel, extrema Extrema) Extrema {
	if len(predictions) < 3 {
		return extrema
	}

	index := make(map[time.Time]int, len(predictions))
	for i, p := range predictions {
		index[p.Time] = i
	}

	return Extrema{
		Highs: refineAll(predictions, index, extrema.Highs),
		Lows:  refineAll(predictions, index, extrema.Lows),
	}
}

func refineAll(predictions []TideLevel, index map[time.Time]int, events []TideLevel) []TideLevel {
	refined := make([]TideLevel, 0, len(events))
	for _, ev := range events {
		i, ok := index[ev.Time]
		if !ok || i < 1 || i >= len(predictions)-1 {
			refined = append(refined, ev)
			continue
		}
		t, h := RefineExtremum(predictions[i-1], predictions[i], predictions[i+1])
		refined = append(refined, TideLevel{Time: t, HeightM: h})
	}

	sort.Slice(refined, func(i, j int) bool {
		return refined[i].Time.Before(refined[j].Time)
	})
	return refined
}
