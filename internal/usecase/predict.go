package usecase

import (
	"errors"
	"fmt"
	"math"
	"time"

	"go.ngs.io/tidepredictor/internal/domain"
)

// Request limits.
const (
	MinInterval = time.Minute
	MaxInterval = 6 * time.Hour
	MaxRange    = 366 * 24 * time.Hour
	MaxPoints   = 20000
)

// PredictionRequest encapsulates a prediction request.
type PredictionRequest struct {
	Lat *float64
	Lon *float64

	// Time range, both ends included.
	Start time.Time
	End   time.Time

	// Interval between predictions (e.g., 30 minutes).
	Interval time.Duration

	// Profile requests only.
	Levels []float64
	Alpha  *float64
}

// PredictionResponse is shared by level and current predictions; the fields
// for the other kind are omitted.
type PredictionResponse struct {
	Source       string            `json:"source"`
	Timezone     string            `json:"timezone"`
	Constituents []string          `json:"constituents"`
	Levels       []LevelPoint      `json:"levels,omitempty"`
	Extrema      *ExtremaResponse  `json:"extrema,omitempty"`
	Currents     []CurrentPoint    `json:"currents,omitempty"`
	Profile      []ProfileRow      `json:"profile,omitempty"`
	Meta         map[string]string `json:"meta"`
}

// LevelPoint is a single water level.
type LevelPoint struct {
	Time    string  `json:"time"`
	HeightM float64 `json:"level"`
}

// CurrentPoint is a single depth-averaged current.
type CurrentPoint struct {
	Time  string  `json:"time"`
	U     float64 `json:"u"`
	V     float64 `json:"v"`
	Speed float64 `json:"speed"`
}

// ProfileRow is a current at one depth.
type ProfileRow struct {
	Time            string  `json:"time"`
	Depth           float64 `json:"depth"`
	UAvg            float64 `json:"u_avg"`
	U               float64 `json:"u"`
	VAvg            float64 `json:"v_avg"`
	V               float64 `json:"v"`
	TotalWaterDepth float64 `json:"total_water_depth"`
}

// ExtremaResponse contains high and low waters.
type ExtremaResponse struct {
	Highs []LevelPoint `json:"highs"`
	Lows  []LevelPoint `json:"lows"`
}

// PredictionUseCase serves prediction requests with rounded output.
type PredictionUseCase struct {
	levels   *LevelPredictor
	currents *CurrentPredictor
	source   string
	decimals int
}

// NewPredictionUseCase creates a use case. source names the repository in
// responses.
func NewPredictionUseCase(levels *LevelPredictor, currents *CurrentPredictor, source string) *PredictionUseCase {
	return &PredictionUseCase{levels: levels, currents: currents, source: source, decimals: 3}
}

// Validate checks the request. Errors wrap domain.ErrValidation.
func (r *PredictionRequest) Validate() error {
	if err := r.validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	return nil
}

// points is the number of times on the request grid.
func (r *PredictionRequest) points() int {
	return int(r.End.Sub(r.Start)/r.Interval) + 1
}

func (r *PredictionRequest) validate() error {
	if r.Lat == nil || r.Lon == nil {
		return errors.New("lat and lon must be provided")
	}
	if *r.Lat < -90 || *r.Lat > 90 {
		return errors.New("latitude must be between -90 and 90")
	}
	if *r.Lon < -180 || *r.Lon > 180 {
		return errors.New("longitude must be between -180 and 180")
	}

	if r.End.Before(r.Start) {
		return errors.New("end time must not be before start time")
	}
	if r.Interval < MinInterval {
		return errors.New("interval must be at least 1 minute")
	}
	if r.Interval > MaxInterval {
		return errors.New("interval must be at most 6 hours")
	}

	duration := r.End.Sub(r.Start)
	if duration > MaxRange {
		return errors.New("time range must be at most 366 days")
	}
	// Profile requests produce one row per time and depth.
	n := r.points()
	if len(r.Levels) > 0 {
		n *= len(r.Levels)
	}
	if n > MaxPoints {
		return fmt.Errorf("too many prediction points (%d) - reduce time range or increase interval", n)
	}

	if r.Alpha != nil && !(*r.Alpha > 0) {
		return errors.New("alpha must be positive")
	}
	for _, z := range r.Levels {
		if z > 0 {
			return fmt.Errorf("level %v is above the surface; depths are negative", z)
		}
	}
	return nil
}

// PredictLevels runs a level prediction with refined high and low waters.
func (uc *PredictionUseCase) PredictLevels(req PredictionRequest) (*PredictionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if uc.levels == nil {
		return nil, errors.New("level predictions are not configured")
	}

	basis, err := uc.levels.Basis(*req.Lon, *req.Lat)
	if err != nil {
		return nil, fmt.Errorf("failed to load constituents for location (%.4f, %.4f): %w", *req.Lat, *req.Lon, err)
	}
	times, err := domain.TimeGrid(req.Start, req.End, req.Interval)
	if err != nil {
		return nil, err
	}
	series, err := domain.Reconstruct(basis, times)
	if err != nil {
		return nil, err
	}
	levels := series.Levels()

	extrema := domain.RefineExtrema(levels, domain.FindExtrema(levels))

	resp := uc.response(basis.Names(), "level")
	resp.Levels = uc.levelPoints(levels)
	resp.Extrema = &ExtremaResponse{
		Highs: uc.levelPoints(extrema.Highs),
		Lows:  uc.levelPoints(extrema.Lows),
	}
	return resp, nil
}

// PredictCurrents runs a depth-averaged current prediction.
func (uc *PredictionUseCase) PredictCurrents(req PredictionRequest) (*PredictionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if uc.currents == nil {
		return nil, errors.New("current predictions are not configured")
	}

	basis, err := uc.currents.Basis(*req.Lon, *req.Lat)
	if err != nil {
		return nil, fmt.Errorf("failed to load current constituents for location (%.4f, %.4f): %w", *req.Lat, *req.Lon, err)
	}
	times, err := domain.TimeGrid(req.Start, req.End, req.Interval)
	if err != nil {
		return nil, err
	}
	currents, err := uc.currents.DepthAveraged(basis, times)
	if err != nil {
		return nil, err
	}

	resp := uc.response(basis.Names(), "current")
	resp.Currents = make([]CurrentPoint, len(currents))
	for i, c := range currents {
		resp.Currents[i] = CurrentPoint{
			Time:  formatTime(c.Time),
			U:     roundToDecimal(c.U, uc.decimals),
			V:     roundToDecimal(c.V, uc.decimals),
			Speed: roundToDecimal(c.Speed(), uc.decimals),
		}
	}
	return resp, nil
}

// PredictProfile runs a vertical current profile prediction.
func (uc *PredictionUseCase) PredictProfile(req PredictionRequest) (*PredictionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if uc.currents == nil {
		return nil, errors.New("current predictions are not configured")
	}
	if len(req.Levels) == 0 {
		if n := req.points() * domain.DefaultProfileDepths; n > MaxPoints {
			return nil, fmt.Errorf("%w: too many prediction points (%d) - reduce time range or increase interval", domain.ErrValidation, n)
		}
	}

	predictor := uc.currents
	if req.Alpha != nil {
		profile, err := domain.NewShearProfile(*req.Alpha)
		if err != nil {
			return nil, err
		}
		predictor = predictor.WithProfile(profile)
	}

	basis, err := predictor.Basis(*req.Lon, *req.Lat)
	if err != nil {
		return nil, fmt.Errorf("failed to load current constituents for location (%.4f, %.4f): %w", *req.Lat, *req.Lon, err)
	}
	times, err := domain.TimeGrid(req.Start, req.End, req.Interval)
	if err != nil {
		return nil, err
	}
	rows, err := predictor.ProfileFromBasis(basis, *req.Lon, *req.Lat, times, req.Levels)
	if err != nil {
		return nil, err
	}

	resp := uc.response(basis.Names(), "profile")
	resp.Meta["alpha"] = fmt.Sprintf("%g", predictor.Profile().Alpha)
	resp.Profile = make([]ProfileRow, len(rows))
	for i, r := range rows {
		resp.Profile[i] = ProfileRow{
			Time:            formatTime(r.Time),
			Depth:           roundToDecimal(r.Depth, uc.decimals),
			UAvg:            roundToDecimal(r.UAvg, uc.decimals),
			U:               roundToDecimal(r.U, uc.decimals),
			VAvg:            roundToDecimal(r.VAvg, uc.decimals),
			V:               roundToDecimal(r.V, uc.decimals),
			TotalWaterDepth: roundToDecimal(r.TotalWaterDepth, uc.decimals),
		}
	}
	return resp, nil
}

// GetAllConstituents returns the constituent catalog.
func (uc *PredictionUseCase) GetAllConstituents() []domain.Constituent {
	return domain.GetAllConstituents()
}

func (uc *PredictionUseCase) response(names []string, kind string) *PredictionResponse {
	return &PredictionResponse{
		Source:       uc.source,
		Timezone:     "+00:00",
		Constituents: names,
		Meta: map[string]string{
			"model": "harmonic",
			"kind":  kind,
		},
	}
}

func (uc *PredictionUseCase) levelPoints(levels []domain.TideLevel) []LevelPoint {
	out := make([]LevelPoint, len(levels))
	for i, l := range levels {
		out[i] = LevelPoint{Time: formatTime(l.Time), HeightM: roundToDecimal(l.HeightM, uc.decimals)}
	}
	return out
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// roundToDecimal rounds half away from zero.
func roundToDecimal(val float64, precision int) float64 {
	m := math.Pow(10, float64(precision))
	return math.Round(val*m) / m
}
