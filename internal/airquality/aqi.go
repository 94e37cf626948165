package airquality

import (
	"fmt"
	"math"
)

// Breakpoint maps a concentration interval linearly onto an AQI sub-range.
type Breakpoint struct {
	CLow     float64
	CHigh    float64
	AQILow   float64
	AQIHigh  float64
	Category Category
}

// Breakpoint tables, ordered by increasing concentration.
// Parameters from https://forum.airnowtech.org/t/the-aqi-equation/169
var (
	PM25Breakpoints = []Breakpoint{
		{CLow: 0, CHigh: 54, AQILow: 0, AQIHigh: 50, Category: CategoryGood},
		{CLow: 55, CHigh: 154, AQILow: 51, AQIHigh: 100, Category: CategoryModerate},
		{CLow: 155, CHigh: 254, AQILow: 101, AQIHigh: 150, Category: CategoryUnhealthySensitive},
		{CLow: 255, CHigh: 354, AQILow: 151, AQIHigh: 200, Category: CategoryUnhealthy},
		{CLow: 355, CHigh: 424, AQILow: 201, AQIHigh: 300, Category: CategoryVeryUnhealthy},
		{CLow: 425, CHigh: 604, AQILow: 301, AQIHigh: 500, Category: CategoryHazardous},
	}

	PM10Breakpoints = []Breakpoint{
		{CLow: 0, CHigh: 12, AQILow: 0, AQIHigh: 50, Category: CategoryGood},
		{CLow: 12.1, CHigh: 35.4, AQILow: 51, AQIHigh: 100, Category: CategoryModerate},
		{CLow: 35.5, CHigh: 55.4, AQILow: 101, AQIHigh: 150, Category: CategoryUnhealthySensitive},
		{CLow: 55.5, CHigh: 150.4, AQILow: 151, AQIHigh: 200, Category: CategoryUnhealthy},
		{CLow: 150.5, CHigh: 250.4, AQILow: 201, AQIHigh: 300, Category: CategoryVeryUnhealthy},
		{CLow: 250.5, CHigh: 500.4, AQILow: 301, AQIHigh: 500, Category: CategoryHazardous},
	}
)

// BreakpointsFor returns the breakpoint table for a pollutant, or nil if the
// pollutant does not contribute to the AQI.
func BreakpointsFor(p Pollutant) []Breakpoint {
	switch p {
	case PollutantPM25:
		return PM25Breakpoints
	case PollutantPM10:
		return PM10Breakpoints
	default:
		return nil
	}
}

// SubIndex returns the un-rounded AQI for a single concentration.
// The first interval whose upper bound is >= c is used, so values falling in
// the gap between two intervals are interpolated against the higher one.
func SubIndex(table []Breakpoint, c float64) (float64, Category, error) {
	if math.IsNaN(c) || c < 0 {
		return 0, "", fmt.Errorf("%w: %v", ErrOutOfRange, c)
	}

	for _, bp := range table {
		if c <= bp.CHigh {
			aqi := bp.AQILow + (c-bp.CLow)/(bp.CHigh-bp.CLow)*(bp.AQIHigh-bp.AQILow)
			return aqi, bp.Category, nil
		}
	}

	return 0, "", fmt.Errorf("%w: %v exceeds top breakpoint", ErrOutOfRange, c)
}

// Calculate returns the overall AQI for a sample: the worst of the PM2.5 and
// PM10 sub-indices. Sub-indices are compared before rounding and only the
// winner is rounded.
func Calculate(s Sample) (Result, error) {
	pm25, ok := s.Get(PollutantPM25)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrMissingField, PollutantPM25)
	}
	pm10, ok := s.Get(PollutantPM10)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrMissingField, PollutantPM10)
	}

	aqi25, cat25, err := SubIndex(PM25Breakpoints, pm25)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", PollutantPM25, err)
	}
	aqi10, cat10, err := SubIndex(PM10Breakpoints, pm10)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", PollutantPM10, err)
	}

	// Ties go to the lexicographically larger category.
	if aqi10 > aqi25 || (aqi10 == aqi25 && cat10 > cat25) {
		return Result{Index: roundIndex(aqi10), Category: cat10, Pollutant: PollutantPM10}, nil
	}
	return Result{Index: roundIndex(aqi25), Category: cat25, Pollutant: PollutantPM25}, nil
}

func roundIndex(aqi float64) int {
	return int(math.RoundToEven(aqi))
}
