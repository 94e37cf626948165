// Package airquality computes the US Air Quality Index from particulate
// readings and renders it for the indoor display panel.
package airquality

import (
	"errors"
	"time"
)

// Calculation and provider errors.
var (
	// ErrMissingField is returned when a sample lacks a pollutant the AQI needs.
	ErrMissingField = errors.New("missing pollutant field")

	// ErrOutOfRange is returned when a concentration falls outside the breakpoint table.
	ErrOutOfRange = errors.New("concentration out of range")

	// ErrNoData is returned by providers when the device has not uploaded a reading yet.
	ErrNoData = errors.New("no data uploaded yet")

	// ErrProviderUnavailable wraps transport failures talking to the device API.
	ErrProviderUnavailable = errors.New("air quality provider unavailable")
)

// Pollutant represents an air quality pollutant type.
type Pollutant string

const (
	PollutantPM25 Pollutant = "pm25"
	PollutantPM10 Pollutant = "pm10"
)

// Category is the qualitative health label attached to an AQI range.
type Category string

const (
	CategoryGood               Category = "Good"
	CategoryModerate           Category = "Moderate"
	CategoryUnhealthySensitive Category = "Unhealthy (sens)"
	CategoryUnhealthy          Category = "Unhealthy"
	CategoryVeryUnhealthy      Category = "Very Unhealthy"
	CategoryHazardous          Category = "Hazardous"
)

// Sample maps pollutant to concentration in µg/m³.
// Pollutants the device did not report are absent from the map.
type Sample map[Pollutant]float64

// NewSample creates a sample carrying both particulate concentrations.
func NewSample(pm25, pm10 float64) Sample {
	return Sample{
		PollutantPM25: pm25,
		PollutantPM10: pm10,
	}
}

// Get returns the concentration for a pollutant and whether it was reported.
func (s Sample) Get(p Pollutant) (float64, bool) {
	v, ok := s[p]
	return v, ok
}

// Result is the reported AQI together with its health category.
type Result struct {
	// Index is the AQI rounded to the nearest integer.
	Index int

	// Category is the health label of the dominant pollutant's interval.
	Category Category

	// Pollutant is the pollutant that produced the reported index.
	Pollutant Pollutant
}

// Reading is the latest upload from a monitoring device.
type Reading struct {
	DeviceID string

	// MeasuredAt is the device timestamp of the reading.
	MeasuredAt time.Time

	// Sample holds every numeric value the device reported, keyed by its API name.
	Sample Sample
}

// Age returns how long ago the reading was taken relative to now.
func (r *Reading) Age(now time.Time) time.Duration {
	if r.MeasuredAt.IsZero() {
		return 0
	}
	return now.Sub(r.MeasuredAt)
}
