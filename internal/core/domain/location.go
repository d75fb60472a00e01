package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// ActivityType classifies what the representative was doing when sampled.
type ActivityType string

const (
	ActivityStationary ActivityType = "stationary"
	ActivityWalking    ActivityType = "walking"
	ActivityDriving    ActivityType = "driving"
	ActivityUnknown    ActivityType = "unknown"
)

// ParseActivityType maps free input onto a known activity, defaulting to unknown.
func ParseActivityType(s string) ActivityType {
	switch ActivityType(s) {
	case ActivityStationary, ActivityWalking, ActivityDriving:
		return ActivityType(s)
	default:
		return ActivityUnknown
	}
}

// Point is a WGS84 position. On the wire it is always the pair [lon, lat].
type Point struct {
	Lon float64
	Lat float64
}

// NewPoint builds a Point from a [lon, lat] pair.
func NewPoint(coords []float64) (Point, error) {
	if len(coords) != 2 {
		return Point{}, fmt.Errorf("%w: coordinates must be [longitude, latitude]", ErrValidation)
	}
	p := Point{Lon: coords[0], Lat: coords[1]}
	if err := p.Validate(); err != nil {
		return Point{}, err
	}
	return p, nil
}

// Validate checks both members are finite and inside WGS84 bounds.
func (p Point) Validate() error {
	if math.IsNaN(p.Lon) || math.IsInf(p.Lon, 0) || math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) {
		return fmt.Errorf("%w: coordinates must be finite numbers", ErrValidation)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: longitude out of range", ErrValidation)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude out of range", ErrValidation)
	}
	return nil
}

// Coordinates returns the [lon, lat] pair.
func (p Point) Coordinates() [2]float64 {
	return [2]float64{p.Lon, p.Lat}
}

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Coordinates())
}

func (p *Point) UnmarshalJSON(b []byte) error {
	var coords []float64
	if err := json.Unmarshal(b, &coords); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	np, err := NewPoint(coords)
	if err != nil {
		return err
	}
	*p = np
	return nil
}

// Address is the free-form postal address attached to a sample.
type Address struct {
	Formatted  string `json:"formatted,omitempty"`
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

// DeviceMetadata is diagnostic only and never read by ingestion or proximity logic.
type DeviceMetadata struct {
	DeviceModel string `json:"deviceModel,omitempty"`
	AppVersion  string `json:"appVersion,omitempty"`
	NetworkType string `json:"networkType,omitempty"`
}

// LocationSample is one immutable timestamped position reading.
type LocationSample struct {
	ID            string
	UserID        string
	Point         Point
	Accuracy      *float64
	Altitude      *float64
	Speed         *float64
	BatteryLevel  *int
	ActivityType  ActivityType
	Address       *Address
	Metadata      *DeviceMetadata
	Timestamp     time.Time
	ReceivedAt    time.Time
	StoredOffline bool
}

// LatestPosition is the per-identity projection of the newest ingested sample.
type LatestPosition struct {
	UserID    string
	SampleID  string
	Point     Point
	Timestamp time.Time
}

// Projection derives the LatestPosition candidate for this sample.
func (s *LocationSample) Projection() *LatestPosition {
	return &LatestPosition{
		UserID:    s.UserID,
		SampleID:  s.ID,
		Point:     s.Point,
		Timestamp: s.Timestamp,
	}
}

// ProximityResult is computed per query and never persisted.
type ProximityResult struct {
	Identity  IdentitySummary
	SampleID  string
	Point     Point
	Timestamp time.Time
	// Distance is the great-circle distance to the query origin, in meters.
	Distance float64
}
