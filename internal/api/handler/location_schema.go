package handler

import (
	"time"

	"github.com/fieldforce/location-tracker/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// --- Request types ---

type addressRequest struct {
	Formatted  string `json:"formatted"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type metadataRequest struct {
	DeviceModel string `json:"deviceModel"`
	AppVersion  string `json:"appVersion"`
	NetworkType string `json:"networkType"`
}

type recordLocationRequest struct {
	// Coordinates is [longitude, latitude].
	Coordinates  []float64        `json:"coordinates"   validate:"required,lonlat"`
	UserID       string           `json:"userId"`
	Accuracy     *float64         `json:"accuracy"      validate:"omitempty,gte=0"`
	Altitude     *float64         `json:"altitude"`
	Speed        *float64         `json:"speed"         validate:"omitempty,gte=0"`
	BatteryLevel *int             `json:"batteryLevel"  validate:"omitempty,min=0,max=100"`
	ActivityType string           `json:"activityType"  validate:"omitempty,oneof=stationary walking driving unknown"`
	Address      *addressRequest  `json:"address"`
	Metadata     *metadataRequest `json:"metadata"`
	// Timestamp is the device capture time.
	Timestamp     *time.Time `json:"timestamp"`
	StoredOffline bool       `json:"storedOffline"`
	StoredAt      *time.Time `json:"storedAt"`
}

type historyQuery struct {
	UserID    string `query:"userId"`
	StartDate string `query:"startDate"`
	EndDate   string `query:"endDate"`
	Limit     int    `query:"limit" validate:"gte=0"`
	Page      int    `query:"page"  validate:"gte=0,lte=1000000"`
}

// --- Response types ---

type locationResponse struct {
	ID            string                 `json:"id"`
	UserID        string                 `json:"userId"`
	Coordinates   domain.Point           `json:"coordinates"`
	Accuracy      *float64               `json:"accuracy,omitempty"`
	Altitude      *float64               `json:"altitude,omitempty"`
	Speed         *float64               `json:"speed,omitempty"`
	BatteryLevel  *int                   `json:"batteryLevel,omitempty"`
	ActivityType  string                 `json:"activityType"`
	Address       *domain.Address        `json:"address,omitempty"`
	Metadata      *domain.DeviceMetadata `json:"metadata,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
	ReceivedAt    time.Time              `json:"receivedAt"`
	StoredOffline bool                   `json:"storedOffline"`
}

type recordLocationResponse struct {
	Success   bool             `json:"success"`
	Message   string           `json:"message"`
	Duplicate bool             `json:"duplicate,omitempty"`
	Location  locationResponse `json:"location"`
}

type lastLocationResponse struct {
	Success  bool             `json:"success"`
	Location locationResponse `json:"location"`
}

type paginationResponse struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

type historyResponse struct {
	Success    bool               `json:"success"`
	Pagination paginationResponse `json:"pagination"`
	Locations  []locationResponse `json:"locations"`
}

type latestPositionResponse struct {
	Coordinates domain.Point `json:"coordinates"`
	Timestamp   time.Time    `json:"timestamp"`
}

type userPositionResponse struct {
	ID             string                  `json:"id"`
	Name           string                  `json:"name"`
	Email          string                  `json:"email"`
	Role           string                  `json:"role"`
	Status         string                  `json:"status"`
	LatestPosition *latestPositionResponse `json:"latestPosition"`
}

type allLatestResponse struct {
	Success bool                   `json:"success"`
	Count   int                    `json:"count"`
	Users   []userPositionResponse `json:"users"`
}

type nearbyUserResponse struct {
	User        domain.IdentitySummary `json:"user"`
	Coordinates domain.Point           `json:"coordinates"`
	Timestamp   time.Time              `json:"timestamp"`
	// Distance is in meters.
	Distance float64 `json:"distance"`
}

type nearbyResponse struct {
	Success bool                 `json:"success"`
	Count   int                  `json:"count"`
	Users   []nearbyUserResponse `json:"users"`
}
