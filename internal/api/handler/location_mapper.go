package handler

import (
	"math"

	"github.com/fieldforce/location-tracker/internal/core/domain"
	"github.com/fieldforce/location-tracker/internal/core/ports"
)

// toLocationResponse maps a stored sample to its transport representation.
func toLocationResponse(s *domain.LocationSample) locationResponse {
	return locationResponse{
		ID:            s.ID,
		UserID:        s.UserID,
		Coordinates:   s.Point,
		Accuracy:      s.Accuracy,
		Altitude:      s.Altitude,
		Speed:         s.Speed,
		BatteryLevel:  s.BatteryLevel,
		ActivityType:  string(s.ActivityType),
		Address:       s.Address,
		Metadata:      s.Metadata,
		Timestamp:     s.Timestamp,
		ReceivedAt:    s.ReceivedAt,
		StoredOffline: s.StoredOffline,
	}
}

func toLocationResponses(items []*domain.LocationSample) []locationResponse {
	out := make([]locationResponse, 0, len(items))
	for _, s := range items {
		out = append(out, toLocationResponse(s))
	}
	return out
}

func toUserPositionResponse(p ports.IdentityPosition) userPositionResponse {
	resp := userPositionResponse{
		ID:     p.Identity.ID,
		Name:   p.Identity.Name,
		Email:  p.Identity.Email,
		Role:   p.Identity.Role,
		Status: p.Identity.Status,
	}
	if p.Latest != nil {
		resp.LatestPosition = &latestPositionResponse{
			Coordinates: p.Latest.Point,
			Timestamp:   p.Latest.Timestamp,
		}
	}
	return resp
}

func toNearbyUserResponse(r domain.ProximityResult) nearbyUserResponse {
	return nearbyUserResponse{
		User:        r.Identity,
		Coordinates: r.Point,
		Timestamp:   r.Timestamp,
		Distance:    math.Round(r.Distance*100) / 100,
	}
}

func toRecordInput(caller ports.Caller, req recordLocationRequest) ports.RecordLocationInput {
	in := ports.RecordLocationInput{
		Caller:        caller,
		UserID:        req.UserID,
		Coordinates:   req.Coordinates,
		Accuracy:      req.Accuracy,
		Altitude:      req.Altitude,
		Speed:         req.Speed,
		BatteryLevel:  req.BatteryLevel,
		ActivityType:  req.ActivityType,
		StoredOffline: req.StoredOffline || req.StoredAt != nil,
	}
	if req.Timestamp != nil {
		in.CapturedAt = *req.Timestamp
	}
	if req.Address != nil {
		in.Address = &domain.Address{
			Formatted:  req.Address.Formatted,
			Street:     req.Address.Street,
			City:       req.Address.City,
			PostalCode: req.Address.PostalCode,
			Country:    req.Address.Country,
		}
	}
	if req.Metadata != nil {
		in.Metadata = &domain.DeviceMetadata{
			DeviceModel: req.Metadata.DeviceModel,
			AppVersion:  req.Metadata.AppVersion,
			NetworkType: req.Metadata.NetworkType,
		}
	}
	return in
}
