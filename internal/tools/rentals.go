package tools

import (
	"context"
	"encoding/json"
)

// ApartmentRental is the record returned for parse_apartment_rental
type ApartmentRental struct {
	Destination   string   `json:"destination"`
	Duration      int      `json:"duration"`
	StartDate     string   `json:"start_date"`
	PricePerMonth int      `json:"price_per_month"`
	Bedrooms      int      `json:"bedrooms"`
	Bathrooms     int      `json:"bathrooms"`
	Amenities     []string `json:"amenities"`
	PetFriendly   bool     `json:"pet_friendly"`
}

// StorageUnit is the record returned for parse_storage_unit
type StorageUnit struct {
	Destination       string   `json:"destination"`
	Duration          int      `json:"duration"`
	StartDate         string   `json:"start_date"`
	PricePerMonth     int      `json:"price_per_month"`
	Size              string   `json:"size"`
	ClimateControlled bool     `json:"climate_controlled"`
	AccessHours       string   `json:"access_hours"`
	SecurityFeatures  []string `json:"security_features"`
}

// VacationRental is the record returned for parse_vacation_rental
type VacationRental struct {
	Destination   string   `json:"destination"`
	Duration      int      `json:"duration"`
	StartDate     string   `json:"start_date"`
	PropertyType  string   `json:"property_type"`
	Bedrooms      int      `json:"bedrooms"`
	Bathrooms     int      `json:"bathrooms"`
	Amenities     []string `json:"amenities"`
	PricePerNight int      `json:"price_per_night"`
	PetFriendly   bool     `json:"pet_friendly"`
}

// Function names the travel assistant is configured with
const (
	ParseApartmentRental = "parse_apartment_rental"
	ParseStorageUnit     = "parse_storage_unit"
	ParseVacationRental  = "parse_vacation_rental"
)

// Illustrative listings handed back to the assistant. They stand in for a
// real inventory lookup and ignore the call arguments.
var (
	SampleApartment = ApartmentRental{
		Destination:   "San Francisco",
		Duration:      3,
		StartDate:     "2023-07-01",
		PricePerMonth: 3000,
		Bedrooms:      2,
		Bathrooms:     1,
		Amenities:     []string{"gym", "Wi-Fi"},
		PetFriendly:   true,
	}

	SampleStorageUnit = StorageUnit{
		Destination:       "San Francisco",
		Duration:          3,
		StartDate:         "2023-07-01",
		PricePerMonth:     150,
		Size:              "10x10",
		ClimateControlled: true,
		AccessHours:       "24/7",
		SecurityFeatures:  []string{"CCTV", "Alarm"},
	}

	SampleVacationRental = VacationRental{
		Destination:   "Miami Beach",
		Duration:      14,
		StartDate:     "2024-12-01",
		PropertyType:  "beachfront",
		Bedrooms:      3,
		Bathrooms:     2,
		Amenities:     []string{"swimming pool", "Wi-Fi"},
		PricePerNight: 500,
		PetFriendly:   true,
	}
)

// Static returns a handler that always answers with value
func Static(value any) Handler {
	return func(context.Context, json.RawMessage) (any, error) {
		return value, nil
	}
}

// DefaultRegistry returns a registry with the three rental handlers
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(ParseApartmentRental, Static(SampleApartment))
	r.Register(ParseStorageUnit, Static(SampleStorageUnit))
	r.Register(ParseVacationRental, Static(SampleVacationRental))
	return r
}
