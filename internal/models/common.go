// internal/models/common.go
package models

import "time"

// Quantity is a value with its measurement unit (kg, quintal, ton, piece, dozen, liter).
type Quantity struct {
	Value float64 `bson:"value" json:"value"`
	Unit  string  `bson:"unit,omitempty" json:"unit"`
}

// Price is a value with its pricing unit (per_kg, per_quintal, ...).
type Price struct {
	Value float64 `bson:"value" json:"value"`
	Unit  string  `bson:"unit,omitempty" json:"unit"`
}

// Coordinates for map display.
type Coordinates struct {
	Latitude  float64 `bson:"latitude,omitempty" json:"latitude"`
	Longitude float64 `bson:"longitude,omitempty" json:"longitude"`
}

// Location is a structured postal address used for farms, pickup points and deliveries.
type Location struct {
	Address     string      `bson:"address,omitempty" json:"address"`
	Village     string      `bson:"village,omitempty" json:"village"`
	District    string      `bson:"district,omitempty" json:"district"`
	State       string      `bson:"state,omitempty" json:"state"`
	Pincode     string      `bson:"pincode,omitempty" json:"pincode"`
	Coordinates Coordinates `bson:"coordinates,omitempty" json:"coordinates"`
}

// CropImage is a pointer to an uploaded crop photo on S3.
type CropImage struct {
	URL        string    `bson:"url" json:"url"`
	FileName   string    `bson:"fileName,omitempty" json:"fileName"`
	UploadedAt time.Time `bson:"uploadedAt,omitempty" json:"uploadedAt"`
}
