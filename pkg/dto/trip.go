package dto

import (
	"encoding/json"
	"time"
)

type CreateTripRequest struct {
	Name        string          `json:"name"`
	Destination string          `json:"destination"`
	StartDate   *time.Time      `json:"start_date"`
	EndDate     *time.Time      `json:"end_date"`
	Data        json.RawMessage `json:"data"`
}

type UpdateTripRequest struct {
	Name        *string         `json:"name"`
	Destination *string         `json:"destination"`
	StartDate   *time.Time      `json:"start_date"`
	EndDate     *time.Time      `json:"end_date"`
	IsShared    *bool           `json:"is_shared"`
	Data        json.RawMessage `json:"data"`
}
