package handler

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"cropchain/internal/batch/models"
)

// CreateBatchRequest accepts quantity as a JSON string or number.
type CreateBatchRequest struct {
	FarmerName     string        `json:"farmerName"`
	FarmerAddress  string        `json:"farmerAddress"`
	CropType       string        `json:"cropType"`
	Quantity       quantityField `json:"quantity"`
	HarvestDate    string        `json:"harvestDate"`
	Origin         string        `json:"origin"`
	Certifications string        `json:"certifications"`
	Description    string        `json:"description"`
}

func (r *CreateBatchRequest) Normalize() {
	r.FarmerName = strings.TrimSpace(r.FarmerName)
	r.FarmerAddress = strings.TrimSpace(r.FarmerAddress)
	r.CropType = strings.TrimSpace(r.CropType)
	r.HarvestDate = strings.TrimSpace(r.HarvestDate)
	r.Origin = strings.TrimSpace(r.Origin)
	r.Certifications = strings.TrimSpace(r.Certifications)
	r.Description = strings.TrimSpace(r.Description)
}

func (r *CreateBatchRequest) Validate() error {
	return r.toInput().Validate()
}

func (r *CreateBatchRequest) toInput() models.CreateBatchInput {
	return models.CreateBatchInput{
		FarmerName:     r.FarmerName,
		FarmerAddress:  r.FarmerAddress,
		CropType:       r.CropType,
		Quantity:       string(r.Quantity),
		HarvestDate:    r.HarvestDate,
		Origin:         r.Origin,
		Certifications: r.Certifications,
		Description:    r.Description,
	}
}

type quantityField string

func (q *quantityField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*q = quantityField(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*q = ""
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	// numbers are parsed by value, so 1e3 is 1000 rather than the prefix "1"
	*q = quantityField(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

// UpdateBatchRequest is appended as given; no field is required.
type UpdateBatchRequest struct {
	Stage     string `json:"stage"`
	Actor     string `json:"actor"`
	Location  string `json:"location"`
	Timestamp string `json:"timestamp"`
	Notes     string `json:"notes,omitempty"`
}

func (r *UpdateBatchRequest) toUpdate() models.StageUpdate {
	return models.StageUpdate{
		Stage:     models.Stage(r.Stage),
		Actor:     r.Actor,
		Location:  r.Location,
		Timestamp: r.Timestamp,
		Notes:     r.Notes,
	}
}
