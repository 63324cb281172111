package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	dErrors "cropchain/pkg/domain-errors"
)

// Stage is a position in the supply chain. Values outside the known set are
// accepted on update.
type Stage string

const (
	StageFarmer    Stage = "farmer"
	StageMandi     Stage = "mandi"
	StageTransport Stage = "transport"
	StageRetailer  Stage = "retailer"
)

const initialHarvestNote = "Initial harvest recorded"

// FormatBatchID renders CROP-<year>-<seq>, padding seq to three digits.
func FormatBatchID(year int, seq int64) string {
	return fmt.Sprintf("CROP-%04d-%03d", year, seq)
}

// StageUpdate is one entry of a batch's supply-chain log. Timestamp is the
// caller's string and is not parsed.
type StageUpdate struct {
	Stage     Stage  `json:"stage"`
	Actor     string `json:"actor"`
	Location  string `json:"location"`
	Timestamp string `json:"timestamp"`
	Notes     string `json:"notes,omitempty"`
}

// Batch is a tracked unit of harvested crop.
//
// Invariants:
//   - Updates is never empty; the first entry is the farmer harvest record
//   - CurrentStage equals the stage of the last update
//   - updates are only appended
type Batch struct {
	BatchID        string        `json:"batchId"`
	FarmerName     string        `json:"farmerName"`
	FarmerAddress  string        `json:"farmerAddress,omitempty"`
	CropType       string        `json:"cropType"`
	Quantity       Quantity      `json:"quantity"`
	HarvestDate    string        `json:"harvestDate"`
	Origin         string        `json:"origin"`
	Certifications string        `json:"certifications,omitempty"`
	Description    string        `json:"description,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	CurrentStage   Stage         `json:"currentStage"`
	Updates        []StageUpdate `json:"updates"`
	QRCode         string        `json:"qrCode,omitempty"`
	BlockchainHash string        `json:"blockchainHash"`
}

// CreateBatchInput carries the caller's fields. Quantity stays a string so
// ParseQuantity sees exactly what was submitted.
type CreateBatchInput struct {
	FarmerName     string `json:"farmerName"`
	FarmerAddress  string `json:"farmerAddress"`
	CropType       string `json:"cropType"`
	Quantity       string `json:"quantity"`
	HarvestDate    string `json:"harvestDate"`
	Origin         string `json:"origin"`
	Certifications string `json:"certifications"`
	Description    string `json:"description"`
}

// Validate checks the required fields.
func (in CreateBatchInput) Validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"farmerName", in.FarmerName},
		{"cropType", in.CropType},
		{"quantity", in.Quantity},
		{"harvestDate", in.HarvestDate},
		{"origin", in.Origin},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return dErrors.Newf(dErrors.CodeValidation, "missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// NewBatch builds a batch with its initial farmer-stage update and integrity
// hash. The input must already be valid.
func NewBatch(batchID string, in CreateBatchInput, now time.Time) *Batch {
	notes := in.Description
	if notes == "" {
		notes = initialHarvestNote
	}
	b := &Batch{
		BatchID:        batchID,
		FarmerName:     in.FarmerName,
		FarmerAddress:  in.FarmerAddress,
		CropType:       in.CropType,
		Quantity:       ParseQuantity(in.Quantity),
		HarvestDate:    in.HarvestDate,
		Origin:         in.Origin,
		Certifications: in.Certifications,
		Description:    in.Description,
		CreatedAt:      now,
		CurrentStage:   StageFarmer,
		Updates: []StageUpdate{{
			Stage:     StageFarmer,
			Actor:     in.FarmerName,
			Location:  in.Origin,
			Timestamp: in.HarvestDate,
			Notes:     notes,
		}},
	}
	b.BlockchainHash = b.IntegrityHash()
	return b
}

// ApplyUpdate appends u verbatim and re-derives the current stage and hash.
func (b *Batch) ApplyUpdate(u StageUpdate) {
	b.Updates = append(b.Updates, u)
	b.CurrentStage = u.Stage
	b.BlockchainHash = b.IntegrityHash()
}

// IntegrityHash is keccak256 over the canonical JSON of the batch identity
// and its update log. It is a tamper-evidence tag, not a ledger entry.
func (b *Batch) IntegrityHash() string {
	// Marshal cannot fail: every field is a string, number or slice of those.
	payload, _ := json.Marshal(struct {
		BatchID     string        `json:"batchId"`
		FarmerName  string        `json:"farmerName"`
		CropType    string        `json:"cropType"`
		Quantity    Quantity      `json:"quantity"`
		HarvestDate string        `json:"harvestDate"`
		Origin      string        `json:"origin"`
		CreatedAt   int64         `json:"createdAt"`
		Updates     []StageUpdate `json:"updates"`
	}{
		BatchID:     b.BatchID,
		FarmerName:  b.FarmerName,
		CropType:    b.CropType,
		Quantity:    b.Quantity,
		HarvestDate: b.HarvestDate,
		Origin:      b.Origin,
		CreatedAt:   b.CreatedAt.UnixMilli(),
		Updates:     b.Updates,
	})
	return crypto.Keccak256Hash(payload).Hex()
}

// Clone returns a deep copy.
func (b *Batch) Clone() *Batch {
	c := *b
	c.Updates = append([]StageUpdate(nil), b.Updates...)
	return &c
}

// DashboardStats aggregates over every stored batch. TotalQuantity is NaN
// once any batch has a NaN quantity.
type DashboardStats struct {
	TotalBatches  int      `json:"totalBatches"`
	TotalFarmers  int      `json:"totalFarmers"`
	TotalQuantity Quantity `json:"totalQuantity"`
	RecentBatches []*Batch `json:"recentBatches"`
}

// Dashboard is the stats plus all batches newest first.
type Dashboard struct {
	Stats   DashboardStats `json:"stats"`
	Batches []*Batch       `json:"batches"`
}
