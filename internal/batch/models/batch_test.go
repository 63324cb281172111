package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "cropchain/pkg/domain-errors"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"100", 100},
		{"  42 ", 42},
		{"12kg", 12},
		{"-7", -7},
		{"+3", 3},
		{"0x1A", 26},
		{"3.9", 3},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, float64(ParseQuantity(tt.in)))
		})
	}

	for _, in := range []string{"abc", "", "-", "kg12", "0x"} {
		t.Run("nan/"+in, func(t *testing.T) {
			assert.True(t, ParseQuantity(in).IsNaN())
		})
	}
}

func TestQuantityJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Q Quantity `json:"q"`
	}{Q: NaNQuantity})
	require.NoError(t, err)
	assert.JSONEq(t, `{"q":null}`, string(b))

	var out struct {
		Q Quantity `json:"q"`
	}
	require.NoError(t, json.Unmarshal(b, &out))
	assert.True(t, math.IsNaN(float64(out.Q)))

	require.NoError(t, json.Unmarshal([]byte(`{"q":750}`), &out))
	assert.Equal(t, Quantity(750), out.Q)
}

func TestFormatBatchID(t *testing.T) {
	assert.Equal(t, "CROP-2024-001", FormatBatchID(2024, 1))
	assert.Equal(t, "CROP-2025-042", FormatBatchID(2025, 42))
	assert.Equal(t, "CROP-2024-1000", FormatBatchID(2024, 1000))
}

func TestCreateBatchInputValidate(t *testing.T) {
	err := CreateBatchInput{FarmerName: "A", CropType: "rice"}.Validate()
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	assert.Contains(t, err.Error(), "quantity, harvestDate, origin")
}

func TestNewBatchAndApplyUpdate(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	b := NewBatch("CROP-2024-001", CreateBatchInput{
		FarmerName:  "A",
		CropType:    "rice",
		Quantity:    "100",
		HarvestDate: "2024-01-15",
		Origin:      "X",
	}, now)

	require.Len(t, b.Updates, 1)
	assert.Equal(t, StageUpdate{
		Stage:     StageFarmer,
		Actor:     "A",
		Location:  "X",
		Timestamp: "2024-01-15",
		Notes:     "Initial harvest recorded",
	}, b.Updates[0])
	assert.Equal(t, StageFarmer, b.CurrentStage)
	assert.Len(t, b.BlockchainHash, 66)
	assert.Equal(t, b.IntegrityHash(), b.BlockchainHash)

	first := b.BlockchainHash
	b.ApplyUpdate(StageUpdate{Stage: "transport", Actor: "B", Location: "Y", Timestamp: "2024-01-16"})
	assert.Equal(t, Stage("transport"), b.CurrentStage)
	assert.Len(t, b.Updates, 2)
	assert.NotEqual(t, first, b.BlockchainHash)

	t.Run("hash is deterministic", func(t *testing.T) {
		assert.Equal(t, b.BlockchainHash, b.Clone().IntegrityHash())
	})

	t.Run("clone does not share the update log", func(t *testing.T) {
		c := b.Clone()
		c.ApplyUpdate(StageUpdate{Stage: StageRetailer})
		assert.Len(t, b.Updates, 2)
	})
}
