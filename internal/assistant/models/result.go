package models

import (
	batchmodels "cropchain/internal/batch/models"
)

// Result is what an operation returns to the model and to the caller.
type Result struct {
	Success     bool   `json:"success"`
	Data        any    `json:"data,omitempty"`
	Message     string `json:"message,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

// BatchSummary is the projection of a batch exposed by search_batch.
type BatchSummary struct {
	BatchID      string               `json:"batchId"`
	FarmerName   string               `json:"farmerName"`
	CropType     string               `json:"cropType"`
	Quantity     batchmodels.Quantity `json:"quantity"`
	CurrentStage batchmodels.Stage    `json:"currentStage"`
	Origin       string               `json:"origin"`
	HarvestDate  string               `json:"harvestDate"`
	UpdatesCount int                  `json:"updatesCount"`
}

// StatsSummary is the projection exposed by get_batch_stats.
type StatsSummary struct {
	TotalBatches  int                  `json:"totalBatches"`
	TotalFarmers  int                  `json:"totalFarmers"`
	TotalQuantity batchmodels.Quantity `json:"totalQuantity"`
	RecentBatches []*batchmodels.Batch `json:"recentBatches"`
}

// Reply is the answer to a chat message.
type Reply struct {
	Success        bool     `json:"success"`
	Message        string   `json:"message"`
	FunctionCalled ToolName `json:"functionCalled,omitempty"`
	FunctionResult *Result  `json:"functionResult,omitempty"`
	Fallback       bool     `json:"fallback,omitempty"`
}
