package service

import (
	"context"

	"cropchain/internal/batch/models"
)

var sampleBatches = []models.CreateBatchInput{
	{
		FarmerName:     "Rajesh Kumar",
		FarmerAddress:  "Village Rampur, District Meerut, UP",
		CropType:       "rice",
		Quantity:       "1000",
		HarvestDate:    "2024-01-15",
		Origin:         "Rampur, Meerut",
		Certifications: "Organic, Fair Trade",
		Description:    "High-quality Basmati rice grown using traditional methods",
	},
	{
		FarmerName:     "Priya Sharma",
		FarmerAddress:  "Village Khetri, District Alwar, RJ",
		CropType:       "wheat",
		Quantity:       "750",
		HarvestDate:    "2024-01-10",
		Origin:         "Khetri, Alwar",
		Certifications: "Organic",
		Description:    "Premium wheat variety with high protein content",
	},
	{
		FarmerName:    "Suresh Patil",
		FarmerAddress: "Village Shirdi, District Ahmednagar, MH",
		CropType:      "tomato",
		Quantity:      "500",
		HarvestDate:   "2024-01-20",
		Origin:        "Shirdi, Ahmednagar",
		Description:   "Fresh tomatoes grown in greenhouse conditions",
	},
}

var (
	mandiInspection = models.StageUpdate{
		Stage:     models.StageMandi,
		Actor:     "Meerut Mandi",
		Location:  "Meerut Agricultural Market",
		Timestamp: "2024-01-16",
		Notes:     "Quality inspection completed. Grade A produce.",
	}
	inTransit = models.StageUpdate{
		Stage:     models.StageTransport,
		Actor:     "Express Logistics",
		Location:  "Delhi Highway",
		Timestamp: "2024-01-17",
		Notes:     "In transit to retail distribution center.",
	}
)

// Seed loads sample batches for development. Every sample reaches the mandi;
// the first and third also go to transport. An already populated store is
// left alone.
func (s *BatchService) Seed(ctx context.Context) ([]*models.Batch, error) {
	existing, err := s.store.List(ctx)
	if err != nil {
		return nil, wrapBatchErr(err, "")
	}
	if len(existing) > 0 {
		return nil, nil
	}

	seeded := make([]*models.Batch, 0, len(sampleBatches))
	for i, in := range sampleBatches {
		batch, err := s.CreateBatch(ctx, in)
		if err != nil {
			return seeded, err
		}
		batch, err = s.UpdateBatch(ctx, batch.BatchID, mandiInspection)
		if err != nil {
			return seeded, err
		}
		if i%2 == 0 {
			batch, err = s.UpdateBatch(ctx, batch.BatchID, inTransit)
			if err != nil {
				return seeded, err
			}
		}
		seeded = append(seeded, batch)
	}
	s.logger.InfoContext(ctx, "sample batches seeded", "count", len(seeded))
	return seeded, nil
}
