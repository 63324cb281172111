package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"cropchain/internal/assistant/models"
	"cropchain/internal/assistant/service/mocks"
	batchmodels "cropchain/internal/batch/models"
	dErrors "cropchain/pkg/domain-errors"
	"cropchain/pkg/platform/circuit"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func sampleBatch() *batchmodels.Batch {
	return batchmodels.NewBatch("CROP-2024-001", batchmodels.CreateBatchInput{
		FarmerName:  "Rajesh Kumar",
		CropType:    "rice",
		Quantity:    "1000",
		HarvestDate: "2024-01-15",
		Origin:      "Rampur, Meerut",
	}, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
}

func TestFallback(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"How do I track my batch?", replyTrack},
		{"find batch CROP-2024-001", replyTrack},
		{"Where is my QR code", replyQR},
		{"can I scan this", replyQR},
		{"how to create a listing", replyCreate},
		{"add something", replyCreate},
		{"is this on a blockchain?", replyBlockchain},
		{"Immutable?", replyBlockchain},
		{"hello", replyGreeting},
		{"batch", replyGreeting},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			reply := Fallback(tt.message)
			assert.True(t, reply.Success)
			assert.True(t, reply.Fallback)
			assert.Equal(t, tt.want, reply.Message)
		})
	}
}

func TestExplain(t *testing.T) {
	assert.Equal(t, explanations["qr scanning"], Explain("QR Scanning").Explanation)
	assert.Equal(t, explanations["supply chain"], Explain("  supply chain ").Explanation)

	unknown := Explain("weather")
	assert.True(t, unknown.Success)
	assert.Equal(t, topicMenu, unknown.Explanation)
}

func TestExecutorRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	batches := mocks.NewMockBatchReader(ctrl)
	exec := NewExecutor(batches, discard)
	ctx := context.Background()

	t.Run("search found", func(t *testing.T) {
		batches.EXPECT().GetBatch(ctx, "CROP-2024-001").Return(sampleBatch(), nil)
		result := exec.Run(ctx, "search_batch", `{"batchId":"CROP-2024-001"}`)
		require.True(t, result.Success)
		assert.Equal(t, models.BatchSummary{
			BatchID:      "CROP-2024-001",
			FarmerName:   "Rajesh Kumar",
			CropType:     "rice",
			Quantity:     1000,
			CurrentStage: batchmodels.StageFarmer,
			Origin:       "Rampur, Meerut",
			HarvestDate:  "2024-01-15",
			UpdatesCount: 1,
		}, result.Data)
	})

	t.Run("search missing", func(t *testing.T) {
		batches.EXPECT().GetBatch(ctx, "CROP-2024-404").Return(nil, dErrors.New(dErrors.CodeNotFound, "batch not found"))
		result := exec.Run(ctx, "search_batch", `{"batchId":"CROP-2024-404"}`)
		assert.False(t, result.Success)
		assert.Equal(t, "Batch CROP-2024-404 not found. Please check the batch ID format (CROP-YYYY-XXX).", result.Message)
	})

	t.Run("store failure is absorbed", func(t *testing.T) {
		batches.EXPECT().GetDashboardStats(ctx).Return(nil, errors.New("redis down"))
		result := exec.Run(ctx, "get_batch_stats", "")
		assert.False(t, result.Success)
		assert.Equal(t, msgExecFailed, result.Message)
	})

	t.Run("stats projection", func(t *testing.T) {
		b := sampleBatch()
		batches.EXPECT().GetDashboardStats(ctx).Return(&batchmodels.Dashboard{Stats: batchmodels.DashboardStats{
			TotalBatches:  1,
			TotalFarmers:  1,
			TotalQuantity: 1000,
			RecentBatches: []*batchmodels.Batch{b},
		}}, nil)
		result := exec.Run(ctx, "get_batch_stats", "{}")
		require.True(t, result.Success)
		assert.Equal(t, models.StatsSummary{
			TotalBatches:  1,
			TotalFarmers:  1,
			TotalQuantity: 1000,
			RecentBatches: []*batchmodels.Batch{b},
		}, result.Data)
	})

	t.Run("unknown tool", func(t *testing.T) {
		result := exec.Run(ctx, "delete_batch", "{}")
		assert.Equal(t, models.Result{Success: false, Message: msgUnknownTool}, result)
	})

	t.Run("malformed arguments", func(t *testing.T) {
		result := exec.Run(ctx, "search_batch", `{"batchId":`)
		assert.False(t, result.Success)
		assert.Equal(t, msgExecFailed, result.Message)
	})
}

func TestChatWithoutModelUsesFallback(t *testing.T) {
	a := New(nil, WithLogger(discard))
	assert.False(t, a.ModelConfigured())
	assert.Equal(t, Fallback("track my batch"), a.Chat(context.Background(), "track my batch"))
}

func TestChatRunsOneToolCall(t *testing.T) {
	ctrl := gomock.NewController(t)
	batches := mocks.NewMockBatchReader(ctrl)
	model := mocks.NewMockModel(ctrl)
	a := New(batches, WithModel(model), WithLogger(discard))

	gomock.InOrder(
		model.EXPECT().Complete(gomock.Any(), gomock.Len(2), true).Return(models.Message{
			Role: models.RoleAssistant,
			ToolCalls: []models.ToolCall{
				{ID: "call_1", Name: "search_batch", Arguments: `{"batchId":"CROP-2024-001"}`},
				{ID: "call_2", Name: "get_batch_stats", Arguments: `{}`},
			},
		}, nil),
		model.EXPECT().Complete(gomock.Any(), gomock.Any(), false).DoAndReturn(
			func(_ context.Context, msgs []models.Message, _ bool) (models.Message, error) {
				require.Len(t, msgs, 4)
				assert.Len(t, msgs[2].ToolCalls, 1, "only the executed call is echoed back")
				assert.Equal(t, models.RoleTool, msgs[3].Role)
				assert.Equal(t, "call_1", msgs[3].ToolCallID)
				assert.Contains(t, msgs[3].Content, `"farmerName":"Rajesh Kumar"`)
				return models.Message{Role: models.RoleAssistant, Content: "Batch CROP-2024-001 is with the farmer."}, nil
			}),
	)
	batches.EXPECT().GetBatch(gomock.Any(), "CROP-2024-001").Return(sampleBatch(), nil)

	reply := a.Chat(context.Background(), "where is CROP-2024-001?")
	assert.True(t, reply.Success)
	assert.False(t, reply.Fallback)
	assert.Equal(t, "Batch CROP-2024-001 is with the farmer.", reply.Message)
	assert.Equal(t, models.ToolSearchBatch, reply.FunctionCalled)
	require.NotNil(t, reply.FunctionResult)
	assert.True(t, reply.FunctionResult.Success)
}

func TestChatPlainAnswer(t *testing.T) {
	ctrl := gomock.NewController(t)
	model := mocks.NewMockModel(ctrl)
	a := New(mocks.NewMockBatchReader(ctrl), WithModel(model), WithLogger(discard))

	model.EXPECT().Complete(gomock.Any(), gomock.Any(), true).
		Return(models.Message{Role: models.RoleAssistant, Content: "Namaste!"}, nil)

	reply := a.Chat(context.Background(), "hi")
	assert.Equal(t, models.Reply{Success: true, Message: "Namaste!"}, reply)
}

func TestChatModelErrorsFallBackAndOpenBreaker(t *testing.T) {
	ctrl := gomock.NewController(t)
	model := mocks.NewMockModel(ctrl)
	breaker := circuit.New("test", circuit.WithFailureThreshold(2))
	a := New(mocks.NewMockBatchReader(ctrl), WithModel(model), WithBreaker(breaker), WithLogger(discard))

	model.EXPECT().Complete(gomock.Any(), gomock.Any(), true).
		Return(models.Message{}, errors.New("503 service unavailable")).Times(2)

	for i := 0; i < 2; i++ {
		reply := a.Chat(context.Background(), "scan a qr")
		assert.Equal(t, replyQR, reply.Message)
		assert.True(t, reply.Fallback)
	}
	assert.True(t, breaker.IsOpen())

	// open breaker: the model is not called again
	reply := a.Chat(context.Background(), "hello")
	assert.Equal(t, replyGreeting, reply.Message)
}

func TestChatFollowUpFailureFallsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	model := mocks.NewMockModel(ctrl)
	batches := mocks.NewMockBatchReader(ctrl)
	a := New(batches, WithModel(model), WithLogger(discard))

	model.EXPECT().Complete(gomock.Any(), gomock.Any(), true).Return(models.Message{
		ToolCalls: []models.ToolCall{{ID: "c", Name: "explain_process", Arguments: `{"topic":"blockchain"}`}},
	}, nil)
	model.EXPECT().Complete(gomock.Any(), gomock.Any(), false).Return(models.Message{}, context.DeadlineExceeded)

	reply := a.Chat(context.Background(), "explain blockchain")
	assert.True(t, reply.Fallback)
	assert.Equal(t, replyBlockchain, reply.Message)
}
