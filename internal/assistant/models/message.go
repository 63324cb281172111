package models

// Role of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a provider-neutral chat turn.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	Name       string
}

// ToolCall is a model's request to run a named operation.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolDefinition describes an operation to the model. Parameters is a JSON
// schema object.
type ToolDefinition struct {
	Name        ToolName
	Description string
	Parameters  map[string]any
}

// Tools lists the operations offered to the model.
func Tools() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        ToolSearchBatch,
			Description: "Search for a specific crop batch by ID",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"batchId": map[string]any{
						"type":        "string",
						"description": "The batch ID to search for (format: CROP-YYYY-XXX)",
					},
				},
				"required": []string{"batchId"},
			},
		},
		{
			Name:        ToolGetBatchStats,
			Description: "Get overall statistics about batches in the system",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
				"required":   []string{},
			},
		},
		{
			Name:        ToolExplainProcess,
			Description: "Explain a specific CropChain process or feature",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"topic": map[string]any{
						"type":        "string",
						"description": `The topic to explain (e.g., "batch creation", "QR scanning", "supply chain")`,
					},
				},
				"required": []string{"topic"},
			},
		},
	}
}
