package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ToolName is the wire name of a lookup operation offered to the model.
type ToolName string

const (
	ToolSearchBatch    ToolName = "search_batch"
	ToolGetBatchStats  ToolName = "get_batch_stats"
	ToolExplainProcess ToolName = "explain_process"
)

// Operation is one of SearchBatch, GetBatchStats or ExplainProcess.
type Operation interface {
	Tool() ToolName
	isOperation()
}

type SearchBatch struct {
	BatchID string `json:"batchId"`
}

type GetBatchStats struct{}

type ExplainProcess struct {
	Topic string `json:"topic"`
}

func (SearchBatch) Tool() ToolName    { return ToolSearchBatch }
func (GetBatchStats) Tool() ToolName  { return ToolGetBatchStats }
func (ExplainProcess) Tool() ToolName { return ToolExplainProcess }

func (SearchBatch) isOperation()    {}
func (GetBatchStats) isOperation()  {}
func (ExplainProcess) isOperation() {}

// UnknownToolError is returned for a tool name outside the dispatch table.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}

var decoders = map[ToolName]func(args []byte) (Operation, error){
	ToolSearchBatch: func(args []byte) (Operation, error) {
		var op SearchBatch
		if err := decodeArgs(args, &op); err != nil {
			return nil, err
		}
		op.BatchID = strings.TrimSpace(op.BatchID)
		if op.BatchID == "" {
			return nil, fmt.Errorf("search_batch: batchId is required")
		}
		return op, nil
	},
	ToolGetBatchStats: func([]byte) (Operation, error) {
		return GetBatchStats{}, nil
	},
	ToolExplainProcess: func(args []byte) (Operation, error) {
		var op ExplainProcess
		if err := decodeArgs(args, &op); err != nil {
			return nil, err
		}
		return op, nil
	},
}

// DecodeOperation turns a tool call into a typed operation. Empty arguments
// decode as an empty object.
func DecodeOperation(name, arguments string) (Operation, error) {
	decode, ok := decoders[ToolName(name)]
	if !ok {
		return nil, &UnknownToolError{Name: name}
	}
	return decode([]byte(arguments))
}

func decodeArgs(args []byte, v any) error {
	if len(strings.TrimSpace(string(args))) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("decode tool arguments: %w", err)
	}
	return nil
}
