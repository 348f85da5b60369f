package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// searchDatabaseTool returns the tool definition for search_database
func searchDatabaseTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_database",
		Description: "Search every profile HMM in a model file against a FASTA sequence database",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"hmm_path": map[string]interface{}{
					"type":        "string",
					"description": "Path to a HMMER3 ASCII model file",
				},
				"seq_path": map[string]interface{}{
					"type":        "string",
					"description": "Path to a FASTA file, optionally gzip compressed",
				},
				"max_sequences": map[string]interface{}{
					"type":        "integer",
					"description": "Stop after this many sequences; -1 searches the whole database",
					"default":     -1,
					"minimum":     -1,
				},
				"save": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, store each model's result as a run that get_run can return later",
					"default":     false,
				},
			},
			Required: []string{"hmm_path", "seq_path"},
		},
	}
}

// searchSequenceTool returns the tool definition for search_sequence
func searchSequenceTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_sequence",
		Description: "Score a single protein sequence against every profile HMM in a model file",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"hmm_path": map[string]interface{}{
					"type":        "string",
					"description": "Path to a HMMER3 ASCII model file",
				},
				"sequence": map[string]interface{}{
					"type":        "string",
					"description": "Residues in one-letter code; whitespace is ignored",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Name reported for the sequence",
					"default":     "query",
				},
			},
			Required: []string{"hmm_path", "sequence"},
		},
	}
}

// getRunTool returns the tool definition for get_run
func getRunTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_run",
		Description: "Return a stored search run with its hits and domains",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"run_id": map[string]interface{}{
					"type":        "integer",
					"description": "Identifier returned by search_database with save set",
					"minimum":     1,
				},
			},
			Required: []string{"run_id"},
		},
	}
}
