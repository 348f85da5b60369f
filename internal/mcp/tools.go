package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/gohmmer/internal/hmm"
	"github.com/dshills/gohmmer/internal/search"
	"github.com/dshills/gohmmer/internal/seqfile"
	"github.com/dshills/gohmmer/internal/sequence"
	"github.com/dshills/gohmmer/internal/storage"
	"github.com/dshills/gohmmer/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams   = -32602 // Invalid method parameters
	ErrorCodeInternalError   = -32603 // Internal JSON-RPC error
	ErrorCodeFileNotFound    = -32001 // Model or sequence file missing or unreadable
	ErrorCodeBadFormat       = -32002 // Model or sequence file is malformed
	ErrorCodeRunNotFound     = -32003 // No stored run with the given id
	ErrorCodeInvalidSequence = -32004 // Sequence contains an illegal residue
)

// handleSearchDatabase handles the search_database tool invocation
func (s *Server) handleSearchDatabase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	hmmPath, err := requiredString(args, "hmm_path")
	if err != nil {
		return nil, err
	}
	seqPath, err := requiredString(args, "seq_path")
	if err != nil {
		return nil, err
	}
	if seqPath == "-" {
		return nil, newMCPError(ErrorCodeInvalidParams, "standard input is reserved for the protocol", map[string]interface{}{
			"param": "seq_path",
			"value": seqPath,
		})
	}

	maxSeqs := getIntDefault(args, "max_sequences", search.Unlimited)
	if maxSeqs < search.Unlimited {
		return nil, newMCPError(ErrorCodeInvalidParams, "max_sequences must be -1 or greater", map[string]interface{}{
			"param": "max_sequences",
			"value": maxSeqs,
		})
	}
	save := getBoolDefault(args, "save", false)

	models, err := s.models.Load(hmmPath)
	if err != nil {
		return nil, toolError(err)
	}

	rc := s.cfg.RunConfig(seqPath)
	rc.MaxSequences = maxSeqs
	outcomes, err := search.RunAll(ctx, models, rc, s.cfg.SearchOptions(s.logger)...)
	if err != nil {
		return nil, toolError(err)
	}

	results := make([]map[string]interface{}, 0, len(outcomes))
	for _, o := range outcomes {
		entry := resultJSON(o.Result)
		if save {
			run, err := storage.SaveResult(ctx, s.storage, seqPath, o.Result)
			if err != nil {
				return nil, newMCPError(ErrorCodeInternalError, "failed to save run", map[string]interface{}{
					"error": err.Error(),
				})
			}
			entry["run_id"] = run.ID
		}
		results = append(results, entry)
	}

	response := map[string]interface{}{
		"hmm_path": hmmPath,
		"seq_path": seqPath,
		"models":   len(models),
		"results":  results,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchSequence handles the search_sequence tool invocation
func (s *Server) handleSearchSequence(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	hmmPath, err := requiredString(args, "hmm_path")
	if err != nil {
		return nil, err
	}
	residues, err := requiredString(args, "sequence")
	if err != nil {
		return nil, err
	}
	name := getStringDefault(args, "name", "query")

	models, err := s.models.Load(hmmPath)
	if err != nil {
		return nil, toolError(err)
	}

	results := make([]map[string]interface{}, 0, len(models))
	for _, hm := range models {
		if err := ctx.Err(); err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "search cancelled", map[string]interface{}{
				"error": err.Error(),
			})
		}

		sq, err := sequence.FromString(hm.Abc, name, residues)
		if err != nil {
			return nil, newMCPError(ErrorCodeInvalidSequence, "invalid sequence", map[string]interface{}{
				"param":  "sequence",
				"reason": err.Error(),
			})
		}
		if sq.N == 0 {
			return nil, newMCPError(ErrorCodeInvalidParams, "sequence has no residues", map[string]interface{}{
				"param": "sequence",
			})
		}

		res, err := s.query(hm, sq)
		if err != nil {
			return nil, toolError(err)
		}
		results = append(results, resultJSON(res))
	}

	response := map[string]interface{}{
		"hmm_path": hmmPath,
		"name":     name,
		"results":  results,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

func (s *Server) query(hm *hmm.Model, sq *sequence.Digital) (*search.Result, error) {
	x, err := search.New(hm, s.cfg.SearchOptions(s.logger)...)
	if err != nil {
		return nil, err
	}
	defer x.Close()

	if err := x.Query(sq); err != nil {
		return nil, err
	}
	return x.Finalize(), nil
}

// handleGetRun handles the get_run tool invocation
func (s *Server) handleGetRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	runID := getIntDefault(args, "run_id", 0)
	if runID < 1 {
		return nil, newMCPError(ErrorCodeInvalidParams, "run_id parameter is required", map[string]interface{}{
			"param":  "run_id",
			"reason": "missing or not positive",
		})
	}

	run, err := s.storage.GetRun(ctx, int64(runID))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeRunNotFound, "run not found", map[string]interface{}{
			"run_id": runID,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get run", map[string]interface{}{
			"error": err.Error(),
		})
	}

	hits, err := s.storage.ListHits(ctx, run.ID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list hits", map[string]interface{}{
			"error": err.Error(),
		})
	}
	records := make([]types.HitRecord, 0, len(hits))
	for _, h := range hits {
		domains, err := s.storage.ListDomains(ctx, h.ID)
		if err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "failed to list domains", map[string]interface{}{
				"error": err.Error(),
			})
		}
		records = append(records, h.ToRecord(domains))
	}

	response := map[string]interface{}{
		"run": map[string]interface{}{
			"id":         run.ID,
			"model":      types.ModelInfo{Name: run.ModelName, Accession: run.ModelAccession, Length: run.ModelLength},
			"seq_source": run.SeqSource,
			"n_seqs":     run.NSeqs,
			"n_residues": run.NResidues,
			"z":          run.Z,
			"dom_z":      run.DomZ,
			"n_reported": run.NReported,
			"n_included": run.NIncluded,
			"created_at": run.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		},
		"hits": records,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// resultJSON describes a finalized result
func resultJSON(res *search.Result) map[string]interface{} {
	st := res.Stats()
	return map[string]interface{}{
		"model": res.Model,
		"statistics": map[string]interface{}{
			"n_seqs":      st.NSeqs,
			"n_residues":  st.NResidues,
			"past_msv":    st.NPastMSV,
			"past_vit":    st.NPastVit,
			"past_fwd":    st.NPastFwd,
			"z":           st.Z,
			"dom_z":       st.DomZ,
			"n_reported":  st.NReported,
			"n_included":  st.NIncluded,
			"n_hits_seen": st.NHits,
		},
		"hits": res.Records(),
	}
}

// toolError maps search failures to MCP errors
func toolError(err error) error {
	data := map[string]interface{}{"error": err.Error()}
	switch {
	case errors.Is(err, types.ErrOpenFailed), errors.Is(err, seqfile.ErrNotFound):
		return newMCPError(ErrorCodeFileNotFound, "file not found or unreadable", data)
	case errors.Is(err, types.ErrFormat), errors.Is(err, seqfile.ErrUndeterminedFormat):
		return newMCPError(ErrorCodeBadFormat, "malformed input file", data)
	default:
		return newMCPError(ErrorCodeInternalError, "search failed", data)
	}
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// requiredString extracts a non-blank string parameter
func requiredString(args map[string]interface{}, key string) (string, error) {
	val, ok := args[key].(string)
	if !ok || strings.TrimSpace(val) == "" {
		return "", newMCPError(ErrorCodeInvalidParams, key+" parameter is required", map[string]interface{}{
			"param":  key,
			"reason": "missing or empty",
		})
	}
	return val, nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok && val != "" {
		return val
	}
	return defaultValue
}
