// Package mcp implements the Model Context Protocol (MCP) server for gohmmer.
//
// The server exposes three tools:
//   - search_database: search every model of a HMMER3 file against a FASTA database
//   - search_sequence: score one sequence given inline against every model of a file
//   - get_run: return a run stored by search_database with save set
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport. Standard output is
// reserved for protocol messages; logs go to standard error.
//
// # Tool: search_database
//
//	Request:
//	{
//	  "name": "search_database",
//	  "arguments": {
//	    "hmm_path": "/data/Pfam-A.hmm",
//	    "seq_path": "/data/uniprot_sprot.fasta.gz",
//	    "max_sequences": -1,
//	    "save": true
//	  }
//	}
//
// The response holds one entry per model, in file order, with pipeline
// statistics and the reported hits best first. Saved entries carry a run_id.
//
// # Tool: search_sequence
//
//	Request:
//	{
//	  "name": "search_sequence",
//	  "arguments": {
//	    "hmm_path": "/data/globins4.hmm",
//	    "sequence": "MVHLTPEEKSAVTALWGKVNVDEVGGEALGRLLVVYPWTQRFFESFGDLST",
//	    "name": "HBB_HUMAN"
//	  }
//	}
//
// # Tool: get_run
//
//	Request:
//	{
//	  "name": "get_run",
//	  "arguments": {"run_id": 3}
//	}
//
// E-values of stored runs are recomputed from lnP and the run's Z.
//
// # Model Cache
//
// Parsed model files are kept in an LRU cache keyed by path and SHA-256 of
// the file content. Its size is the cache-size setting.
//
// # Error Codes
//
//   - -32602: Invalid params
//   - -32603: Internal error
//   - -32001: Model or sequence file not found or unreadable
//   - -32002: Malformed model or sequence file
//   - -32003: Run not found
//   - -32004: Illegal residue in an inline sequence
package mcp
