package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kdbai-mcp/internal/usecase/catalog"
	"github.com/kailas-cloud/kdbai-mcp/internal/usecase/query"
)

// QueryArgs are the arguments of kdbai_query_data.
type QueryArgs struct {
	TableName    string         `json:"table_name" jsonschema:"name of the table to query"`
	DatabaseName string         `json:"database_name,omitempty" jsonschema:"database containing the table; the configured default when empty"`
	Filters      []any          `json:"filters,omitempty" jsonschema:"filter conditions as q parse trees"`
	SortColumns  []string       `json:"sort_columns,omitempty" jsonschema:"columns to sort by"`
	GroupBy      []string       `json:"group_by,omitempty" jsonschema:"columns to group by"`
	Aggs         map[string]any `json:"aggs,omitempty" jsonschema:"aggregation rules keyed by output column"`
	Limit        *int           `json:"limit,omitempty" jsonschema:"maximum number of rows to return"`
}

// SimilarityArgs are the arguments of kdbai_similarity_search.
type SimilarityArgs struct {
	TableName       string         `json:"table_name" jsonschema:"name of the table to search"`
	Query           string         `json:"query" jsonschema:"text to embed and search for"`
	VectorIndexName string         `json:"vector_index_name" jsonschema:"name of the dense vector index"`
	DatabaseName    string         `json:"database_name,omitempty" jsonschema:"database containing the table; the configured default when empty"`
	N               *int           `json:"n,omitempty" jsonschema:"number of results to return"`
	Filters         []any          `json:"filters,omitempty" jsonschema:"filter conditions as q parse trees"`
	SortColumns     []string       `json:"sort_columns,omitempty" jsonschema:"columns to sort by"`
	GroupBy         []string       `json:"group_by,omitempty" jsonschema:"columns to group by"`
	Aggs            map[string]any `json:"aggs,omitempty" jsonschema:"aggregation rules keyed by output column"`
}

// HybridArgs are the arguments of kdbai_hybrid_search.
type HybridArgs struct {
	TableName       string         `json:"table_name" jsonschema:"name of the table to search"`
	Query           string         `json:"query" jsonschema:"text used for both the dense and the sparse search"`
	VectorIndexName string         `json:"vector_index_name" jsonschema:"name of the dense vector index"`
	SparseIndexName string         `json:"sparse_index_name" jsonschema:"name of the sparse index"`
	DatabaseName    string         `json:"database_name,omitempty" jsonschema:"database containing the table; the configured default when empty"`
	N               *int           `json:"n,omitempty" jsonschema:"number of results to return"`
	Filters         []any          `json:"filters,omitempty" jsonschema:"filter conditions as q parse trees"`
	SortColumns     []string       `json:"sort_columns,omitempty" jsonschema:"columns to sort by"`
	GroupBy         []string       `json:"group_by,omitempty" jsonschema:"columns to group by"`
	Aggs            map[string]any `json:"aggs,omitempty" jsonschema:"aggregation rules keyed by output column"`
}

// DatabaseArgs name an optional database.
type DatabaseArgs struct {
	Database string `json:"database,omitempty" jsonschema:"database name; the configured default when empty"`
}

// DatabaseNameArgs name an optional database.
type DatabaseNameArgs struct {
	DatabaseName string `json:"database_name,omitempty" jsonschema:"database name; the configured default when empty"`
}

// TableArgs name a table and an optional database.
type TableArgs struct {
	TableName    string `json:"table_name" jsonschema:"name of the table"`
	DatabaseName string `json:"database_name,omitempty" jsonschema:"database containing the table; the configured default when empty"`
}

// NoArgs is the input of parameterless tools.
type NoArgs struct{}

const guidanceRef = " For syntax and examples, see: " + GuidanceURI

func (s *Server) registerTools() int {
	tools := []func(){
		func() {
			sdk.AddTool(s.srv, &sdk.Tool{
				Name: query.OpQuery,
				Description: "Query data from a KDB.AI table with filtering, sorting, grouping, aggregation and limit. " +
					"Vector index columns are removed from the output." + guidanceRef,
			}, s.queryData)
		},
		func() {
			sdk.AddTool(s.srv, &sdk.Tool{
				Name:        query.OpSimilaritySearch,
				Description: "Perform vector similarity search on a KDB.AI table using a text query." + guidanceRef,
			}, s.similaritySearch)
		},
		func() {
			sdk.AddTool(s.srv, &sdk.Tool{
				Name: query.OpHybridSearch,
				Description: "Perform hybrid search on a KDB.AI table by combining dense vector and sparse (keyword) search." +
					guidanceRef,
			}, s.hybridSearch)
		},
		func() {
			sdk.AddTool(s.srv, &sdk.Tool{
				Name:        catalog.OpListDatabases,
				Description: "List all database names in KDB.AI.",
			}, s.listDatabases)
		},
		func() {
			sdk.AddTool(s.srv, &sdk.Tool{
				Name:        catalog.OpDatabaseInfo,
				Description: "Get KDB.AI database information, including information on each of its tables.",
			}, s.databaseInfo)
		},
		func() {
			sdk.AddTool(s.srv, &sdk.Tool{
				Name:        catalog.OpAllDatabasesInfo,
				Description: "Get information on all KDB.AI databases and their tables.",
			}, s.allDatabasesInfo)
		},
		func() {
			sdk.AddTool(s.srv, &sdk.Tool{
				Name:        catalog.OpListTables,
				Description: "List the tables of a KDB.AI database.",
			}, s.listTables)
		},
		func() {
			sdk.AddTool(s.srv, &sdk.Tool{
				Name:        catalog.OpTableInfo,
				Description: "Get comprehensive information about a table including schema, indexes and statistics.",
			}, s.tableInfo)
		},
		func() {
			sdk.AddTool(s.srv, &sdk.Tool{
				Name:        catalog.OpSessionInfo,
				Description: "Get session information from KDB.AI.",
			}, s.serverInfo(s.catalog.SessionInfo))
		},
		func() {
			sdk.AddTool(s.srv, &sdk.Tool{
				Name:        catalog.OpSystemInfo,
				Description: "Get system information from KDB.AI.",
			}, s.serverInfo(s.catalog.SystemInfo))
		},
		func() {
			sdk.AddTool(s.srv, &sdk.Tool{
				Name:        catalog.OpProcessInfo,
				Description: "Get process information from KDB.AI.",
			}, s.serverInfo(s.catalog.ProcessInfo))
		},
	}
	for _, register := range tools {
		register()
	}
	return len(tools)
}

func (s *Server) queryData(ctx context.Context, _ *sdk.CallToolRequest, in QueryArgs) (*sdk.CallToolResult, any, error) {
	env := s.query.Query(ctx, query.QueryInput{
		Database: in.DatabaseName,
		Table:    in.TableName,
		Clauses: query.Clauses{
			Filter:      in.Filters,
			SortColumns: in.SortColumns,
			GroupBy:     in.GroupBy,
			Aggs:        in.Aggs,
		},
		Limit: in.Limit,
	})
	return jsonResult(env)
}

func (s *Server) similaritySearch(
	ctx context.Context, _ *sdk.CallToolRequest, in SimilarityArgs,
) (*sdk.CallToolResult, any, error) {
	return jsonResult(s.query.SimilaritySearch(ctx, query.SearchInput{
		Database:    in.DatabaseName,
		Table:       in.TableName,
		Query:       in.Query,
		VectorIndex: in.VectorIndexName,
		N:           in.N,
		Clauses: query.Clauses{
			Filter:      in.Filters,
			SortColumns: in.SortColumns,
			GroupBy:     in.GroupBy,
			Aggs:        in.Aggs,
		},
	}))
}

func (s *Server) hybridSearch(ctx context.Context, _ *sdk.CallToolRequest, in HybridArgs) (*sdk.CallToolResult, any, error) {
	return jsonResult(s.query.HybridSearch(ctx, query.SearchInput{
		Database:    in.DatabaseName,
		Table:       in.TableName,
		Query:       in.Query,
		VectorIndex: in.VectorIndexName,
		SparseIndex: in.SparseIndexName,
		N:           in.N,
		Clauses: query.Clauses{
			Filter:      in.Filters,
			SortColumns: in.SortColumns,
			GroupBy:     in.GroupBy,
			Aggs:        in.Aggs,
		},
	}))
}

func (s *Server) listDatabases(ctx context.Context, _ *sdk.CallToolRequest, _ NoArgs) (*sdk.CallToolResult, any, error) {
	return jsonResult(s.catalog.ListDatabases(ctx))
}

func (s *Server) databaseInfo(
	ctx context.Context, _ *sdk.CallToolRequest, in DatabaseArgs,
) (*sdk.CallToolResult, any, error) {
	return jsonResult(s.catalog.DatabaseInfo(ctx, in.Database))
}

func (s *Server) allDatabasesInfo(
	ctx context.Context, _ *sdk.CallToolRequest, _ NoArgs,
) (*sdk.CallToolResult, any, error) {
	return jsonResult(s.catalog.AllDatabasesInfo(ctx))
}

func (s *Server) listTables(
	ctx context.Context, _ *sdk.CallToolRequest, in DatabaseNameArgs,
) (*sdk.CallToolResult, any, error) {
	return jsonResult(s.catalog.ListTables(ctx, in.DatabaseName))
}

func (s *Server) tableInfo(ctx context.Context, _ *sdk.CallToolRequest, in TableArgs) (*sdk.CallToolResult, any, error) {
	return jsonResult(s.catalog.TableInfo(ctx, in.TableName, in.DatabaseName))
}

// serverInfo adapts the info endpoints. Their failures surface as tool errors.
func (s *Server) serverInfo(
	fetch func(context.Context) (map[string]any, error),
) sdk.ToolHandlerFor[NoArgs, any] {
	return func(ctx context.Context, req *sdk.CallToolRequest, _ NoArgs) (*sdk.CallToolResult, any, error) {
		info, err := fetch(ctx)
		if err != nil {
			s.logger.Error("info tool failed", zap.String("tool", req.Params.Name), zap.Error(err))
			return nil, nil, err
		}
		return jsonResult(info)
	}
}

// jsonResult renders v as a single JSON text block.
func jsonResult(v any) (*sdk.CallToolResult, any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, nil, fmt.Errorf("encode tool result: %w", err)
	}
	return &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: string(b)}},
	}, nil, nil
}
