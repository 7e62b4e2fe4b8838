package mcp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// PromptTableAnalysis is the name of the table analysis prompt.
const PromptTableAnalysis = "kdbai_table_analysis"

// Analysis focuses accepted by the table analysis prompt.
const (
	AnalysisOverview = "overview"
	AnalysisContent  = "content"
	AnalysisQuality  = "quality"
	AnalysisSearch   = "search"
)

const defaultSampleSize = 10

var analysisFocus = map[string]string{
	AnalysisOverview: `Focus on table overview:
    - table structure (schema, columns, indexes)
    - content types (documents, length patterns)
    - basic statistics (row count, memory usage)
    - overall data characteristics`,
	AnalysisContent: `Focus on content analysis:
    - text themes and topics
    - document types and formats
    - content patterns (language, style, complexity)
    - temporal distribution
    - subject matter coverage`,
	AnalysisQuality: `Focus on data quality assessment:
    - data completeness (missing fields, null values)
    - duplicate detection (identical or similar content)
    - text formatting issues (encoding, truncation, corruption)
    - metadata consistency`,
	AnalysisSearch: `Focus on search optimization:
    - similarity search effectiveness (relevance quality)
    - optimal query strategies (keywords vs phrases)
    - distance threshold analysis
    - embedding performance assessment`,
}

var errTableNameRequired = errors.New("table_name is required")

func (s *Server) registerPrompts() {
	s.srv.AddPrompt(&sdk.Prompt{
		Name:        PromptTableAnalysis,
		Description: "Conduct a detailed analysis of a KDB.AI table. analysis_type: overview, content, quality, search.",
		Arguments: []*sdk.PromptArgument{
			{Name: "table_name", Description: "name of the table to analyze", Required: true},
			{Name: "analysis_type", Description: "overview (default), content, quality or search"},
			{Name: "sample_size", Description: "number of records to examine (default 10)"},
		},
	}, s.tableAnalysis)
}

func (s *Server) tableAnalysis(_ context.Context, req *sdk.GetPromptRequest) (*sdk.GetPromptResult, error) {
	args := req.Params.Arguments
	table := strings.TrimSpace(args["table_name"])
	if table == "" {
		return nil, errTableNameRequired
	}

	analysis := args["analysis_type"]
	if _, ok := analysisFocus[analysis]; !ok {
		if analysis != "" {
			s.logger.Warn("Invalid analysis type, defaulting to overview", zap.String("analysis_type", analysis))
		}
		analysis = AnalysisOverview
	}

	sample := defaultSampleSize
	if raw := args["sample_size"]; raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("sample_size must be a positive integer, got %q", raw)
		}
		sample = n
	}

	s.logger.Info("Generated table analysis prompt",
		zap.String("table", table), zap.String("analysis_type", analysis))

	return &sdk.GetPromptResult{
		Description: "Analysis of KDB.AI table " + table,
		Messages: []*sdk.PromptMessage{{
			Role:    "user",
			Content: &sdk.TextContent{Text: TableAnalysisText(table, analysis, sample)},
		}},
	}, nil
}

// TableAnalysisText renders the analysis instructions. Unknown analysis types
// fall back to the overview focus.
func TableAnalysisText(table, analysis string, sample int) string {
	focus, ok := analysisFocus[analysis]
	if !ok {
		analysis = AnalysisOverview
		focus = analysisFocus[analysis]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a data analyst conducting an in-depth analysis of the KDB.AI table: %s\n", table)
	b.WriteString("First, examine the table structure and sample data to understand its content and characteristics.\n")
	b.WriteString("Use the available KDB.AI tools to get detailed information about this table.\n\n")
	b.WriteString(focus)
	b.WriteString("\n\nStructure your analysis as follows:\n")
	b.WriteString("1. **Table Overview**:\n")
	b.WriteString("- Business purpose and context of this table\n")
	b.WriteString("- Key entity or concept it represents per column\n")
	b.WriteString("- Total record count and data volume\n")
	b.WriteString("2. **Data Profile**:\n")
	fmt.Fprintf(&b, "- Sample data examination (%d records)\n", sample)
	b.WriteString("- Text content patterns and characteristics\n")
	b.WriteString("- Metadata field analysis\n")
	b.WriteString("3. **Search Performance Analysis**:\n")
	b.WriteString("- Test 3-5 similarity searches with different queries\n")
	b.WriteString("- Distance threshold effectiveness\n")
	b.WriteString("- Query strategy recommendations\n\n")
	b.WriteString("Focus on actionable insights that would help someone understand and effectively use ")
	b.WriteString("this KDB.AI table for text search and retrieval.\n\n")
	fmt.Fprintf(&b, "Table to analyze: %s\nAnalysis type: %s", table, analysis)
	return b.String()
}
