package mcp

import (
	"encoding/json"
	"fmt"
	"strings"
)

// scopeArgs covers the common optional arguments shared by most tools.
type scopeArgs struct {
	Division   string   `json:"division"`
	Segment    string   `json:"segment"`
	UserType   string   `json:"user_type"`
	Metric     string   `json:"metric"`
	Month      string   `json:"month"`
	StartMonth string   `json:"start_month"`
	EndMonth   string   `json:"end_month"`
	Limit      *int     `json:"limit"`
	MetricIDs  []string `json:"metric_ids"`
}

var (
	noArgsSchema = json.RawMessage(`{"type":"object","properties":{},"additionalProperties":false}`)

	usageScopeSchema = json.RawMessage(`{"type":"object","properties":{
		"division":{"type":"string","description":"Business division to scope to (optional, matched case-insensitively)"},
		"start_month":{"type":"string","description":"Inclusive start month YYYY-MM (optional)"},
		"end_month":{"type":"string","description":"Inclusive end month YYYY-MM (optional)"}
	},"additionalProperties":false}`)

	usageScopeLimitSchema = json.RawMessage(`{"type":"object","properties":{
		"division":{"type":"string","description":"Business division to scope to (optional, matched case-insensitively)"},
		"start_month":{"type":"string","description":"Inclusive start month YYYY-MM (optional)"},
		"end_month":{"type":"string","description":"Inclusive end month YYYY-MM (optional)"},
		"limit":{"type":"integer","description":"Maximum number of rows to return"}
	},"additionalProperties":false}`)

	breakdownSchema = json.RawMessage(`{"type":"object","properties":{
		"start_month":{"type":"string","description":"Inclusive start month YYYY-MM (optional)"},
		"end_month":{"type":"string","description":"Inclusive end month YYYY-MM (optional)"},
		"limit":{"type":"integer","description":"Maximum number of divisions to return (default 5)"}
	},"additionalProperties":false}`)

	segmentScopeSchema = json.RawMessage(`{"type":"object","properties":{
		"segment":{"type":"string","description":"Business segment to scope to (optional, matched case-insensitively)"},
		"start_month":{"type":"string","description":"Inclusive start month YYYY-MM (optional)"},
		"end_month":{"type":"string","description":"Inclusive end month YYYY-MM (optional)"}
	},"additionalProperties":false}`)

	segmentTrendSchema = json.RawMessage(`{"type":"object","properties":{
		"segment":{"type":"string","description":"Business segment to scope to (optional, matched case-insensitively)"},
		"metric":{"type":"string","description":"One of fte_adoption, non_fte_adoption, fte_active, non_fte_active (default fte_adoption)"},
		"start_month":{"type":"string","description":"Inclusive start month YYYY-MM (optional)"},
		"end_month":{"type":"string","description":"Inclusive end month YYYY-MM (optional)"},
		"limit":{"type":"integer","description":"Number of most recent months to return (default 6)"}
	},"additionalProperties":false}`)

	leadersSchema = json.RawMessage(`{"type":"object","properties":{
		"month":{"type":"string","description":"Month YYYY-MM to rank on; all months when omitted"},
		"metric":{"type":"string","description":"One of fte_adoption, non_fte_adoption, fte_active, non_fte_active (default fte_adoption)"},
		"limit":{"type":"integer","description":"Number of segments to return (default 5)"}
	},"additionalProperties":false}`)

	premiumScopeSchema = json.RawMessage(`{"type":"object","properties":{
		"segment":{"type":"string","description":"Business segment to scope to (optional, matched case-insensitively)"},
		"user_type":{"type":"string","description":"One of fte, contractor, all (default all)"},
		"start_month":{"type":"string","description":"Inclusive start month YYYY-MM (optional)"},
		"end_month":{"type":"string","description":"Inclusive end month YYYY-MM (optional)"}
	},"additionalProperties":false}`)

	premiumTrendSchema = json.RawMessage(`{"type":"object","properties":{
		"segment":{"type":"string","description":"Business segment to scope to (optional, matched case-insensitively)"},
		"user_type":{"type":"string","description":"One of fte, contractor, all (default all)"},
		"metric":{"type":"string","description":"One of requests, cost, users (default requests)"},
		"start_month":{"type":"string","description":"Inclusive start month YYYY-MM (optional)"},
		"end_month":{"type":"string","description":"Inclusive end month YYYY-MM (optional)"},
		"limit":{"type":"integer","description":"Number of most recent months to return (default 6)"}
	},"additionalProperties":false}`)

	premiumTopSegmentsSchema = json.RawMessage(`{"type":"object","properties":{
		"user_type":{"type":"string","description":"One of fte, contractor, all (default all)"},
		"metric":{"type":"string","description":"One of requests, cost, users (default cost)"},
		"start_month":{"type":"string","description":"Inclusive start month YYYY-MM (optional)"},
		"end_month":{"type":"string","description":"Inclusive end month YYYY-MM (optional)"},
		"limit":{"type":"integer","description":"Number of segments to return (default 5)"}
	},"additionalProperties":false}`)

	premiumTopModelsSchema = json.RawMessage(`{"type":"object","properties":{
		"segment":{"type":"string","description":"Business segment to scope to (optional, matched case-insensitively)"},
		"user_type":{"type":"string","description":"One of fte, contractor, all (default all)"},
		"start_month":{"type":"string","description":"Inclusive start month YYYY-MM (optional)"},
		"end_month":{"type":"string","description":"Inclusive end month YYYY-MM (optional)"},
		"limit":{"type":"integer","description":"Number of models to return (default 5)"}
	},"additionalProperties":false}`)

	describeMetricsSchema = json.RawMessage(`{"type":"object","properties":{
		"metric_ids":{"type":"array","items":{"type":"string"},"description":"Metric identifiers to describe; all metrics when omitted"}
	},"additionalProperties":false}`)
)

// addTools registers the full tool surface on s.
func addTools(s *Server) {
	s.registerTool(toolDef{
		Name:        "copilot_usage_divisions",
		Description: "List the business divisions present in the Copilot usage dataset.",
		InputSchema: noArgsSchema,
		Handler:     s.handleUsageDivisions,
	})
	s.registerTool(toolDef{
		Name:        "copilot_usage_summary",
		Description: "Adoption, request volume, and acceptance summary for a division and month range.",
		InputSchema: usageScopeSchema,
		Handler:     s.handleUsageSummary,
	})
	s.registerTool(toolDef{
		Name:        "copilot_adoption_trend",
		Description: "Month-over-month Copilot adoption percentages for a division.",
		InputSchema: usageScopeLimitSchema,
		Handler:     s.handleAdoptionTrend,
	})
	s.registerTool(toolDef{
		Name:        "copilot_model_mix",
		Description: "Share of Copilot usage by AI model for a division and month range.",
		InputSchema: usageScopeLimitSchema,
		Handler:     s.handleModelMix,
	})
	s.registerTool(toolDef{
		Name:        "copilot_division_breakdown",
		Description: "Divisions ranked by active Copilot developers with adoption percentages.",
		InputSchema: breakdownSchema,
		Handler:     s.handleDivisionBreakdown,
	})

	s.registerTool(toolDef{
		Name:        "segment_adoption_segments",
		Description: "List the business segments present in the segment adoption dataset.",
		InputSchema: noArgsSchema,
		Handler:     s.handleSegmentList,
	})
	s.registerTool(toolDef{
		Name:        "segment_adoption_summary",
		Description: "FTE and Non-FTE Copilot coverage summary for a segment and month range.",
		InputSchema: segmentScopeSchema,
		Handler:     s.handleSegmentSummary,
	})
	s.registerTool(toolDef{
		Name:        "segment_adoption_trend",
		Description: "Month-over-month trend of a segment adoption metric.",
		InputSchema: segmentTrendSchema,
		Handler:     s.handleSegmentTrend,
	})
	s.registerTool(toolDef{
		Name:        "segment_adoption_leaders",
		Description: "Segments ranked by an adoption metric for one month or all months.",
		InputSchema: leadersSchema,
		Handler:     s.handleSegmentLeaders,
	})

	s.registerTool(toolDef{
		Name:        "premium_request_segments",
		Description: "List the business segments present in the premium request dataset.",
		InputSchema: noArgsSchema,
		Handler:     s.handlePremiumSegments,
	})
	s.registerTool(toolDef{
		Name:        "premium_request_enterprises",
		Description: "List the GitHub enterprises present in the premium request dataset.",
		InputSchema: noArgsSchema,
		Handler:     s.handlePremiumEnterprises,
	})
	s.registerTool(toolDef{
		Name:        "premium_request_models",
		Description: "List the AI models present in the premium request dataset.",
		InputSchema: noArgsSchema,
		Handler:     s.handlePremiumModels,
	})
	s.registerTool(toolDef{
		Name:        "premium_request_summary",
		Description: "Premium request volume, users, and billing summary for a scope.",
		InputSchema: premiumScopeSchema,
		Handler:     s.handlePremiumSummary,
	})
	s.registerTool(toolDef{
		Name:        "premium_request_trend",
		Description: "Month-over-month trend of premium requests, cost, or users.",
		InputSchema: premiumTrendSchema,
		Handler:     s.handlePremiumTrend,
	})
	s.registerTool(toolDef{
		Name:        "premium_top_segments",
		Description: "Segments ranked by premium request volume, cost, or users.",
		InputSchema: premiumTopSegmentsSchema,
		Handler:     s.handlePremiumTopSegments,
	})
	s.registerTool(toolDef{
		Name:        "premium_top_models",
		Description: "AI models ranked by net premium request cost.",
		InputSchema: premiumTopModelsSchema,
		Handler:     s.handlePremiumTopModels,
	})
	s.registerTool(toolDef{
		Name:        "premium_enterprise_breakdown",
		Description: "Premium request volume, cost, and users per GitHub enterprise.",
		InputSchema: premiumScopeSchema,
		Handler:     s.handleEnterpriseBreakdown,
	})

	s.registerTool(toolDef{
		Name:        "describe_metrics",
		Description: "Governance definitions for reported metrics from the metrics registry.",
		InputSchema: describeMetricsSchema,
		Handler:     s.handleDescribeMetrics,
	})
}

// parseArgs decodes the tool arguments into scopeArgs.
func parseArgs(raw json.RawMessage) (scopeArgs, error) {
	var args scopeArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return args, fmt.Errorf("invalid arguments: %w", err)
	}
	return args, nil
}

// limitOr returns *limit when set and positive, fallback otherwise.
func limitOr(limit *int, fallback int) int {
	if limit != nil && *limit > 0 {
		return *limit
	}
	return fallback
}

// renderList formats a name list as a markdown bullet block.
func renderList(header, empty string, items []string) string {
	if len(items) == 0 {
		return empty
	}
	lines := make([]string, 0, len(items)+1)
	lines = append(lines, header)
	for _, item := range items {
		lines = append(lines, "- "+item)
	}
	return strings.Join(lines, "\n")
}

func (s *Server) handleUsageDivisions(json.RawMessage) (string, error) {
	engine, err := s.usage.Get()
	if err != nil {
		return "", err
	}
	return renderList("Available divisions:", "No divisions found in the dataset.", engine.AvailableDivisions()), nil
}

func (s *Server) handleUsageSummary(raw json.RawMessage) (string, error) {
	args, err := parseArgs(raw)
	if err != nil {
		return "", err
	}
	engine, err := s.usage.Get()
	if err != nil {
		return "", err
	}
	summary, err := engine.SummarizeUsage(args.Division, args.StartMonth, args.EndMonth)
	if err != nil {
		return "", err
	}
	return summary.Render(), nil
}

func (s *Server) handleAdoptionTrend(raw json.RawMessage) (string, error) {
	args, err := parseArgs(raw)
	if err != nil {
		return "", err
	}
	engine, err := s.usage.Get()
	if err != nil {
		return "", err
	}
	trend, err := engine.AdoptionTrend(args.Division, args.StartMonth, args.EndMonth, limitOr(args.Limit, 6))
	if err != nil {
		return "", err
	}
	return trend.Render(), nil
}

func (s *Server) handleModelMix(raw json.RawMessage) (string, error) {
	args, err := parseArgs(raw)
	if err != nil {
		return "", err
	}
	engine, err := s.usage.Get()
	if err != nil {
		return "", err
	}
	mix, err := engine.ModelMix(args.Division, args.StartMonth, args.EndMonth, limitOr(args.Limit, 5))
	if err != nil {
		return "", err
	}
	return mix.Render(), nil
}

func (s *Server) handleDivisionBreakdown(raw json.RawMessage) (string, error) {
	args, err := parseArgs(raw)
	if err != nil {
		return "", err
	}
	engine, err := s.usage.Get()
	if err != nil {
		return "", err
	}
	breakdown, err := engine.DivisionBreakdown(args.StartMonth, args.EndMonth, limitOr(args.Limit, 5))
	if err != nil {
		return "", err
	}
	return breakdown.Render(), nil
}

func (s *Server) handleSegmentList(json.RawMessage) (string, error) {
	engine, err := s.segments.Get()
	if err != nil {
		return "", err
	}
	return renderList("Available segments:", "No segments found in the dataset.", engine.AvailableSegments()), nil
}

func (s *Server) handleSegmentSummary(raw json.RawMessage) (string, error) {
	args, err := parseArgs(raw)
	if err != nil {
		return "", err
	}
	engine, err := s.segments.Get()
	if err != nil {
		return "", err
	}
	summary, err := engine.Summary(args.Segment, args.StartMonth, args.EndMonth)
	if err != nil {
		return "", err
	}
	return summary.Render(), nil
}

func (s *Server) handleSegmentTrend(raw json.RawMessage) (string, error) {
	args, err := parseArgs(raw)
	if err != nil {
		return "", err
	}
	engine, err := s.segments.Get()
	if err != nil {
		return "", err
	}
	trend, err := engine.Trend(args.Segment, args.Metric, args.StartMonth, args.EndMonth, limitOr(args.Limit, 6))
	if err != nil {
		return "", err
	}
	return trend.Render(), nil
}

func (s *Server) handleSegmentLeaders(raw json.RawMessage) (string, error) {
	args, err := parseArgs(raw)
	if err != nil {
		return "", err
	}
	engine, err := s.segments.Get()
	if err != nil {
		return "", err
	}
	leaders, err := engine.Leaders(args.Month, args.Metric, limitOr(args.Limit, 5))
	if err != nil {
		return "", err
	}
	return leaders.Render(), nil
}

func (s *Server) handlePremiumSegments(json.RawMessage) (string, error) {
	engine, err := s.premium.Get()
	if err != nil {
		return "", err
	}
	return renderList("Available segments:", "No segments found in the dataset.", engine.AvailableSegments()), nil
}

func (s *Server) handlePremiumEnterprises(json.RawMessage) (string, error) {
	engine, err := s.premium.Get()
	if err != nil {
		return "", err
	}
	return renderList("Available enterprises:", "No enterprises found in the dataset.", engine.AvailableEnterprises()), nil
}

func (s *Server) handlePremiumModels(json.RawMessage) (string, error) {
	engine, err := s.premium.Get()
	if err != nil {
		return "", err
	}
	return renderList("Available models:", "No models found in the dataset.", engine.AvailableModels()), nil
}

func (s *Server) handlePremiumSummary(raw json.RawMessage) (string, error) {
	args, err := parseArgs(raw)
	if err != nil {
		return "", err
	}
	engine, err := s.premium.Get()
	if err != nil {
		return "", err
	}
	summary, err := engine.Summary(args.Segment, args.UserType, args.StartMonth, args.EndMonth)
	if err != nil {
		return "", err
	}
	return summary.Render(), nil
}

func (s *Server) handlePremiumTrend(raw json.RawMessage) (string, error) {
	args, err := parseArgs(raw)
	if err != nil {
		return "", err
	}
	engine, err := s.premium.Get()
	if err != nil {
		return "", err
	}
	trend, err := engine.Trend(args.Segment, args.UserType, args.Metric, args.StartMonth, args.EndMonth, limitOr(args.Limit, 6))
	if err != nil {
		return "", err
	}
	return trend.Render(), nil
}

func (s *Server) handlePremiumTopSegments(raw json.RawMessage) (string, error) {
	args, err := parseArgs(raw)
	if err != nil {
		return "", err
	}
	engine, err := s.premium.Get()
	if err != nil {
		return "", err
	}
	top, err := engine.TopSegments(args.UserType, args.Metric, args.StartMonth, args.EndMonth, limitOr(args.Limit, 5))
	if err != nil {
		return "", err
	}
	return top.Render(), nil
}

func (s *Server) handlePremiumTopModels(raw json.RawMessage) (string, error) {
	args, err := parseArgs(raw)
	if err != nil {
		return "", err
	}
	engine, err := s.premium.Get()
	if err != nil {
		return "", err
	}
	top, err := engine.TopModels(args.Segment, args.UserType, args.StartMonth, args.EndMonth, limitOr(args.Limit, 5))
	if err != nil {
		return "", err
	}
	return top.Render(), nil
}

func (s *Server) handleEnterpriseBreakdown(raw json.RawMessage) (string, error) {
	args, err := parseArgs(raw)
	if err != nil {
		return "", err
	}
	engine, err := s.premium.Get()
	if err != nil {
		return "", err
	}
	breakdown, err := engine.EnterpriseBreakdown(args.Segment, args.UserType, args.StartMonth, args.EndMonth)
	if err != nil {
		return "", err
	}
	return breakdown.Render(), nil
}

func (s *Server) handleDescribeMetrics(raw json.RawMessage) (string, error) {
	args, err := parseArgs(raw)
	if err != nil {
		return "", err
	}
	reg, err := s.metrics.Get()
	if err != nil {
		return "", err
	}
	return reg.AsMarkdown(args.MetricIDs), nil
}
