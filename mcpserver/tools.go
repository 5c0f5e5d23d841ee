package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/unirag/campus-rag/assistant"
	"github.com/unirag/campus-rag/extractor"
	"github.com/unirag/campus-rag/post"
)

const formatProperty = `"format": {"type": "string", "enum": ["text", "json"], "description": "Response format, text by default"}`

func GetAskSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"question": {"type": "string", "description": "The question in natural language"},
			` + formatProperty + `
		},
		"required": ["question"]
	}`)
}

func GetClassifySchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"question": {"type": "string", "description": "The question to classify"}
		},
		"required": ["question"]
	}`)
}

func GetSearchScheduleSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"groups": {"type": "array", "items": {"type": "string"}, "description": "Group ids, e.g. 4318"},
			"rooms": {"type": "array", "items": {"type": "string"}, "description": "Rooms, e.g. 52-17"},
			"teachers": {"type": "array", "items": {"type": "string"}, "description": "Teacher surnames"},
			"days": {"type": "array", "items": {"type": "string"}, "description": "Weekdays, e.g. Monday"},
			"time_slots": {"type": "array", "items": {"type": "string"}, "description": "Lesson periods 1-6"},
			"limit": {"type": "integer", "description": "Maximum records to scan"},
			` + formatProperty + `
		}
	}`)
}

func GetSearchDocumentsSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "Search query"},
			"top_k": {"type": "integer", "description": "Number of documents to return"},
			` + formatProperty + `
		},
		"required": ["query"]
	}`)
}

func wantJSON(req mcp.CallToolRequest) bool {
	return strings.EqualFold(req.GetString("format", "text"), "json")
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func HandleAsk(a *assistant.Assistant) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil || strings.TrimSpace(question) == "" {
			return mcp.NewToolResultError("invalid question: must be a non-empty string"), nil
		}
		resp := a.Answer(ctx, question)
		if wantJSON(req) {
			return jsonResult(resp)
		}
		return mcp.NewToolResultText(resp.Text), nil
	}
}

func HandleClassify(a *assistant.Assistant) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return mcp.NewToolResultError("invalid question: must be a string"), nil
		}
		return jsonResult(a.Classify(ctx, question))
	}
}

type scheduleResult struct {
	Status  string `json:"status"`
	Scanned int    `json:"scanned"`
	Lessons any    `json:"lessons"`
	Error   string `json:"error,omitempty"`
}

func HandleSearchSchedule(a *assistant.Assistant) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		c := extractor.Criteria{
			Groups:    req.GetStringSlice("groups", nil),
			Rooms:     req.GetStringSlice("rooms", nil),
			Teachers:  req.GetStringSlice("teachers", nil),
			Days:      req.GetStringSlice("days", nil),
			TimeSlots: req.GetStringSlice("time_slots", nil),
		}.Sanitize()
		if !c.HasFilter() {
			return mcp.NewToolResultError("at least one of groups, rooms, teachers, days or time_slots is required"), nil
		}

		res := a.SearchSchedule(ctx, c, req.GetInt("limit", 0))
		if wantJSON(req) {
			out := scheduleResult{Status: string(res.Status), Scanned: res.Scanned, Lessons: res.Lessons}
			if res.Err != nil {
				out.Error = res.Err.Error()
			}
			return jsonResult(out)
		}
		return mcp.NewToolResultText(post.FormatSchedule(res.Lessons)), nil
	}
}

type documentsResult struct {
	Status            string   `json:"status"`
	Documents         any      `json:"documents"`
	FailedCollections []string `json:"failed_collections,omitempty"`
}

func HandleSearchDocuments(a *assistant.Assistant) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil || strings.TrimSpace(query) == "" {
			return mcp.NewToolResultError("invalid query: must be a non-empty string"), nil
		}
		topK := req.GetInt("top_k", 0)
		if topK < 0 || topK > 100 {
			return mcp.NewToolResultError("top_k must be between 1 and 100"), nil
		}

		res := a.SearchDocuments(ctx, query, topK)
		if wantJSON(req) {
			return jsonResult(documentsResult{
				Status:            string(res.Status),
				Documents:         res.Documents,
				FailedCollections: res.FailedCollections,
			})
		}
		return mcp.NewToolResultText(post.FormatDocuments(res.Documents)), nil
	}
}
