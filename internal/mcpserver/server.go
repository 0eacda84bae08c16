package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/snappy-loop/tutor/internal/models"
)

// JSON-RPC 2.0 request
type jsonRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// JSON-RPC 2.0 response
type jsonRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *rpcError   `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// MCP tools/list result
type toolsListResult struct {
	Tools      []mcpTool `json:"tools"`
	NextCursor *string   `json:"nextCursor,omitempty"`
}

type mcpTool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema inputSchema `json:"inputSchema"`
}

type inputSchema struct {
	Type       string                `json:"type"`
	Properties map[string]schemaProp `json:"properties"`
	Required   []string              `json:"required,omitempty"`
}

type schemaProp struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// MCP tools/call result
type toolsCallResult struct {
	Content []contentItem `json:"content"`
	IsError bool          `json:"isError"`
}

type contentItem struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// Tutor answers chat turns.
type Tutor interface {
	SendMessage(ctx context.Context, req *models.SendMessageRequest) (*models.SendMessageResponse, error)
}

// Illustrator draws an SVG for a topic; it never fails.
type Illustrator interface {
	GenerateIllustration(ctx context.Context, topic, answerContext string) models.ImageResult
}

// Server implements MCP JSON-RPC 2.0 over HTTP (tools/list and tools/call).
type Server struct {
	tutor       Tutor
	illustrator Illustrator
}

// NewServer returns a new MCP server exposing the tutor and illustrator as tools.
func NewServer(tutor Tutor, illustrator Illustrator) *Server {
	return &Server{
		tutor:       tutor,
		illustrator: illustrator,
	}
}

// Handler returns the HTTP handler for JSON-RPC requests.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.serveJSONRPC)
}

func (s *Server) serveJSONRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req jsonRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRPCError(w, req.ID, -32700, "Parse error")
		return
	}
	if req.JSONRPC != "2.0" {
		writeRPCError(w, req.ID, -32600, "Invalid Request")
		return
	}

	var result interface{}
	var rpcErr *rpcError
	switch req.Method {
	case "tools/list":
		result, rpcErr = s.handleToolsList()
	case "tools/call":
		result, rpcErr = s.handleToolsCall(r.Context(), req.Params)
	default:
		writeRPCError(w, req.ID, -32601, "Method not found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if rpcErr != nil {
		json.NewEncoder(w).Encode(jsonRPCResponse{JSONRPC: "2.0", ID: req.ID, Error: rpcErr})
		return
	}
	json.NewEncoder(w).Encode(jsonRPCResponse{JSONRPC: "2.0", ID: req.ID, Result: result})
}

func (s *Server) handleToolsList() (interface{}, *rpcError) {
	return &toolsListResult{
		Tools: []mcpTool{
			{
				Name:        "ask_tutor",
				Description: "Ask the tutor a question and get a markdown answer, optionally illustrated",
				InputSchema: inputSchema{
					Type: "object",
					Properties: map[string]schemaProp{
						"question":       {Type: "string", Description: "The question to answer"},
						"marks":          {Type: "number", Description: "Answer depth in exam marks: 2, 5 or 7. Omit for a default answer"},
						"chat_id":        {Type: "string", Description: "Existing chat to continue"},
						"generate_image": {Type: "boolean", Description: "Also return an SVG illustration"},
					},
					Required: []string{"question"},
				},
			},
			{
				Name:        "generate_illustration",
				Description: "Generate an SVG illustration for a topic",
				InputSchema: inputSchema{
					Type: "object",
					Properties: map[string]schemaProp{
						"topic":   {Type: "string", Description: "What to illustrate"},
						"context": {Type: "string", Description: "Answer text the illustration should match"},
					},
					Required: []string{"topic"},
				},
			},
		},
	}, nil
}

type toolsCallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

func (s *Server) handleToolsCall(ctx context.Context, paramsRaw json.RawMessage) (interface{}, *rpcError) {
	var params toolsCallParams
	if err := json.Unmarshal(paramsRaw, &params); err != nil {
		return nil, &rpcError{Code: -32602, Message: "Invalid params"}
	}
	switch params.Name {
	case "ask_tutor":
		return s.callAskTutor(ctx, params.Arguments)
	case "generate_illustration":
		return s.callGenerateIllustration(ctx, params.Arguments)
	default:
		return nil, &rpcError{Code: -32602, Message: "Unknown tool: " + params.Name}
	}
}

func getStr(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getBool(m map[string]interface{}, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func toolError(err error) *toolsCallResult {
	return &toolsCallResult{
		Content: []contentItem{{Type: "text", Text: err.Error()}},
		IsError: true,
	}
}

func (s *Server) callAskTutor(ctx context.Context, args map[string]interface{}) (interface{}, *rpcError) {
	question := strings.TrimSpace(getStr(args, "question"))
	if question == "" {
		return nil, &rpcError{Code: -32602, Message: "question is required"}
	}
	detail, err := models.DetailLevelFromValue(args["marks"])
	if err != nil {
		return nil, &rpcError{Code: -32602, Message: err.Error()}
	}

	req := &models.SendMessageRequest{
		Question:      question,
		Detail:        detail,
		GenerateImage: getBool(args, "generate_image"),
	}
	if raw := getStr(args, "chat_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, &rpcError{Code: -32602, Message: "invalid chat_id"}
		}
		req.ChatID = &id
	}

	resp, err := s.tutor.SendMessage(ctx, req)
	if err != nil {
		log.Warn().Err(err).Msg("ask_tutor failed")
		return toolError(err), nil
	}

	content := []contentItem{
		{Type: "text", Text: resp.Content},
		{Type: "text", Text: fmt.Sprintf(`{"chat_id":%q,"message_id":%q}`, resp.ChatID, resp.MessageID)},
	}
	if resp.Image != nil {
		content = append(content, svgItem(resp.Image.SVGMarkup))
	}
	return &toolsCallResult{Content: content}, nil
}

func (s *Server) callGenerateIllustration(ctx context.Context, args map[string]interface{}) (interface{}, *rpcError) {
	topic := strings.TrimSpace(getStr(args, "topic"))
	if topic == "" {
		return nil, &rpcError{Code: -32602, Message: "topic is required"}
	}
	img := s.illustrator.GenerateIllustration(ctx, topic, getStr(args, "context"))
	return &toolsCallResult{
		Content: []contentItem{
			svgItem(img.SVGMarkup),
			{Type: "text", Text: "source: " + img.Source},
		},
	}, nil
}

func svgItem(svg string) contentItem {
	return contentItem{
		Type:     "image",
		Data:     base64.StdEncoding.EncodeToString([]byte(svg)),
		MimeType: "image/svg+xml",
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func writeRPCError(w http.ResponseWriter, id interface{}, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(jsonRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &rpcError{Code: code, Message: message},
	})
}
