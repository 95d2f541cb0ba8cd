package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// StreamResult holds what a stream-json response reported besides its text.
type StreamResult struct {
	Text      string
	CostUSD   float64
	SessionID string
	IsError   bool
}

// StreamJSON reads claude's stream-json output and emits the text deltas.
type StreamJSON struct {
	Label string
	R     io.Reader
	// Log, when set, receives the text as it streams.
	Log io.Writer
	// OnTool, when set, is told about each tool call the model makes.
	OnTool func(name, summary string)

	result StreamResult
}

func (s *StreamJSON) Name() string {
	if s.Label == "" {
		return "stream-json"
	}
	return s.Label
}

func (s *StreamJSON) Stream(ctx context.Context, emit func(string)) error {
	res, err := processStream(ctx, s.R, emit, s.Log, s.OnTool)
	if res != nil {
		s.result = *res
	}
	return err
}

// Result returns the final result event after Stream returned.
func (s *StreamJSON) Result() StreamResult {
	return s.result
}

type streamState struct {
	toolName string
	inputBuf strings.Builder
}

// processStream reads stream-json lines, hands each text delta to emit and
// the log, tracks tool use for display, and extracts the final result.
// Malformed lines are skipped.
func processStream(ctx context.Context, r io.Reader, emit func(string), logFile io.Writer, onTool func(string, string)) (*StreamResult, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 256*1024), 4*1024*1024)

	var result StreamResult
	var textBuf strings.Builder
	var ss streamState
	sawDelta := false

	for scanner.Scan() {
		if ctx.Err() != nil {
			result.Text = textBuf.String()
			return &result, ctx.Err()
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var event streamEvent
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}

		switch event.Type {
		case "stream_event":
			text, ok := handleStreamEvent(&event, &ss, onTool)
			if !ok {
				continue
			}
			sawDelta = true
			textBuf.WriteString(text)
			if logFile != nil {
				fmt.Fprint(logFile, text)
			}
			if emit != nil {
				emit(text)
			}

		case "assistant":
			// Without partial messages the text only arrives whole.
			if sawDelta {
				continue
			}
			if text := assistantText(&event); text != "" {
				textBuf.WriteString(text)
				if logFile != nil {
					fmt.Fprint(logFile, text)
				}
				if emit != nil {
					emit(text)
				}
			}

		case "result":
			handleResultEvent(&event, &result)
		}
	}

	result.Text = textBuf.String()
	if err := scanner.Err(); err != nil {
		return &result, fmt.Errorf("reading stream: %w", err)
	}
	return &result, nil
}

// streamEvent is the top-level JSON structure of stream-json output.
type streamEvent struct {
	Type      string          `json:"type"`
	Subtype   string          `json:"subtype"`
	Event     json.RawMessage `json:"event"`
	Message   *messageBody    `json:"message"`
	SessionID string          `json:"session_id"`
	Result    json.RawMessage `json:"result"`
	CostUSD   float64         `json:"cost_usd"`
	TotalCost float64         `json:"total_cost_usd"`
	IsError   bool            `json:"is_error"`
}

type messageBody struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

type nestedEvent struct {
	Type         string        `json:"type"`
	ContentBlock *contentBlock `json:"content_block"`
	Delta        *deltaBlock   `json:"delta"`
}

type deltaBlock struct {
	Type        string `json:"type"`
	Text        string `json:"text"`
	PartialJSON string `json:"partial_json"`
}

// handleStreamEvent returns the text of a text delta. Tool-use blocks are
// accumulated and reported through onTool when they stop.
func handleStreamEvent(event *streamEvent, ss *streamState, onTool func(string, string)) (string, bool) {
	if event.Event == nil {
		return "", false
	}
	var nested nestedEvent
	if err := json.Unmarshal(event.Event, &nested); err != nil {
		return "", false
	}

	switch nested.Type {
	case "content_block_start":
		if nested.ContentBlock != nil && nested.ContentBlock.Type == "tool_use" {
			ss.toolName = nested.ContentBlock.Name
			ss.inputBuf.Reset()
		}

	case "content_block_delta":
		if nested.Delta == nil {
			return "", false
		}
		switch nested.Delta.Type {
		case "text_delta":
			return nested.Delta.Text, nested.Delta.Text != ""
		case "input_json_delta":
			ss.inputBuf.WriteString(nested.Delta.PartialJSON)
		}

	case "content_block_stop":
		if ss.toolName != "" {
			if onTool != nil {
				onTool(ss.toolName, toolUseSummary(ss.toolName, ss.inputBuf.String()))
			}
			ss.toolName = ""
			ss.inputBuf.Reset()
		}
	}
	return "", false
}

func assistantText(event *streamEvent) string {
	if event.Message == nil {
		return ""
	}
	var b strings.Builder
	for _, block := range event.Message.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

// toolUseSummary extracts the most informative field from accumulated tool input JSON.
func toolUseSummary(toolName, rawJSON string) string {
	if rawJSON == "" {
		return ""
	}
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(rawJSON), &obj); err != nil {
		return rawJSON
	}

	var key string
	switch toolName {
	case "Bash":
		key = "command"
	case "Read", "Write", "Edit":
		key = "file_path"
	case "Grep", "Glob":
		key = "pattern"
	case "WebFetch":
		key = "url"
	default:
		for _, v := range obj {
			if s, ok := v.(string); ok {
				return s
			}
		}
		return rawJSON
	}
	if v, ok := obj[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return rawJSON
}

func handleResultEvent(event *streamEvent, result *StreamResult) {
	result.IsError = event.IsError
	if event.SessionID != "" {
		result.SessionID = event.SessionID
	}
	switch {
	case event.TotalCost > 0:
		result.CostUSD = event.TotalCost
	case event.CostUSD > 0:
		result.CostUSD = event.CostUSD
	}

	// Older CLIs nest the payload in an object.
	if len(event.Result) > 0 && event.Result[0] == '{' {
		var payload struct {
			CostUSD   float64 `json:"cost_usd"`
			SessionID string  `json:"session_id"`
		}
		if err := json.Unmarshal(event.Result, &payload); err == nil {
			if payload.CostUSD > 0 {
				result.CostUSD = payload.CostUSD
			}
			if payload.SessionID != "" {
				result.SessionID = payload.SessionID
			}
		}
	}
}
