package agent

import (
	"encoding/json"
	"strings"
)

// PendingCall is one TOOL_CALL directive found in a model response. Start and
// End are byte offsets of the whole directive within the response, RawParams
// the brace-delimited JSON object including braces' content.
type PendingCall struct {
	Name      string
	RawParams string
	Start     int
	End       int
}

const (
	toolCallMarker   = "TOOL_CALL:"
	toolResultMarker = "TOOL_RESULT:"
)

// ParseToolCalls scans response left to right for TOOL_CALL directives:
// the literal marker, optional whitespace, a tool name, optional whitespace
// and a brace-delimited JSON object. The object body is matched with a
// string-aware balanced-brace scan, so nested objects and braces inside
// string values are captured intact. Returns nil when nothing matches.
func ParseToolCalls(response string) []PendingCall {
	var calls []PendingCall
	offset := 0
	for {
		rel := strings.Index(response[offset:], toolCallMarker)
		if rel < 0 {
			return calls
		}
		start := offset + rel
		pos := start + len(toolCallMarker)
		pos = skipSpace(response, pos)

		nameStart := pos
		for pos < len(response) && isNameByte(response[pos]) {
			pos++
		}
		if pos == nameStart {
			offset = start + len(toolCallMarker)
			continue
		}
		name := response[nameStart:pos]
		pos = skipSpace(response, pos)

		body, end, ok := scanObject(response, pos)
		if !ok {
			offset = start + len(toolCallMarker)
			continue
		}
		calls = append(calls, PendingCall{
			Name:      name,
			RawParams: body,
			Start:     start,
			End:       end,
		})
		offset = end
	}
}

// scanObject matches a balanced JSON object starting at pos. It tracks string
// literals and backslash escapes so '}' inside values does not terminate the
// scan. Returns the object text including braces and the offset past it.
func scanObject(s string, pos int) (string, int, bool) {
	if pos >= len(s) || s[pos] != '{' {
		return "", 0, false
	}
	depth := 0
	inString := false
	escaped := false
	for i := pos; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[pos : i+1], i + 1, true
			}
		}
	}
	return "", 0, false
}

func skipSpace(s string, pos int) int {
	for pos < len(s) {
		switch s[pos] {
		case ' ', '\t', '\r', '\n':
			pos++
		default:
			return pos
		}
	}
	return pos
}

func isNameByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// SpliceResults replaces every directive span with the corresponding
// TOOL_RESULT line. Spans are replaced from the highest offset down so the
// recorded positions of earlier calls stay valid. calls and results must be
// index-aligned; extra results are ignored.
func SpliceResults(response string, calls []PendingCall, results []ToolResult) string {
	rebuilt := response
	for i := len(calls) - 1; i >= 0; i-- {
		if i >= len(results) {
			continue
		}
		call := calls[i]
		replacement := toolResultMarker + " " + call.Name + " " + buildResultJSON(call.Name, results[i])
		rebuilt = rebuilt[:call.Start] + replacement + rebuilt[call.End:]
	}
	return rebuilt
}

type resultPayload struct {
	Tool    string  `json:"tool"`
	Success bool    `json:"success"`
	Result  *any    `json:"result,omitempty"`
	Error   *string `json:"error,omitempty"`
}

// buildResultJSON renders the canonical result object echoed back to the
// model. A successful result carries "result" only when a value is present;
// a failure carries "error" instead. Encoding problems degrade to a
// hand-built failure object, so splicing itself cannot fail.
func buildResultJSON(toolName string, tr ToolResult) string {
	payload := resultPayload{Tool: toolName, Success: tr.Success}
	if tr.Success {
		if tr.Value != nil {
			value := tr.Value
			payload.Result = &value
		}
	} else {
		msg := tr.ErrorMessage
		payload.Error = &msg
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return `{"tool":"` + toolName + `","success":false,"error":"JSON encode error"}`
	}
	return string(data)
}
