package llm

import (
	"context"
	"encoding/json"
)

// DefaultMaxFiles is the selector's own cap on returned paths.
const DefaultMaxFiles = 25

// SelectFiles asks the selection model which paths of dirTree to read. The
// result keeps the model's order, drops non-string items, and holds at most
// maxFiles paths. Paths are not checked against the tree here.
func (c *Client) SelectFiles(ctx context.Context, dirTree, readme string, maxFiles int) ([]string, error) {
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}

	text, err := c.complete(ctx, c.SelectionTimeout, c.selectionModel,
		fileSelectionSystem(maxFiles), fileSelectionUser(dirTree, readme), zeroTemperature)
	if err != nil {
		return nil, errorf(err, "LLM file selection request failed")
	}
	if text == "" {
		return nil, errorf(nil, "LLM returned empty response for file selection")
	}

	var data map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, errorf(err, "LLM returned invalid JSON for file selection")
	}
	var items []any
	raw, ok := data["files"]
	if !ok || json.Unmarshal(raw, &items) != nil || items == nil {
		return nil, errorf(nil, "LLM did not return a 'files' list")
	}

	files := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			files = append(files, s)
		}
	}
	if len(files) > maxFiles {
		files = files[:maxFiles]
	}
	return files, nil
}
