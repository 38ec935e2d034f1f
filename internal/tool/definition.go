package tool

// Name is the tool name the model calls.
const Name = "str_replace_editor"

// Definition describes the tool to a model provider.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

const description = `View, create and edit files in the project's virtual file system.
Paths are absolute from the project root, e.g. /App.jsx or /components/Button.jsx; the @/ alias is also accepted.
- view: show a file with 1-based line numbers, optionally limited by view_range [start, end] (end -1 reads to the end). Viewing a directory lists its entries.
- create: write file_text to path, replacing any existing file.
- str_replace: replace old_str with new_str. old_str must match exactly once.
- insert: insert new_str after line insert_line (0 inserts at the top).
- undo_edit: not supported.`

// Spec returns the tool definition with its JSON schema.
func Spec() Definition {
	return Definition{
		Name:        Name,
		Description: description,
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"command": map[string]any{
					"type": "string",
					"enum": CommandNames,
				},
				"path": map[string]any{
					"type":        "string",
					"description": "Absolute path of the file or directory.",
				},
				"file_text": map[string]any{
					"type":        "string",
					"description": "Full content for create.",
				},
				"insert_line": map[string]any{
					"type":        "integer",
					"description": "Line after which new_str is inserted for insert.",
				},
				"new_str": map[string]any{
					"type":        "string",
					"description": "Replacement text for str_replace, or the text to insert.",
				},
				"old_str": map[string]any{
					"type":        "string",
					"description": "Exact text to replace for str_replace.",
				},
				"view_range": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "integer"},
					"minItems":    2,
					"maxItems":    2,
					"description": "Optional [start, end] line range for view.",
				},
			},
			"required": []string{"command", "path"},
		},
	}
}
