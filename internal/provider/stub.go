package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
)

const stubApp = `export default function App() {
  return (
    <main className="min-h-screen bg-gray-100 flex items-center justify-center p-8">
      <section className="bg-white rounded-lg shadow-md p-6 max-w-md">
        <h1 className="text-2xl font-bold mb-4">Sample Component</h1>
        <p className="text-gray-600 mb-4">
          No API key is configured, so this component came from the offline model.
        </p>
        <button className="bg-blue-500 text-white px-4 py-2 rounded hover:bg-blue-600 transition-colors">
          Click Me
        </button>
      </section>
    </main>
  );
}`

// Stub answers without a network: it creates /App.jsx on the first turn
// and finishes once it sees the tool result.
type Stub struct {
	calls atomic.Int64
}

func NewStub() *Stub {
	return &Stub{}
}

func (s *Stub) Name() string {
	return KindStub
}

func (s *Stub) Generate(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	n := s.calls.Add(1)

	if len(req.Messages) > 0 && req.Messages[len(req.Messages)-1].Role == RoleTool {
		return Response{
			Text: "Created /App.jsx. Configure an API key to generate components from your prompt.",
			Stop: StopEnd,
		}, nil
	}

	args, err := json.Marshal(map[string]string{
		"command":   "create",
		"path":      "/App.jsx",
		"file_text": stubApp,
	})
	if err != nil {
		return Response{}, err
	}
	return Response{
		Text: "No API key is configured. Creating a sample component.",
		ToolCalls: []ToolCall{{
			ID:        fmt.Sprintf("stub-call-%d", n),
			Name:      "str_replace_editor",
			Arguments: string(args),
		}},
		Stop: StopToolCalls,
	}, nil
}
