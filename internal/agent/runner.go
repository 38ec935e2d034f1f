package agent

import (
	"context"
	"fmt"
	"strings"

	"uigen/internal/logging"
	"uigen/internal/metrics"
	"uigen/internal/project"
	"uigen/internal/provider"
	"uigen/internal/session"
	"uigen/internal/tool"

	"go.uber.org/zap"
)

// StopMaxSteps ends a run that used up its step budget.
const StopMaxSteps provider.StopReason = "max_steps"

// Call records one tool call and its outcome.
type Call struct {
	ID        string      `json:"id"`
	Arguments string      `json:"arguments"`
	Result    tool.Result `json:"result"`
}

type Outcome struct {
	Text  string              `json:"text"`
	Steps int                 `json:"steps"`
	Stop  provider.StopReason `json:"stop"`
	Calls []Call              `json:"calls"`
	Files []string            `json:"files"`
}

// Runner drives a model against a session until the model stops calling
// tools or the step budget runs out.
type Runner struct {
	model    provider.Model
	maxSteps int
	system   string
	logger   *logging.Logger
}

func NewRunner(model provider.Model, maxSteps int, system string, logger *logging.Logger) *Runner {
	if maxSteps <= 0 {
		maxSteps = 1
	}
	if system == "" {
		system = DefaultSystemPrompt
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Runner{model: model, maxSteps: maxSteps, system: system, logger: logger}
}

func (r *Runner) Run(ctx context.Context, s *session.Session, prompt string) (*Outcome, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("prompt is required")
	}
	log := r.logger.WithRequestID(ctx).With(zap.String("session_id", s.ID), zap.String("model", r.model.Name()))

	msgs := history(s.Messages())
	msgs = append(msgs, provider.Message{Role: provider.RoleUser, Content: prompt})

	def := tool.Spec()
	tools := []provider.ToolSpec{{Name: def.Name, Description: def.Description, Parameters: def.Parameters}}

	out := &Outcome{}
	var texts []string
	for out.Steps < r.maxSteps {
		resp, err := r.model.Generate(ctx, provider.Request{
			System:   r.system + "\n\nCurrent files:\n" + tool.Summary(s.FileSystem()),
			Messages: msgs,
			Tools:    tools,
		})
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", out.Steps+1, err)
		}
		out.Steps++
		metrics.GenerationSteps.WithLabelValues(r.model.Name(), string(resp.Stop)).Inc()

		if resp.Text != "" {
			texts = append(texts, resp.Text)
		}
		msgs = append(msgs, provider.Message{Role: provider.RoleAssistant, Content: resp.Text, ToolCalls: resp.ToolCalls})

		if len(resp.ToolCalls) == 0 {
			out.Stop = resp.Stop
			break
		}

		for _, call := range resp.ToolCalls {
			res := r.call(ctx, s, call)
			out.Calls = append(out.Calls, Call{ID: call.ID, Arguments: call.Arguments, Result: res})
			msgs = append(msgs, provider.Message{Role: provider.RoleTool, ToolCallID: call.ID, Content: res.Text})
			log.Debug("tool call",
				zap.String("command", res.Command),
				zap.String("path", res.Path),
				zap.Bool("is_error", res.IsError),
			)
		}
		out.Stop = StopMaxSteps
	}

	out.Text = strings.Join(texts, "\n\n")
	out.Files = s.Paths()
	s.AppendMessages(
		project.Message{Role: string(provider.RoleUser), Content: prompt},
		project.Message{Role: string(provider.RoleAssistant), Content: out.Text},
	)

	log.Info("generation finished",
		zap.Int("steps", out.Steps),
		zap.Int("tool_calls", len(out.Calls)),
		zap.String("stop", string(out.Stop)),
	)
	return out, nil
}

func (r *Runner) call(ctx context.Context, s *session.Session, call provider.ToolCall) tool.Result {
	if call.Name != tool.Name {
		return tool.Result{Text: fmt.Sprintf("Error: unknown tool %q. The only tool is %s.", call.Name, tool.Name), IsError: true}
	}
	return s.Run(ctx, []byte(call.Arguments))
}

// history replays saved conversation text. Tool traffic is not kept.
func history(saved []project.Message) []provider.Message {
	out := make([]provider.Message, 0, len(saved)+1)
	for _, m := range saved {
		switch provider.Role(m.Role) {
		case provider.RoleUser, provider.RoleAssistant:
			if m.Content != "" {
				out = append(out, provider.Message{Role: provider.Role(m.Role), Content: m.Content})
			}
		}
	}
	return out
}
