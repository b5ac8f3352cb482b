package assistant

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/stoodioz/stoodioz-api/internal/pkg/gemini"
)

// Action is what the assistant resolved a free-text command into.
type Action string

const (
	ActionNavigate     Action = "navigate"
	ActionFindStoodioz Action = "find_stoodioz"
	ActionDraftDoc     Action = "create_document"
	ActionSignupHelp   Action = "assist_signup"
	ActionNone         Action = "none"
)

// Command is the parsed assistant command handed back to the client.
type Command struct {
	Action Action            `json:"action"`
	Params map[string]string `json:"params,omitempty"`
	Reply  string            `json:"reply,omitempty"`
}

// Generator is the slice of the Gemini client the assistant uses.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateFunctionCall(ctx context.Context, prompt string, tools []gemini.FunctionDeclaration) (*gemini.FunctionCall, error)
}

type Service struct {
	client Generator
}

func NewService(client Generator) *Service {
	return &Service{client: client}
}

var commandTools = []gemini.FunctionDeclaration{
	{
		Name:        string(ActionNavigate),
		Description: "Navigate the user to a page of the app",
		Parameters:  json.RawMessage(`{"type":"object","properties":{"destination":{"type":"string"}},"required":["destination"]}`),
	},
	{
		Name:        string(ActionFindStoodioz),
		Description: "Search recording stoodioz by city or name",
		Parameters:  json.RawMessage(`{"type":"object","properties":{"city":{"type":"string"},"query":{"type":"string"}}}`),
	},
	{
		Name:        string(ActionDraftDoc),
		Description: "Draft a document such as a session agreement or split sheet",
		Parameters:  json.RawMessage(`{"type":"object","properties":{"kind":{"type":"string"},"details":{"type":"string"}}}`),
	},
	{
		Name:        string(ActionSignupHelp),
		Description: "Help the user pick a role and finish signing up",
		Parameters:  json.RawMessage(`{"type":"object","properties":{"role":{"type":"string"}}}`),
	},
}

// ParseCommand resolves free text into an app action via function calling.
// Assistant failures degrade to ActionNone with an empty reply so callers
// never surface a hard error for a convenience feature.
func (s *Service) ParseCommand(ctx context.Context, text string) *Command {
	text = strings.TrimSpace(text)
	if text == "" {
		return &Command{Action: ActionNone}
	}

	call, err := s.client.GenerateFunctionCall(ctx, text, commandTools)
	if err != nil {
		log.Warn().Err(err).Msg("assistant command parsing failed")
		return &Command{Action: ActionNone}
	}
	if call == nil {
		// Model answered in prose, pass it through.
		reply, err := s.client.GenerateText(ctx, text)
		if err != nil {
			log.Warn().Err(err).Msg("assistant reply generation failed")
			return &Command{Action: ActionNone}
		}
		return &Command{Action: ActionNone, Reply: reply}
	}

	params := make(map[string]string)
	if len(call.Args) > 0 {
		if err := json.Unmarshal(call.Args, &params); err != nil {
			log.Warn().Err(err).Str("function", call.Name).Msg("assistant returned non-string args")
		}
	}

	switch Action(call.Name) {
	case ActionNavigate, ActionFindStoodioz, ActionDraftDoc, ActionSignupHelp:
		return &Command{Action: Action(call.Name), Params: params}
	default:
		return &Command{Action: ActionNone}
	}
}

// SuggestReplies produces up to three short replies for a conversation tail.
func (s *Service) SuggestReplies(ctx context.Context, messages []string) ([]string, error) {
	if len(messages) == 0 {
		return []string{}, nil
	}

	var b strings.Builder
	b.WriteString("Suggest up to three short replies to this studio session chat, one per line, no numbering:\n")
	for _, m := range messages {
		b.WriteString(m)
		b.WriteByte('\n')
	}

	text, err := s.client.GenerateText(ctx, b.String())
	if err != nil {
		return nil, err
	}

	replies := make([]string, 0, 3)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		replies = append(replies, line)
		if len(replies) == 3 {
			break
		}
	}
	return replies, nil
}
