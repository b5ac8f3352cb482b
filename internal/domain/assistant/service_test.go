package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stoodioz/stoodioz-api/internal/pkg/gemini"
)

type generatorStub struct {
	text     string
	textErr  error
	call     *gemini.FunctionCall
	callErr  error
	lastText string
}

func (g *generatorStub) GenerateText(_ context.Context, prompt string) (string, error) {
	g.lastText = prompt
	return g.text, g.textErr
}

func (g *generatorStub) GenerateFunctionCall(_ context.Context, _ string, _ []gemini.FunctionDeclaration) (*gemini.FunctionCall, error) {
	return g.call, g.callErr
}

func TestParseCommandResolvesFunctionCall(t *testing.T) {
	svc := NewService(&generatorStub{
		call: &gemini.FunctionCall{
			Name: "find_stoodioz",
			Args: json.RawMessage(`{"city":"Atlanta"}`),
		},
	})

	cmd := svc.ParseCommand(context.Background(), "find me a studio in atlanta")
	if cmd.Action != ActionFindStoodioz {
		t.Errorf("action = %s, want find_stoodioz", cmd.Action)
	}
	if cmd.Params["city"] != "Atlanta" {
		t.Errorf("params = %v, want city Atlanta", cmd.Params)
	}
}

func TestParseCommandDegradesOnError(t *testing.T) {
	svc := NewService(&generatorStub{callErr: errors.New("quota exceeded")})

	cmd := svc.ParseCommand(context.Background(), "do something")
	if cmd.Action != ActionNone {
		t.Errorf("action = %s, want none on assistant failure", cmd.Action)
	}
}

func TestParseCommandPassesThroughProse(t *testing.T) {
	svc := NewService(&generatorStub{text: "You can book from the stoodio page."})

	cmd := svc.ParseCommand(context.Background(), "how do I book")
	if cmd.Action != ActionNone {
		t.Errorf("action = %s, want none", cmd.Action)
	}
	if cmd.Reply == "" {
		t.Error("expected a prose reply")
	}
}

func TestParseCommandIgnoresUnknownFunction(t *testing.T) {
	svc := NewService(&generatorStub{
		call: &gemini.FunctionCall{Name: "delete_everything"},
	})

	cmd := svc.ParseCommand(context.Background(), "hm")
	if cmd.Action != ActionNone {
		t.Errorf("action = %s, want none for unknown function", cmd.Action)
	}
}

func TestSuggestRepliesCapsAtThree(t *testing.T) {
	svc := NewService(&generatorStub{text: "Sounds good\nSee you there\nRunning late\nFourth line"})

	replies, err := svc.SuggestReplies(context.Background(), []string{"session at 6?"})
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(replies) != 3 {
		t.Fatalf("replies = %v, want 3", replies)
	}
}

func TestSuggestRepliesEmptyConversation(t *testing.T) {
	svc := NewService(&generatorStub{})

	replies, err := svc.SuggestReplies(context.Background(), nil)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(replies) != 0 {
		t.Errorf("replies = %v, want empty", replies)
	}
}
