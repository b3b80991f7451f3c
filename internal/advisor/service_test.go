package advisor

import (
	"context"
	"strings"
	"testing"

	pkgerrors "github.com/snaapconnections/storefront/pkg/errors"
)

type echoBot struct{ got string }

func (b *echoBot) AskBot(_ context.Context, message string) (string, error) {
	b.got = message
	return "Try the Galaxy A15 for " + message, nil
}

func TestAskValidatesMessage(t *testing.T) {
	b := &echoBot{}
	svc, err := NewService(b)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := svc.Ask(context.Background(), "   "); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for empty message, got %v", err)
	}
	if _, err := svc.Ask(context.Background(), strings.Repeat("é", MaxMessageLength+1)); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for long message, got %v", err)
	}
	if b.got != "" {
		t.Fatalf("bot must not be called for invalid input")
	}

	reply, err := svc.Ask(context.Background(), strings.Repeat("é", MaxMessageLength))
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if reply == "" {
		t.Fatalf("expected reply")
	}
}
