package advisor

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	pkgerrors "github.com/snaapconnections/storefront/pkg/errors"
)

// MaxMessageLength bounds a shopper question in characters.
const MaxMessageLength = 500

type bot interface {
	AskBot(ctx context.Context, message string) (string, error)
}

type Service interface {
	Ask(ctx context.Context, message string) (string, error)
}

type service struct {
	bot bot
}

func NewService(b bot) (Service, error) {
	if b == nil {
		return nil, fmt.Errorf("product bot client required")
	}
	return &service{bot: b}, nil
}

func (s *service) Ask(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "message is required")
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "message is too long").
			WithDetails(map[string]any{"maxLength": MaxMessageLength})
	}
	reply, err := s.bot.AskBot(ctx, message)
	if err != nil {
		return "", err
	}
	return reply, nil
}
