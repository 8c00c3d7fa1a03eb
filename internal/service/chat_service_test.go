package service

import (
	"context"
	"net/http"
	"testing"

	"go.uber.org/zap"

	"github.com/educa-pb/demandas-service/internal/client"
	apperrors "github.com/educa-pb/demandas-service/pkg/util/errorutil"
)

type fakeRelay struct {
	reply string
	err   error
}

func (f fakeRelay) Ask(context.Context, string) (string, error) {
	return f.reply, f.err
}

func TestChatAsk(t *testing.T) {
	reply, err := NewChatService(fakeRelay{reply: "Olá"}, nil, zap.NewNop()).Ask(context.Background(), "oi")
	if err != nil || reply != "Olá" {
		t.Fatalf("unexpected %q %v", reply, err)
	}

	reply, err = NewChatService(fakeRelay{}, nil, zap.NewNop()).Ask(context.Background(), "oi")
	if err != nil || reply != DefaultChatReply {
		t.Fatalf("empty output should use the default reply, got %q %v", reply, err)
	}
}

func TestChatErrors(t *testing.T) {
	ctx := context.Background()

	_, err := NewChatService(fakeRelay{}, nil, zap.NewNop()).Ask(ctx, "  ")
	requireCode(t, err, apperrors.CodeValidation)

	_, err = NewChatService(fakeRelay{err: client.ErrNotConfigured}, nil, zap.NewNop()).Ask(ctx, "oi")
	requireCode(t, err, apperrors.CodeUpstreamUnavailable)
	if apperrors.ToDomainError(err).HTTPStatus != http.StatusServiceUnavailable {
		t.Fatalf("unconfigured chat should be 503, got %v", err)
	}

	counter := &upstreamCounter{}
	_, err = NewChatService(fakeRelay{err: errUpstream}, counter, zap.NewNop()).Ask(ctx, "oi")
	if apperrors.ToDomainError(err).HTTPStatus != http.StatusBadGateway {
		t.Fatalf("failed chat should be 502, got %v", err)
	}
	if counter.count["chat_webhook"] != 1 {
		t.Fatal("failure should be recorded")
	}
}
