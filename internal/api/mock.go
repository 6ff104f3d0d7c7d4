package api

import (
	"context"

	"github.com/buildmart/haggle/internal/domain"
)

// MockBackend is a test double for Backend.
type MockBackend struct {
	StartFunc       func(ctx context.Context, token string) (*domain.Snapshot, error)
	SendMessageFunc func(ctx context.Context, token, message string) (*domain.Snapshot, error)
	StartNewFunc    func(ctx context.Context, token string) error
}

func (m *MockBackend) Start(ctx context.Context, token string) (*domain.Snapshot, error) {
	if m.StartFunc != nil {
		return m.StartFunc(ctx, token)
	}
	return &domain.Snapshot{}, nil
}

func (m *MockBackend) SendMessage(ctx context.Context, token, message string) (*domain.Snapshot, error) {
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, token, message)
	}
	return &domain.Snapshot{Turns: []domain.Turn{domain.UserTurn(message), domain.AssistantTurn("mock reply")}}, nil
}

func (m *MockBackend) StartNew(ctx context.Context, token string) error {
	if m.StartNewFunc != nil {
		return m.StartNewFunc(ctx, token)
	}
	return nil
}
