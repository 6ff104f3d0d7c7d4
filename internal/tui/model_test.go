package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildmart/haggle/internal/api"
	"github.com/buildmart/haggle/internal/chat"
	"github.com/buildmart/haggle/internal/domain"
	"github.com/buildmart/haggle/internal/logging"
	"github.com/buildmart/haggle/internal/store"
)

func silentLog() *logging.Logger {
	return logging.New(nil, "silent")
}

func testSession() domain.Session {
	return domain.Session{Token: "tok-1", BuilderName: "Acme Builders"}
}

// readyModel builds a model whose controller has already completed its
// initial start call against the given backend.
func readyModel(t *testing.T, backend *api.MockBackend) Model {
	t.Helper()
	ctrl := chat.New(backend, testSession(), silentLog())
	fn := ctrl.Init()
	require.NotNil(t, fn)
	ctrl.ApplyInit(fn(context.Background()))
	require.True(t, ctrl.Ready())
	return New(ctrl, store.NewMemorySessionStore(), "", silentLog())
}

func press(t *testing.T, m Model, key tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(key)
	return next.(Model), cmd
}

// apply executes a command synchronously and feeds its message back.
func apply(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	return next.(Model)
}

func enter() tea.KeyMsg  { return tea.KeyMsg{Type: tea.KeyEnter} }
func ctrlR() tea.KeyMsg  { return tea.KeyMsg{Type: tea.KeyCtrlR} }
func ctrlD() tea.KeyMsg  { return tea.KeyMsg{Type: tea.KeyCtrlD} }
func escKey() tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyEsc} }

// --- send tests ---

func TestEnterSendsTypedMessage(t *testing.T) {
	m := readyModel(t, &api.MockBackend{})
	m.input.SetValue("I need 500 bags of ACC cement")

	m, cmd := press(t, m, enter())
	require.NotNil(t, cmd)
	assert.True(t, m.ctrl.Busy())
	assert.Equal(t, "", m.input.Value())
	require.Len(t, m.ctrl.Transcript(), 1)
	assert.Equal(t, "I need 500 bags of ACC cement", m.ctrl.Transcript()[0].Content)

	m = apply(t, m, cmd)
	assert.False(t, m.ctrl.Busy())
	assert.Len(t, m.ctrl.Transcript(), 2)
}

func TestEnterWhileBusyIsANoOp(t *testing.T) {
	m := readyModel(t, &api.MockBackend{})
	m.input.SetValue("first")
	m, cmd := press(t, m, enter())
	require.NotNil(t, cmd)

	m.input.SetValue("second")
	m, cmd2 := press(t, m, enter())
	assert.Nil(t, cmd2)
	assert.Equal(t, "second", m.input.Value())
	assert.Len(t, m.ctrl.Transcript(), 1)
}

func TestEnterWithBlankInputIsANoOp(t *testing.T) {
	m := readyModel(t, &api.MockBackend{})
	m.input.SetValue("   ")

	m, cmd := press(t, m, enter())
	assert.Nil(t, cmd)
	assert.False(t, m.ctrl.Busy())
	assert.Empty(t, m.ctrl.Transcript())
}

func TestTypingReachesInput(t *testing.T) {
	m := readyModel(t, &api.MockBackend{})

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hi")})
	assert.Equal(t, "hi", m.input.Value())
}

func TestSendFailureRestoresInput(t *testing.T) {
	backend := &api.MockBackend{
		SendMessageFunc: func(ctx context.Context, token, message string) (*domain.Snapshot, error) {
			return nil, &api.APIError{Message: "offer too low to consider"}
		},
	}
	m := readyModel(t, backend)
	m.input.SetValue("1 per bag")

	m, cmd := press(t, m, enter())
	m = apply(t, m, cmd)

	assert.Equal(t, "offer too low to consider", m.ctrl.ErrMessage())
	assert.Equal(t, "1 per bag", m.input.Value())
	assert.Empty(t, m.ctrl.Transcript())
	assert.Contains(t, m.View(), "offer too low to consider")
}

func TestSendFailureKeepsFreshTyping(t *testing.T) {
	backend := &api.MockBackend{
		SendMessageFunc: func(ctx context.Context, token, message string) (*domain.Snapshot, error) {
			return nil, errors.New("dial tcp: connection refused")
		},
	}
	m := readyModel(t, backend)
	m.input.SetValue("50 bags")
	m, cmd := press(t, m, enter())

	// The builder started typing again before the failure came back.
	m.input.SetValue("replacement text")
	m = apply(t, m, cmd)

	assert.Equal(t, "replacement text", m.input.Value())
	assert.NotEmpty(t, m.ctrl.ErrMessage())
}

// --- terminal state tests ---

func TestEndedDisablesInput(t *testing.T) {
	backend := &api.MockBackend{
		SendMessageFunc: func(ctx context.Context, token, message string) (*domain.Snapshot, error) {
			return &domain.Snapshot{
				Turns: []domain.Turn{domain.UserTurn(message), domain.AssistantTurn("Deal!")},
				Ended: true,
			}, nil
		},
	}
	m := readyModel(t, backend)
	m.input.SetValue("deal")
	m, cmd := press(t, m, enter())
	m = apply(t, m, cmd)

	require.True(t, m.ctrl.Ended())
	assert.False(t, m.input.Focused())
	assert.Contains(t, m.View(), "negotiation closed")
	assert.Contains(t, m.helpLine(), "new negotiation")

	m.input.SetValue("one more thing")
	_, cmd = press(t, m, enter())
	assert.Nil(t, cmd)
}

func TestCtrlRRestarts(t *testing.T) {
	startNewCalls := 0
	backend := &api.MockBackend{
		StartFunc: func(ctx context.Context, token string) (*domain.Snapshot, error) {
			return &domain.Snapshot{Turns: []domain.Turn{
				domain.UserTurn("hello"),
				domain.AssistantTurn("What do you need?"),
			}}, nil
		},
		StartNewFunc: func(ctx context.Context, token string) error {
			startNewCalls++
			return nil
		},
	}
	m := readyModel(t, backend)
	require.Len(t, m.ctrl.Transcript(), 2)

	m, cmd := press(t, m, ctrlR())
	require.NotNil(t, cmd)
	assert.True(t, m.ctrl.Busy())

	m = apply(t, m, cmd)
	assert.Equal(t, 1, startNewCalls)
	assert.True(t, m.ctrl.Ready())
	assert.True(t, m.input.Focused())
}

func TestCtrlRWhileBusyIsANoOp(t *testing.T) {
	m := readyModel(t, &api.MockBackend{})
	m.input.SetValue("hold on")
	m, cmd := press(t, m, enter())
	require.NotNil(t, cmd)

	_, cmd2 := press(t, m, ctrlR())
	assert.Nil(t, cmd2)
}

func TestRestartAfterEndedReopensInput(t *testing.T) {
	backend := &api.MockBackend{
		SendMessageFunc: func(ctx context.Context, token, message string) (*domain.Snapshot, error) {
			return &domain.Snapshot{
				Turns: []domain.Turn{domain.UserTurn(message), domain.AssistantTurn("Deal!")},
				Ended: true,
			}, nil
		},
	}
	m := readyModel(t, backend)
	m.input.SetValue("deal")
	m, cmd := press(t, m, enter())
	m = apply(t, m, cmd)
	require.True(t, m.ctrl.Ended())

	m, cmd = press(t, m, ctrlR())
	m = apply(t, m, cmd)

	assert.False(t, m.ctrl.Ended())
	assert.True(t, m.input.Focused())
	assert.Empty(t, m.ctrl.Transcript())
}

// --- quit and logout tests ---

func TestCtrlDLogsOutAndClearsSession(t *testing.T) {
	sessions := store.NewMemorySessionStore()
	require.NoError(t, sessions.Save(testSession()))

	ctrl := chat.New(&api.MockBackend{}, testSession(), silentLog())
	fn := ctrl.Init()
	ctrl.ApplyInit(fn(context.Background()))
	m := New(ctrl, sessions, "", silentLog())

	m, cmd := press(t, m, ctrlD())
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.LoggedOut())
	assert.False(t, m.ctrl.Ready())

	sess, err := sessions.Load()
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestEscQuitsKeepingSession(t *testing.T) {
	sessions := store.NewMemorySessionStore()
	require.NoError(t, sessions.Save(testSession()))

	ctrl := chat.New(&api.MockBackend{}, testSession(), silentLog())
	fn := ctrl.Init()
	ctrl.ApplyInit(fn(context.Background()))
	m := New(ctrl, sessions, "", silentLog())

	m, cmd := press(t, m, escKey())
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.False(t, m.LoggedOut())

	sess, err := sessions.Load()
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "tok-1", sess.Token)
}

// --- rendering tests ---

func TestInitFailureShowsErrorAndStaysUsable(t *testing.T) {
	backend := &api.MockBackend{
		StartFunc: func(ctx context.Context, token string) (*domain.Snapshot, error) {
			return nil, errors.New("dial tcp: connection refused")
		},
	}
	m := readyModel(t, backend)

	assert.Contains(t, m.View(), "network error, please try again")
	assert.Empty(t, m.ctrl.Transcript())

	m.input.SetValue("hello")
	_, cmd := press(t, m, enter())
	assert.NotNil(t, cmd)
}

func TestTranscriptContentEmpty(t *testing.T) {
	m := readyModel(t, &api.MockBackend{})
	assert.Contains(t, m.transcriptContent(), "No messages yet")
}

func TestTranscriptContentShowsBothRoles(t *testing.T) {
	backend := &api.MockBackend{
		StartFunc: func(ctx context.Context, token string) (*domain.Snapshot, error) {
			return &domain.Snapshot{Turns: []domain.Turn{
				domain.UserTurn("500 bags of cement"),
				domain.AssistantTurn("My rate is 350 per bag."),
			}}, nil
		},
	}
	m := readyModel(t, backend)

	content := m.transcriptContent()
	assert.Contains(t, content, "500 bags of cement")
	assert.Contains(t, content, "My rate is 350 per bag.")
}

func TestStatusLineWhileBusy(t *testing.T) {
	m := readyModel(t, &api.MockBackend{})
	m.input.SetValue("ping")
	m, _ = press(t, m, enter())

	assert.Contains(t, m.statusLine(), "waiting for BuildMart")
}

func TestWindowResize(t *testing.T) {
	m := readyModel(t, &api.MockBackend{})

	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = next.(Model)

	assert.Equal(t, 100, m.transcript.Width)
	assert.Equal(t, 36, m.transcript.Height)
	assert.NotEmpty(t, m.View())
}

func TestViewIncludesBuilderName(t *testing.T) {
	m := readyModel(t, &api.MockBackend{})
	assert.Contains(t, m.View(), "Acme Builders")
}
