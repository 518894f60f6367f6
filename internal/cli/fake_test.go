package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Backland-Labs/travelbuddy/internal/assistant"
	"github.com/Backland-Labs/travelbuddy/internal/config"
	"github.com/Backland-Labs/travelbuddy/internal/output"
	"github.com/Backland-Labs/travelbuddy/internal/settings"
)

// stubLoader returns a fixed configuration
type stubLoader struct {
	cfg *config.Config
	err error
}

func (s *stubLoader) Load() (*config.Config, error) {
	return s.cfg, s.err
}

// stubClient answers every run with a completed status and a single reply
type stubClient struct {
	knownAssistant string
	reply          string
	posted         []string
}

func (s *stubClient) GetAssistant(ctx context.Context, assistantID string) (*assistant.Assistant, error) {
	if assistantID != s.knownAssistant {
		return nil, &assistant.RemoteError{StatusCode: 404, Message: "No assistant found"}
	}
	return &assistant.Assistant{ID: assistantID}, nil
}

func (s *stubClient) CreateThread(ctx context.Context) (string, error) {
	return "thread_1", nil
}

func (s *stubClient) PostMessage(ctx context.Context, threadID, content string) error {
	s.posted = append(s.posted, content)
	return nil
}

func (s *stubClient) StartRun(ctx context.Context, threadID, assistantID string) (*assistant.Run, error) {
	return &assistant.Run{ID: "run_1", ThreadID: threadID, Status: assistant.StatusQueued}, nil
}

func (s *stubClient) GetRun(ctx context.Context, threadID, runID string) (*assistant.Run, error) {
	return &assistant.Run{ID: runID, ThreadID: threadID, Status: assistant.StatusCompleted}, nil
}

func (s *stubClient) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []assistant.ToolOutput) (*assistant.Run, error) {
	return nil, errors.New("unexpected tool outputs")
}

func (s *stubClient) ListMessages(ctx context.Context, threadID string) ([]assistant.Message, error) {
	return []assistant.Message{{
		ID:        "msg_1",
		Role:      "assistant",
		CreatedAt: 1,
		Content:   []assistant.ContentPart{{Type: assistant.ContentTypeText, Text: s.reply}},
	}}, nil
}

// testEnv bundles a command under test with its captured streams
type testEnv struct {
	cfg    *config.Config
	client *stubClient
	deps   *Dependencies
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("TRAVELBUDDY_LOG_LEVEL", "error")

	cfg := &config.Config{
		SettingsFile:  filepath.Join(t.TempDir(), settings.DefaultFile),
		Poll:          config.PollConfig{Delay: time.Millisecond, MaxAttempts: 3},
		MaxConcurrent: 1,
		Breaker:       config.BreakerConfig{Threshold: 5, Cooldown: time.Second},
		Server:        config.ServerConfig{Port: 3001, RateLimit: "30-M", NonceRateLimit: "60-M", NonceTTL: time.Hour},
	}
	client := &stubClient{knownAssistant: "asst_1", reply: `{"city":"San Francisco","bedrooms":2}`}

	env := &testEnv{cfg: cfg, client: client, stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	env.deps = &Dependencies{
		ConfigLoader: &stubLoader{cfg: cfg},
		Clients: func(*config.Config) assistant.Factory {
			return assistant.FactoryFunc(func(string) assistant.Client { return client })
		},
		NewPrinter: func(out, err io.Writer) *output.Printer {
			return output.NewPrinterWithWriters(out, err, false)
		},
	}
	return env
}

// saveCredentials stores credentials the way `settings set` would
func (e *testEnv) saveCredentials(t *testing.T, apiKey, assistantID string) {
	t.Helper()
	require.NoError(t, settings.Save(e.cfg.SettingsFile, &settings.Settings{APIKey: apiKey, AssistantID: assistantID}))
	e.cfg.Credentials = config.Credentials{APIKey: apiKey, AssistantID: assistantID}
}

func (e *testEnv) run(args ...string) error {
	e.stdout.Reset()
	e.stderr.Reset()
	cmd := NewRootCommandWithDeps(e.deps)
	cmd.SetOut(e.stdout)
	cmd.SetErr(e.stderr)
	cmd.SetArgs(args)
	return cmd.Execute()
}

