// File path: internal/llm/retry_test.go
package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type scriptedProvider struct {
	failures int
	calls    int
	reply    string
}

func (s *scriptedProvider) Chat(ctx context.Context, req ChatRequest) (string, error) {
	s.calls++
	if s.calls <= s.failures {
		return "", fmt.Errorf("transient failure %d", s.calls)
	}
	return s.reply, nil
}

func (s *scriptedProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	return nil, errors.New("not implemented")
}

func (s *scriptedProvider) Name() string { return "scripted" }

func TestChatRetriesWithExponentialBackoff(t *testing.T) {
	provider := &scriptedProvider{failures: 2, reply: "eventual answer"}
	var waits []time.Duration
	inv := NewInvoker(provider, withSleep(func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}))

	text, err := inv.Chat(context.Background(), ChatRequest{Messages: SystemUser("sys", "user")})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if text != "eventual answer" {
		t.Fatalf("unexpected reply %q", text)
	}
	if provider.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", provider.calls)
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(waits) != len(want) {
		t.Fatalf("waits = %v", waits)
	}
	for i := range want {
		if waits[i] != want[i] {
			t.Fatalf("wait %d = %v, want %v", i, waits[i], want[i])
		}
	}
}

func TestChatExhaustsAttemptBudget(t *testing.T) {
	provider := &scriptedProvider{failures: 10}
	inv := NewInvoker(provider, withSleep(func(ctx context.Context, d time.Duration) error {
		return nil
	}))

	_, err := inv.Chat(context.Background(), ChatRequest{Messages: SystemUser("sys", "user")})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if provider.calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", provider.calls)
	}
	if got := err.Error(); got != "chat failed after 3 attempts: transient failure 3" {
		t.Fatalf("unexpected error: %v", got)
	}
}

func TestChatStopsWhenContextCancelled(t *testing.T) {
	provider := &scriptedProvider{failures: 10}
	inv := NewInvoker(provider, withSleep(func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}))

	_, err := inv.Chat(context.Background(), ChatRequest{Messages: SystemUser("sys", "user")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if provider.calls != 1 {
		t.Fatalf("expected no further attempts after cancellation, got %d", provider.calls)
	}
}

func TestChatFirstAttemptSuccessSkipsWaiting(t *testing.T) {
	provider := &scriptedProvider{reply: "immediate"}
	inv := NewInvoker(provider, withSleep(func(ctx context.Context, d time.Duration) error {
		t.Fatal("sleep should not be called on first-attempt success")
		return nil
	}))
	text, err := inv.Chat(context.Background(), ChatRequest{Messages: SystemUser("sys", "user")})
	if err != nil || text != "immediate" {
		t.Fatalf("Chat = %q, %v", text, err)
	}
}
