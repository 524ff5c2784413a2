package compress

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benhall-io/squish/provider"
	"github.com/benhall-io/squish/types"
)

// fakeProvider is a scriptable provider that records call counts and
// the maximum number of simultaneously in-flight calls.
type fakeProvider struct {
	mu          sync.Mutex
	calls       int
	inFlight    int
	maxInFlight int

	delay time.Duration
	// failFirst makes the first n calls per unit text fail.
	failFirst int
	perText   map[string]int
	result    func(text string, level types.Level) string
	err       error
}

func (p *fakeProvider) Compress(ctx context.Context, text string, level types.Level) (string, error) {
	p.mu.Lock()
	p.calls++
	p.inFlight++
	if p.inFlight > p.maxInFlight {
		p.maxInFlight = p.inFlight
	}
	if p.perText == nil {
		p.perText = make(map[string]int)
	}
	p.perText[text]++
	attempt := p.perText[text]
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.inFlight--
		p.mu.Unlock()
	}()

	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if p.err != nil {
		return "", p.err
	}
	if attempt <= p.failFirst {
		return "", errors.New("transient provider error")
	}
	if p.result != nil {
		return p.result(text, level), nil
	}
	return "compressed: " + text[:10], nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func quickConfig() Config {
	return Config{
		Concurrency:    4,
		MinTokens:      1,
		TimeoutInitial: 200 * time.Millisecond,
		TimeoutScale:   2,
		MaxAttempts:    3,
	}
}

func pendingTask(unit int, text string) *Task {
	return &Task{
		UnitIndex:       unit,
		Role:            RoleInitiator,
		OriginalText:    text,
		Level:           types.LevelRegular,
		EstimatedTokens: EstimateTokens(text),
		Status:          StatusPending,
	}
}

func TestExecute_AllSucceed(t *testing.T) {
	prov := &fakeProvider{}
	tasks := []*Task{
		pendingTask(0, longText+"a"),
		pendingTask(1, longText+"b"),
		pendingTask(2, longText+"c"),
	}

	if err := Execute(context.Background(), tasks, prov, quickConfig()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, task := range tasks {
		if task.Status != StatusSuccess {
			t.Errorf("unit %d status = %q, want success", task.UnitIndex, task.Status)
		}
		if task.Result == "" {
			t.Errorf("unit %d has empty result", task.UnitIndex)
		}
	}
	if got := prov.callCount(); got != 3 {
		t.Errorf("provider called %d times, want 3", got)
	}
}

func TestExecute_ConcurrencyBounded(t *testing.T) {
	prov := &fakeProvider{delay: 20 * time.Millisecond}
	var tasks []*Task
	for i := 0; i < 12; i++ {
		tasks = append(tasks, pendingTask(i, longText+strings.Repeat("x", i+1)))
	}

	cfg := quickConfig()
	cfg.Concurrency = 2
	if err := Execute(context.Background(), tasks, prov, cfg); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if prov.maxInFlight > 2 {
		t.Errorf("max in-flight calls = %d, want <= 2", prov.maxInFlight)
	}
}

func TestExecute_RetryThenSuccess(t *testing.T) {
	prov := &fakeProvider{failFirst: 2}
	task := pendingTask(0, longText)

	cfg := quickConfig()
	if err := Execute(context.Background(), []*Task{task}, prov, cfg); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if task.Status != StatusSuccess {
		t.Fatalf("status = %q, want success after retries", task.Status)
	}
	if task.Attempt != 2 {
		t.Errorf("attempt = %d, want 2 failed attempts before success", task.Attempt)
	}
	if task.Err != nil {
		t.Errorf("successful task kept error %v", task.Err)
	}
	if got := prov.callCount(); got != 3 {
		t.Errorf("provider called %d times, want 3", got)
	}
}

func TestExecute_ExhaustedRetriesFail(t *testing.T) {
	prov := &fakeProvider{err: errors.New("provider down")}
	task := pendingTask(0, longText)

	cfg := quickConfig()
	cfg.MaxAttempts = 2
	if err := Execute(context.Background(), []*Task{task}, prov, cfg); err != nil {
		t.Fatalf("Execute() error = %v; individual task failure must not fail the call", err)
	}
	if task.Status != StatusFailed {
		t.Fatalf("status = %q, want failed", task.Status)
	}
	if task.Attempt != 2 {
		t.Errorf("attempt = %d, want 2", task.Attempt)
	}
	if task.Err == nil {
		t.Error("failed task lost its last error")
	}
	if task.OriginalText != longText {
		t.Error("failed task lost its original text")
	}
	if got := prov.callCount(); got != 2 {
		t.Errorf("provider called %d times, want 2", got)
	}
}

func TestExecute_TimeoutEscalation(t *testing.T) {
	// Provider honors context, so every attempt ends at its deadline.
	prov := &fakeProvider{delay: time.Minute}
	task := pendingTask(0, longText)

	cfg := quickConfig()
	cfg.TimeoutInitial = 10 * time.Millisecond
	cfg.TimeoutScale = 2
	cfg.MaxAttempts = 3

	start := time.Now()
	if err := Execute(context.Background(), []*Task{task}, prov, cfg); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	elapsed := time.Since(start)

	if task.Status != StatusFailed {
		t.Fatalf("status = %q, want failed on repeated timeout", task.Status)
	}
	if !errors.Is(task.Err, context.DeadlineExceeded) {
		t.Errorf("last error = %v, want deadline exceeded", task.Err)
	}
	// Last attempt used initial * scale^(attempts-1) = 40ms.
	if want := 40 * time.Millisecond; task.Timeout != want {
		t.Errorf("final attempt timeout = %s, want %s", task.Timeout, want)
	}
	// Total of the escalating deadlines is 10+20+40 = 70ms; the run
	// must not have waited for the provider's one-minute sleep.
	if elapsed > 5*time.Second {
		t.Errorf("run took %s; timeouts did not bound the provider", elapsed)
	}
}

func TestExecute_FailureIsolation(t *testing.T) {
	bad := longText + "poison"
	prov := &fakeProvider{
		result: func(text string, level types.Level) string { return "ok" },
	}
	prov.failFirst = 0
	// Make only the poison unit fail by scripting via err-per-text.
	inner := prov
	scripted := provider.Func(func(ctx context.Context, text string, level types.Level) (string, error) {
		if text == bad {
			inner.mu.Lock()
			inner.calls++
			inner.mu.Unlock()
			return "", errors.New("unit is cursed")
		}
		return inner.Compress(ctx, text, level)
	})

	tasks := []*Task{
		pendingTask(0, longText+"a"),
		pendingTask(1, bad),
		pendingTask(2, longText+"b"),
	}
	if err := Execute(context.Background(), tasks, scripted, quickConfig()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if tasks[0].Status != StatusSuccess || tasks[2].Status != StatusSuccess {
		t.Errorf("healthy units affected by sibling failure: %q, %q", tasks[0].Status, tasks[2].Status)
	}
	if tasks[1].Status != StatusFailed {
		t.Errorf("poison unit status = %q, want failed", tasks[1].Status)
	}
}

func TestExecute_SkippedUntouched(t *testing.T) {
	prov := &fakeProvider{}
	skipped := &Task{
		UnitIndex:    0,
		Role:         RoleInitiator,
		OriginalText: "hi",
		Status:       StatusSkipped,
	}

	if err := Execute(context.Background(), []*Task{skipped}, prov, quickConfig()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if skipped.Status != StatusSkipped {
		t.Errorf("status = %q, want skipped to pass through", skipped.Status)
	}
	if got := prov.callCount(); got != 0 {
		t.Errorf("provider called %d times for a skipped task, want 0", got)
	}
}

func TestExecute_InvalidConfig(t *testing.T) {
	prov := &fakeProvider{}
	cfg := quickConfig()
	cfg.Concurrency = -1

	err := Execute(context.Background(), []*Task{pendingTask(0, longText)}, prov, cfg)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Execute() error = %v, want ErrInvalidConfig", err)
	}
	if got := prov.callCount(); got != 0 {
		t.Errorf("provider called %d times despite invalid config, want 0", got)
	}
}

func TestExecute_Cancellation(t *testing.T) {
	prov := &fakeProvider{delay: 50 * time.Millisecond}
	var tasks []*Task
	for i := 0; i < 20; i++ {
		tasks = append(tasks, pendingTask(i, longText+strings.Repeat("y", i+1)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cfg := quickConfig()
	cfg.Concurrency = 1

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := Execute(ctx, tasks, prov, cfg)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Execute() error = %v, want context.Canceled", err)
	}
	// With one worker and a 50ms provider, most of the queue must
	// still be pending: cancellation stops dispatch.
	var pending int
	for _, task := range tasks {
		if task.Status == StatusPending {
			pending++
		}
	}
	if pending == 0 {
		t.Error("no tasks left pending after early cancellation")
	}
}
