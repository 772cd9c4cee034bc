package progress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/z-wentao/subhashit/pkg/models"
)

func fastSettings() Settings {
	return Settings{
		MaxTicks:      5,
		TickInterval:  5 * time.Millisecond,
		Captions:      []string{"a", "b", "c"},
		MaxVisible:    5,
		CaptionBudget: 9 * time.Millisecond,
		StartDelay:    5 * time.Millisecond,
		DownloadURL:   "/assets/translated_video.mp4",
	}
}

func waitFor(t *testing.T, ch <-chan RenderModel, cond func(RenderModel) bool) RenderModel {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case m, ok := <-ch:
			if !ok {
				t.Fatal("subscription closed")
			}
			if cond(m) {
				return m
			}
		case <-timeout:
			t.Fatal("condition not reached")
		}
	}
}

func TestControllerRunsToTerminal(t *testing.T) {
	c, err := NewController(fastSettings())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	ch, unsubscribe := c.Subscribe()
	defer unsubscribe()

	if err := c.Dispatch(Event{Kind: EventStart}); err != nil {
		t.Fatal(err)
	}

	m := waitFor(t, ch, func(m RenderModel) bool { return m.Phase == PhaseTerminal })
	if m.FillPercent != 100 || !m.DownloadVisible || m.ProgressTimerEnabled {
		t.Errorf("terminal model = %+v", m)
	}

	deadline := time.Now().Add(2 * time.Second)
	for m = c.Latest(); m.CaptionTimerEnabled || m.StageIndex != 2; m = c.Latest() {
		if time.Now().After(deadline) {
			t.Fatalf("captions did not finish: %+v", m)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !m.OverlayVisible {
		t.Error("overlay hidden before close")
	}

	tr, err := c.Apply(context.Background(), Event{Kind: EventDownloadClick})
	if err != nil {
		t.Fatal(err)
	}
	if tr.After.Active || tr.Model.OverlayVisible {
		t.Errorf("after download: %+v", tr.After)
	}
}

func TestControllerCancelStopsTimers(t *testing.T) {
	c, err := NewController(fastSettings())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	ctx := context.Background()
	if _, err := c.Apply(ctx, Event{Kind: EventStart}); err != nil {
		t.Fatal(err)
	}
	tr, err := c.Apply(ctx, Event{Kind: EventCancel})
	if err != nil {
		t.Fatal(err)
	}
	if !tr.After.Cancelled || tr.After.Active {
		t.Fatalf("after cancel: %+v", tr.After)
	}

	time.Sleep(30 * time.Millisecond)
	if got := c.Latest(); got.Tick != tr.Model.Tick {
		t.Errorf("tick advanced after cancel: %d → %d", tr.Model.Tick, got.Tick)
	}
}

func TestControllerInvalidateHook(t *testing.T) {
	var mu sync.Mutex
	var invalidated []uint64
	done := make(chan struct{}, 4)

	c, err := NewController(fastSettings(), WithInvalidateHook(func(seq uint64) {
		mu.Lock()
		invalidated = append(invalidated, seq)
		mu.Unlock()
		done <- struct{}{}
	}))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	ctx := context.Background()
	c.Apply(ctx, Event{Kind: EventTranslationDispatched, Seq: 1, JobKind: models.KindText})
	c.Apply(ctx, Event{Kind: EventTranslationDispatched, Seq: 2, JobKind: models.KindText})

	tr, _ := c.Apply(ctx, Event{Kind: EventTranslationArrived, Seq: 1})
	if tr.Before.Accepts(1) {
		t.Error("superseded seq accepted")
	}
	tr, _ = c.Apply(ctx, Event{Kind: EventTranslationArrived, Seq: 2, Records: []models.TranslationRecord{{Language: "Tamil"}}})
	if !tr.Before.Accepts(2) || len(tr.Model.Result.Records) != 1 {
		t.Errorf("fresh result rejected: %+v", tr.Model.Result)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("invalidate hook not called")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(invalidated) != 1 || invalidated[0] != 1 {
		t.Errorf("invalidated = %v, want [1]", invalidated)
	}
}

func TestControllerInvalidatesLateDispatch(t *testing.T) {
	invalidated := make(chan uint64, 4)
	c, err := NewController(fastSettings(), WithInvalidateHook(func(seq uint64) { invalidated <- seq }))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	ctx := context.Background()
	c.Apply(ctx, Event{Kind: EventTranslationDispatched, Seq: 2, JobKind: models.KindText})
	tr, _ := c.Apply(ctx, Event{Kind: EventTranslationDispatched, Seq: 1, JobKind: models.KindText})
	if !tr.After.Accepts(2) {
		t.Errorf("pending result = %+v, want seq 2", tr.After.Result)
	}

	select {
	case seq := <-invalidated:
		if seq != 1 {
			t.Errorf("invalidated #%d, want #1", seq)
		}
	case <-time.After(time.Second):
		t.Fatal("late dispatch not invalidated")
	}
	select {
	case seq := <-invalidated:
		t.Errorf("unexpected invalidation #%d", seq)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestControllerClose(t *testing.T) {
	c, err := NewController(fastSettings())
	if err != nil {
		t.Fatal(err)
	}
	ch, unsubscribe := c.Subscribe()

	c.Close()
	c.Close()
	unsubscribe()

	for range ch {
	}
	if err := c.Dispatch(Event{Kind: EventStart}); !errors.Is(err, ErrClosed) {
		t.Errorf("Dispatch after Close error = %v", err)
	}
	if _, err := c.Apply(context.Background(), Event{Kind: EventStart}); !errors.Is(err, ErrClosed) {
		t.Errorf("Apply after Close error = %v", err)
	}

	late, _ := c.Subscribe()
	if _, ok := <-late; ok {
		t.Error("subscription after Close delivered a model")
	}
}

func TestNewControllerRejectsBadSettings(t *testing.T) {
	st := fastSettings()
	st.MaxVisible = 0
	if _, err := NewController(st); err == nil {
		t.Fatal("NewController accepted MaxVisible=0")
	}
}
