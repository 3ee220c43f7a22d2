package connectivity

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warungpos/warungpos/internal/config"
)

type fakeProber struct {
	err error
}

func (p *fakeProber) Ping(context.Context) error { return p.err }

func testMonitor(t *testing.T, prober Prober) *Monitor {
	t.Helper()
	cfg := config.Sync{ProbeInterval: 10 * time.Second}
	return NewMonitor(cfg, slog.New(slog.DiscardHandler), prober)
}

func TestProbe(t *testing.T) {
	ctx := context.Background()

	t.Run("Starts offline and emits on the first successful probe", func(t *testing.T) {
		prober := &fakeProber{}
		m := testMonitor(t, prober)

		var triggers []Trigger
		m.Notify(func(tr Trigger) { triggers = append(triggers, tr) })

		assert.False(t, m.Online())

		m.Probe(ctx)
		assert.True(t, m.Online())
		assert.Equal(t, []Trigger{TriggerOnline}, triggers)
	})

	t.Run("A repeated successful probe emits nothing", func(t *testing.T) {
		prober := &fakeProber{}
		m := testMonitor(t, prober)

		var triggers []Trigger
		m.Notify(func(tr Trigger) { triggers = append(triggers, tr) })

		m.Probe(ctx)
		m.Probe(ctx)
		assert.Len(t, triggers, 1)
	})

	t.Run("Going offline emits nothing, coming back emits again", func(t *testing.T) {
		prober := &fakeProber{}
		m := testMonitor(t, prober)

		var triggers []Trigger
		m.Notify(func(tr Trigger) { triggers = append(triggers, tr) })

		m.Probe(ctx)

		prober.err = errors.New("connection refused")
		m.Probe(ctx)
		assert.False(t, m.Online())
		assert.Len(t, triggers, 1)

		prober.err = nil
		m.Probe(ctx)
		assert.True(t, m.Online())
		assert.Equal(t, []Trigger{TriggerOnline, TriggerOnline}, triggers)
	})

	t.Run("A failing probe while offline stays silent", func(t *testing.T) {
		prober := &fakeProber{err: errors.New("connection refused")}
		m := testMonitor(t, prober)

		var triggers []Trigger
		m.Notify(func(tr Trigger) { triggers = append(triggers, tr) })

		m.Probe(ctx)
		m.Probe(ctx)
		assert.False(t, m.Online())
		assert.Empty(t, triggers)
	})
}

func TestForeground(t *testing.T) {
	ctx := context.Background()

	t.Run("Emits while online", func(t *testing.T) {
		prober := &fakeProber{}
		m := testMonitor(t, prober)
		m.Probe(ctx)

		var triggers []Trigger
		m.Notify(func(tr Trigger) { triggers = append(triggers, tr) })

		m.Foreground()
		assert.Equal(t, []Trigger{TriggerForeground}, triggers)
	})

	t.Run("Silent while offline", func(t *testing.T) {
		prober := &fakeProber{err: errors.New("connection refused")}
		m := testMonitor(t, prober)
		m.Probe(ctx)

		var triggers []Trigger
		m.Notify(func(tr Trigger) { triggers = append(triggers, tr) })

		m.Foreground()
		assert.Empty(t, triggers)
	})
}

func TestRun(t *testing.T) {
	prober := &fakeProber{}
	m := testMonitor(t, prober)

	triggerChan := make(chan Trigger, 1)
	m.Notify(func(tr Trigger) { triggerChan <- tr })

	cleanup := m.Run(context.Background())
	defer cleanup()

	// The immediate boot probe flips the state without waiting an interval.
	select {
	case tr := <-triggerChan:
		assert.Equal(t, TriggerOnline, tr)
	case <-time.After(time.Second):
		t.Fatal("expected an online trigger from the boot probe")
	}
	assert.True(t, m.Online())
}

func TestTriggerString(t *testing.T) {
	assert.Equal(t, "online", TriggerOnline.String())
	assert.Equal(t, "foreground", TriggerForeground.String())
	assert.Equal(t, "unknown", Trigger(99).String())
}
