package callfsm

import (
	"context"
	"testing"

	"github.com/northlane/voicebridge/internal/domain"
)

type recordingHooks struct {
	calls []string
}

func (r *recordingHooks) SendWelcomeMessage()            { r.calls = append(r.calls, "welcome") }
func (r *recordingHooks) StartDurationTimer()            { r.calls = append(r.calls, "startDuration") }
func (r *recordingHooks) ResetSilenceTimer()              { r.calls = append(r.calls, "resetSilence") }
func (r *recordingHooks) SignalUserSpeechEnded()          { r.calls = append(r.calls, "speechEnded") }
func (r *recordingHooks) StopFiller()                     { r.calls = append(r.calls, "stopFiller") }
func (r *recordingHooks) SendModelInterrupt()             { r.calls = append(r.calls, "interrupt") }
func (r *recordingHooks) TruncateAgentTurn(marker string) { r.calls = append(r.calls, "truncate:"+marker) }
func (r *recordingHooks) FinalizeAgentTurn()              { r.calls = append(r.calls, "finalize") }
func (r *recordingHooks) CloseModelSocketIntentional()    { r.calls = append(r.calls, "closeSocket") }
func (r *recordingHooks) PersistSession()                 { r.calls = append(r.calls, "persist") }

func TestHappyPathToListening(t *testing.T) {
	hooks := &recordingHooks{}
	machine := New(hooks)
	ctx := context.Background()

	if machine.State() != domain.StateInit {
		t.Fatalf("expected initial state INIT, got %s", machine.State())
	}
	if err := machine.Fire(ctx, EventModelReady); err != nil {
		t.Fatalf("modelReady: %v", err)
	}
	if machine.State() != domain.StateWelcome {
		t.Fatalf("expected WELCOME, got %s", machine.State())
	}
	if err := machine.Fire(ctx, EventWelcomePlayed); err != nil {
		t.Fatalf("welcomePlayed: %v", err)
	}
	if machine.State() != domain.StateListening {
		t.Fatalf("expected LISTENING, got %s", machine.State())
	}

	found := map[string]bool{}
	for _, c := range hooks.calls {
		found[c] = true
	}
	if !found["welcome"] || !found["startDuration"] {
		t.Fatalf("expected welcome entry hooks to fire, got %v", hooks.calls)
	}
}

func TestBargeInTruncatesAndInterrupts(t *testing.T) {
	hooks := &recordingHooks{}
	machine := New(hooks)
	ctx := context.Background()

	mustFire(t, machine, ctx, EventModelReady)
	mustFire(t, machine, ctx, EventWelcomePlayed)
	mustFire(t, machine, ctx, EventAudioIn)
	mustFire(t, machine, ctx, EventSilence)
	mustFire(t, machine, ctx, EventModelAudioIn)
	if machine.State() != domain.StateResponding {
		t.Fatalf("expected RESPONDING, got %s", machine.State())
	}

	if err := machine.Fire(ctx, EventUserBargeIn); err != nil {
		t.Fatalf("userBargeIn: %v", err)
	}
	if machine.State() != domain.StateListening {
		t.Fatalf("expected back to LISTENING after barge-in, got %s", machine.State())
	}

	hasInterrupt, hasTruncate := false, false
	for _, c := range hooks.calls {
		if c == "interrupt" {
			hasInterrupt = true
		}
		if c == "truncate:[interrupted]" {
			hasTruncate = true
		}
	}
	if !hasInterrupt || !hasTruncate {
		t.Fatalf("expected interrupt+truncate hooks on barge-in, got %v", hooks.calls)
	}
}

func TestFireSilenceExceededSetsEndReasonAndEnds(t *testing.T) {
	hooks := &recordingHooks{}
	machine := New(hooks)
	ctx := context.Background()

	mustFire(t, machine, ctx, EventModelReady)
	mustFire(t, machine, ctx, EventWelcomePlayed)

	if err := machine.FireSilenceExceeded(ctx); err != nil {
		t.Fatalf("FireSilenceExceeded: %v", err)
	}
	if machine.State() != domain.StateCallEnding {
		t.Fatalf("expected CALL_ENDING, got %s", machine.State())
	}
	if machine.EndReason() != domain.EndReasonSilence {
		t.Fatalf("expected silence end reason, got %s", machine.EndReason())
	}

	if err := machine.FireEnded(ctx); err != nil {
		t.Fatalf("FireEnded: %v", err)
	}
	if machine.State() != domain.StateEnded {
		t.Fatalf("expected ENDED, got %s", machine.State())
	}

	hasClose, hasPersist := false, false
	for _, c := range hooks.calls {
		if c == "closeSocket" {
			hasClose = true
		}
		if c == "persist" {
			hasPersist = true
		}
	}
	if !hasClose || !hasPersist {
		t.Fatalf("expected close+persist hooks before ended, got %v", hooks.calls)
	}
}

func TestFireResponseCompleteTieBreakDurationWins(t *testing.T) {
	hooks := &recordingHooks{}
	machine := New(hooks)
	ctx := context.Background()

	mustFire(t, machine, ctx, EventModelReady)
	mustFire(t, machine, ctx, EventWelcomePlayed)
	mustFire(t, machine, ctx, EventAudioIn)
	mustFire(t, machine, ctx, EventSilence)
	mustFire(t, machine, ctx, EventModelAudioIn)

	if err := machine.FireResponseComplete(ctx, true); err != nil {
		t.Fatalf("FireResponseComplete: %v", err)
	}
	if machine.State() != domain.StateCallEnding {
		t.Fatalf("expected CALL_ENDING when duration exceeded, got %s", machine.State())
	}
	if machine.EndReason() != domain.EndReasonDurationExceeded {
		t.Fatalf("expected duration-exceeded end reason, got %s", machine.EndReason())
	}
}

func TestFireResponseCompleteContinuesWithoutDurationExceeded(t *testing.T) {
	hooks := &recordingHooks{}
	machine := New(hooks)
	ctx := context.Background()

	mustFire(t, machine, ctx, EventModelReady)
	mustFire(t, machine, ctx, EventWelcomePlayed)
	mustFire(t, machine, ctx, EventAudioIn)
	mustFire(t, machine, ctx, EventSilence)
	mustFire(t, machine, ctx, EventModelAudioIn)

	if err := machine.FireResponseComplete(ctx, false); err != nil {
		t.Fatalf("FireResponseComplete: %v", err)
	}
	if machine.State() != domain.StateListening {
		t.Fatalf("expected back to LISTENING, got %s", machine.State())
	}
}

func mustFire(t *testing.T, machine *CallFSM, ctx context.Context, event string) {
	t.Helper()
	if err := machine.Fire(ctx, event); err != nil {
		t.Fatalf("firing %s: %v", event, err)
	}
}
