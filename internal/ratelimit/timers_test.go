package ratelimit

import (
	"testing"
	"time"
)

func TestCallTimersAppliesDefaults(t *testing.T) {
	now := time.Now()
	timers := NewCallTimers(0, 0, 0, now)
	if reason, fired := timers.Check(now.Add(DefaultSilence - time.Second)); fired {
		t.Fatalf("did not expect a fire before any default deadline, got %s", reason)
	}
}

func TestCallTimersDurationWins(t *testing.T) {
	now := time.Now()
	timers := NewCallTimers(5*time.Second, 100*time.Second, 100*time.Second, now)
	reason, fired := timers.Check(now.Add(6 * time.Second))
	if !fired || reason != TimerDuration {
		t.Fatalf("expected TimerDuration to fire, got %s fired=%v", reason, fired)
	}
}

func TestCallTimersSilenceResetByVoiceActivity(t *testing.T) {
	now := time.Now()
	timers := NewCallTimers(100*time.Second, 5*time.Second, 100*time.Second, now)
	timers.OnVoiceActivity(now.Add(3 * time.Second))
	if _, fired := timers.Check(now.Add(7 * time.Second)); fired {
		t.Fatal("expected silence deadline to have reset on voice activity")
	}
	if reason, fired := timers.Check(now.Add(9 * time.Second)); !fired || reason != TimerSilence {
		t.Fatalf("expected silence timer to fire after the reset deadline elapses, got %s fired=%v", reason, fired)
	}
}

func TestCallTimersResponseResetByModelAudio(t *testing.T) {
	now := time.Now()
	timers := NewCallTimers(100*time.Second, 100*time.Second, 5*time.Second, now)
	timers.OnModelAudio(now.Add(3 * time.Second))
	if _, fired := timers.Check(now.Add(7 * time.Second)); fired {
		t.Fatal("expected response deadline to have reset on model audio")
	}
	if reason, fired := timers.Check(now.Add(9 * time.Second)); !fired || reason != TimerResponse {
		t.Fatalf("expected response timer to fire after the reset deadline elapses, got %s fired=%v", reason, fired)
	}
}

func TestCallTimersFiresOnlyOnce(t *testing.T) {
	now := time.Now()
	timers := NewCallTimers(5*time.Second, 100*time.Second, 100*time.Second, now)
	if _, fired := timers.Check(now.Add(6 * time.Second)); !fired {
		t.Fatal("expected first Check past the deadline to fire")
	}
	if _, fired := timers.Check(now.Add(7 * time.Second)); fired {
		t.Fatal("expected Check to latch and not fire again")
	}
}
