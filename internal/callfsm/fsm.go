package callfsm

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/northlane/voicebridge/internal/domain"
)

// Hooks are the side effects the spec's transition table (§4.7) attaches to
// specific state entries. The session loop implements this interface; the
// FSM itself stays free of I/O.
type Hooks interface {
	SendWelcomeMessage()
	StartDurationTimer()
	ResetSilenceTimer()
	SignalUserSpeechEnded()
	StopFiller()
	SendModelInterrupt()
	TruncateAgentTurn(marker string)
	FinalizeAgentTurn()
	CloseModelSocketIntentional()
	PersistSession()
}

// CallFSM wraps github.com/looplab/fsm with the spec's 9-state, fixed
// transition table. All guard evaluation happens in the caller (the session
// loop computes interruption policy, silence duration, etc. and only Fires
// the event once the guard already holds) so the table below stays a pure
// state graph, matching the teacher's thin UserRuntime wrapper.
type CallFSM struct {
	machine   *fsm.FSM
	hooks     Hooks
	endReason domain.EndReason
}

// New builds a CallFSM in the INIT state, wiring every transition in spec
// §4.7's table plus the CALL_ENDING -> ENDED terminal step.
func New(hooks Hooks) *CallFSM {
	c := &CallFSM{hooks: hooks}

	nonTerminal := []string{
		string(domain.StateInit), string(domain.StateWelcome), string(domain.StateListening),
		string(domain.StateHumanSpeaking), string(domain.StateProcessingRequest),
		string(domain.StateResponding), string(domain.StateResponseComplete),
	}

	c.machine = fsm.NewFSM(
		string(domain.StateInit),
		fsm.Events{
			{Name: EventModelReady, Src: []string{string(domain.StateInit)}, Dst: string(domain.StateWelcome)},
			{Name: EventWelcomePlayed, Src: []string{string(domain.StateWelcome)}, Dst: string(domain.StateListening)},
			{Name: EventAudioIn, Src: []string{string(domain.StateListening)}, Dst: string(domain.StateHumanSpeaking)},
			{Name: EventSilence, Src: []string{string(domain.StateHumanSpeaking)}, Dst: string(domain.StateProcessingRequest)},
			{Name: EventModelAudioIn, Src: []string{string(domain.StateProcessingRequest)}, Dst: string(domain.StateResponding)},
			{Name: EventUserBargeIn, Src: []string{string(domain.StateResponding)}, Dst: string(domain.StateListening)},
			{Name: EventModelTurnComplete, Src: []string{string(domain.StateResponding)}, Dst: string(domain.StateResponseComplete)},
			{Name: "durationExceededAtComplete", Src: []string{string(domain.StateResponseComplete)}, Dst: string(domain.StateCallEnding)},
			{Name: "continueAfterComplete", Src: []string{string(domain.StateResponseComplete)}, Dst: string(domain.StateListening)},
			{Name: EventDurationExceeded, Src: nonTerminal, Dst: string(domain.StateCallEnding)},
			{Name: EventSilenceExceeded, Src: nonTerminal, Dst: string(domain.StateCallEnding)},
			{Name: EventFatalError, Src: nonTerminal, Dst: string(domain.StateCallEnding)},
			{Name: EventProviderClose, Src: nonTerminal, Dst: string(domain.StateCallEnding)},
			{Name: "ended", Src: []string{string(domain.StateCallEnding)}, Dst: string(domain.StateEnded)},
		},
		fsm.Callbacks{
			"enter_" + string(domain.StateWelcome): func(_ context.Context, e *fsm.Event) {
				c.hooks.SendWelcomeMessage()
				c.hooks.StartDurationTimer()
			},
			"enter_" + string(domain.StateHumanSpeaking): func(_ context.Context, e *fsm.Event) {
				c.hooks.ResetSilenceTimer()
			},
			"enter_" + string(domain.StateProcessingRequest): func(_ context.Context, e *fsm.Event) {
				c.hooks.SignalUserSpeechEnded()
			},
			"enter_" + string(domain.StateResponding): func(_ context.Context, e *fsm.Event) {
				if e.Event == EventModelAudioIn {
					c.hooks.StopFiller()
				}
			},
			"before_" + EventUserBargeIn: func(_ context.Context, e *fsm.Event) {
				c.hooks.SendModelInterrupt()
				c.hooks.TruncateAgentTurn("[interrupted]")
			},
			"before_" + EventModelTurnComplete: func(_ context.Context, e *fsm.Event) {
				c.hooks.FinalizeAgentTurn()
			},
			"before_" + EventDurationExceeded: func(_ context.Context, e *fsm.Event) {
				c.endReason = domain.EndReasonDurationExceeded
			},
			"before_ended": func(_ context.Context, e *fsm.Event) {
				c.hooks.CloseModelSocketIntentional()
				c.hooks.PersistSession()
			},
		},
	)
	return c
}

// State returns the current call state.
func (c *CallFSM) State() domain.CallState {
	return domain.CallState(c.machine.Current())
}

// EndReason returns the reason recorded for the current/last CALL_ENDING
// transition.
func (c *CallFSM) EndReason() domain.EndReason {
	return c.endReason
}

// Can reports whether event may fire from the current state.
func (c *CallFSM) Can(event string) bool {
	return c.machine.Can(event)
}

// Fire drives event through the machine. The caller is responsible for
// having already evaluated any guard the spec's table attaches to event.
func (c *CallFSM) Fire(ctx context.Context, event string, args ...interface{}) error {
	if err := c.machine.Event(ctx, event, args...); err != nil {
		return fmt.Errorf("callfsm: %s from %s: %w", event, c.machine.Current(), err)
	}
	return nil
}

// FireResponseComplete drives RESPONDING -modelTurnComplete-> RESPONSE_COMPLETE
// and then applies the spec §4.7 tie-break: if durationExceeded and
// modelTurnComplete are both pending in the same scheduling cycle,
// durationExceeded wins (spec: "Tie-break: ... durationExceeded wins").
func (c *CallFSM) FireResponseComplete(ctx context.Context, durationExceeded bool) error {
	if err := c.Fire(ctx, EventModelTurnComplete); err != nil {
		return err
	}
	if durationExceeded {
		c.endReason = domain.EndReasonDurationExceeded
		return c.Fire(ctx, "durationExceededAtComplete")
	}
	return c.Fire(ctx, "continueAfterComplete")
}

// FireSilenceExceeded transitions to CALL_ENDING with reason "silence".
func (c *CallFSM) FireSilenceExceeded(ctx context.Context) error {
	c.endReason = domain.EndReasonSilence
	return c.Fire(ctx, EventSilenceExceeded)
}

// FireFatalError transitions to CALL_ENDING with reason "fatal-error".
func (c *CallFSM) FireFatalError(ctx context.Context) error {
	c.endReason = domain.EndReasonFatalError
	return c.Fire(ctx, EventFatalError)
}

// FireProviderClose transitions to CALL_ENDING with reason "provider-close".
func (c *CallFSM) FireProviderClose(ctx context.Context) error {
	c.endReason = domain.EndReasonProviderClose
	return c.Fire(ctx, EventProviderClose)
}

// FireVoicemailEnding transitions to CALL_ENDING with reason "voicemail"
// (spec §4.7 voicemail detection, hangup action).
func (c *CallFSM) FireVoicemailEnding(ctx context.Context) error {
	c.endReason = domain.EndReasonVoicemail
	return c.Fire(ctx, EventFatalError) // reuses the any-non-terminal->CALL_ENDING edge
}

// FireProtocolEnding transitions to CALL_ENDING with reason "protocol"
// (spec §7: "10 [protocol errors] within 5s, then CALL_ENDING reason
// protocol").
func (c *CallFSM) FireProtocolEnding(ctx context.Context) error {
	c.endReason = domain.EndReasonProtocol
	return c.Fire(ctx, EventProviderClose) // reuses the any-non-terminal->CALL_ENDING edge
}

// FireEnded completes the CALL_ENDING -> ENDED transition.
func (c *CallFSM) FireEnded(ctx context.Context) error {
	return c.Fire(ctx, "ended")
}
