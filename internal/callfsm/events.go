// Package callfsm implements the call lifecycle state machine (spec §4.7),
// the core algorithm of the runtime, built on github.com/looplab/fsm in the
// same minimal-wrapper style as the teacher's internal/domains/sys_manager/
// runtime.UserRuntime, generalized from its 2-event sleep/wake loop to the
// spec's 9-state, dozen-event call lifecycle.
package callfsm

// Event names understood by the FSM (spec §4.7).
const (
	EventModelReady       = "modelReady"
	EventWelcomePlayed     = "welcomePlayed"
	EventAudioIn           = "audioIn"
	EventSilence           = "silence"
	EventModelAudioIn      = "modelAudioIn"
	EventModelTurnComplete = "modelTurnComplete"
	EventModelInterrupted  = "modelInterruptedAck"
	EventUserBargeIn       = "userBargeIn"
	EventDurationExceeded  = "durationExceeded"
	EventSilenceExceeded   = "silenceExceeded"
	EventFatalError        = "fatalError"
	EventProviderClose     = "providerClose"
)
