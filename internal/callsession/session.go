package callsession

import (
	"context"
	"sync"
	"time"

	"github.com/northlane/voicebridge/internal/audio"
	"github.com/northlane/voicebridge/internal/audiorouter"
	"github.com/northlane/voicebridge/internal/callfsm"
	"github.com/northlane/voicebridge/internal/carrier"
	"github.com/northlane/voicebridge/internal/domain"
	"github.com/northlane/voicebridge/internal/hedge"
	"github.com/northlane/voicebridge/internal/modelgateway"
	"github.com/northlane/voicebridge/internal/ratelimit"
	"github.com/northlane/voicebridge/internal/store"
	"github.com/northlane/voicebridge/pkg/Logger"
)

// Voicemail-detection tuning (spec §4.7, §9): the rolling window size and
// flatness threshold approximate the "flat pitch variance" acoustic signal
// from RMS energy, since this runtime has no dedicated pitch tracker; the
// span matches a human reasonably answering before a recorded greeting.
const (
	voicemailRMSWindow    = 5
	voicemailFlatVariance = 0.0001
	voicemailSilenceSpan  = 2 * time.Second
)

// Session is one call's single-goroutine orchestrator (spec §4.8). It owns
// the inbound channel from the provider adapter, the model-gateway events,
// the outbound audio router, and a control channel of timers and external
// stop requests. Cross-session state is limited to aggregated metrics and
// the campaign dispatcher (spec §4.8, §5).
type Session struct {
	callID    string
	direction domain.Direction

	adapter     carrier.Adapter
	gateway     *modelgateway.Gateway
	router      *audiorouter.Router
	hedgeEngine *hedge.Engine
	hedgeLang   hedge.Language
	fsm         *callfsm.CallFSM
	interrupt   *callfsm.InterruptionPolicy
	voicemail   *callfsm.Scorer
	timers      *ratelimit.CallTimers
	silence     *audio.SilenceTimer

	agent domain.AgentConfig
	mode  domain.SessionMode
	store store.CallStore
	log   *Logger.Logger

	mu          sync.Mutex
	turns       []domain.Turn
	currentTurn *domain.Turn
	metrics     domain.Metrics
	t0          time.Time

	rmsWindow           []float64
	voicemailDetected   bool
	voicemailEndPending bool

	stop     chan struct{}
	stopOnce sync.Once
}

// New builds a Session wired to its collaborators, in state INIT. Run must
// be called to start the orchestration loop.
func New(
	callID string,
	direction domain.Direction,
	adapter carrier.Adapter,
	gateway *modelgateway.Gateway,
	router *audiorouter.Router,
	hedgeEngine *hedge.Engine,
	agent domain.AgentConfig,
	mode domain.SessionMode,
	callStore store.CallStore,
	log *Logger.Logger,
) *Session {
	s := &Session{
		callID:      callID,
		direction:   direction,
		adapter:     adapter,
		gateway:     gateway,
		router:      router,
		hedgeEngine: hedgeEngine,
		hedgeLang:   hedge.LangEnglish,
		interrupt:   callfsm.NewInterruptionPolicy(agent.SpeechSettings.InterruptionSensitivity),
		voicemail:   callfsm.NewScorer(),
		agent:       agent,
		mode:        mode,
		store:       callStore,
		log:         log,
		stop:        make(chan struct{}),
	}
	s.silence = audio.NewSilenceTimer(agent.SpeechSettings.EffectiveSilenceThreshold(mode),
		time.Duration(agent.CallSettings.SilenceDetectionMs)*time.Millisecond)
	s.fsm = callfsm.New(s)
	return s
}

func (s *Session) CallID() string { return s.callID }

func (s *Session) State() domain.CallState { return s.fsm.State() }

// Stop requests an external, idempotent shutdown (spec §5: "external stop
// requests" on the control channel).
func (s *Session) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Run drives the session loop until the call reaches ENDED or ctx is
// cancelled. It is meant to be called as the single goroutine owning this
// session (spec §4.8).
func (s *Session) Run(ctx context.Context) {
	RecordStart()
	defer func() {
		RecordEnd(string(s.fsm.EndReason()))
	}()

	now := time.Now()
	s.timers = ratelimit.NewCallTimers(
		time.Duration(s.agent.CallSettings.MaxCallDurationSec)*time.Second,
		time.Duration(s.agent.CallSettings.SilenceDetectionMs)*time.Millisecond,
		ratelimit.DefaultResponse,
		now,
	)

	// Block until the model gateway confirms setup, then play the welcome
	// message and enter LISTENING (spec §4.7: INIT -modelReady-> WELCOME
	// -welcomePlayed-> LISTENING). The gateway is constructed with setup
	// already confirmed by the time New() returns, so this proceeds
	// immediately; a real deployment may race on the first gateway event.
	if err := s.fsm.Fire(ctx, callfsm.EventModelReady); err != nil && s.log != nil {
		s.log.Warnf("call %s: modelReady transition failed: %v", s.callID, err)
	}
	if err := s.fsm.Fire(ctx, callfsm.EventWelcomePlayed); err != nil && s.log != nil {
		s.log.Warnf("call %s: welcomePlayed transition failed: %v", s.callID, err)
	}

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	gatewayEvents := s.gateway.Events()

	for {
		select {
		case <-ctx.Done():
			s.endWith(ctx, s.fsm.FireProviderClose)
			return
		case <-s.stop:
			s.endWith(ctx, s.fsm.FireProviderClose)
			return
		case ev, ok := <-gatewayEvents:
			if !ok {
				return
			}
			s.handleModelEvent(ctx, ev)
			if s.State() == domain.StateEnded {
				return
			}
		case t := <-ticker.C:
			if s.checkTimers(ctx, t) {
				return
			}
		}
	}
}

// HandleCarrierEvent is called by the adapter's read loop for every
// normalized inbound unit (spec §4.3 ingress, §4.8: "delivered in carrier
// arrival order; the adapter must not reorder").
func (s *Session) HandleCarrierEvent(ctx context.Context, ev carrier.EventOrFrame) {
	switch ev.Kind {
	case carrier.EventMedia:
		s.handleAudioIn(ctx, ev.Frame)
	case carrier.EventStop:
		s.Stop()
	case carrier.EventDTMF:
		// DTMF is outside the core voice loop; logged only.
		if s.log != nil {
			s.log.Infof("call %s: dtmf digit=%s", s.callID, ev.DTMFDigit)
		}
	}
}

func (s *Session) handleAudioIn(ctx context.Context, frame domain.AudioFrame) {
	now := frame.CaptureTs
	if now.IsZero() {
		now = time.Now()
	}
	if audio.IsVoiceActive(frame.RMS, s.agent.SpeechSettings.EffectiveSilenceThreshold(s.mode)) {
		s.timers.OnVoiceActivity(now)
	}

	switch s.State() {
	case domain.StateListening:
		if audio.IsVoiceActive(frame.RMS, s.agent.SpeechSettings.EffectiveSilenceThreshold(s.mode)) {
			s.silence.Reset()
			if err := s.fsm.Fire(ctx, callfsm.EventAudioIn); err != nil && s.log != nil {
				s.log.Warnf("call %s: audioIn transition failed: %v", s.callID, err)
			}
		}
	case domain.StateHumanSpeaking:
		s.checkVoicemail(ctx, frame, now)
		if s.silence.Observe(frame.RMS, now) {
			s.mu.Lock()
			s.metrics.SilenceDetections++
			s.mu.Unlock()
			s.t0 = now
			if err := s.fsm.Fire(ctx, callfsm.EventSilence); err != nil && s.log != nil {
				s.log.Warnf("call %s: silence transition failed: %v", s.callID, err)
			}
		}
		if s.gateway != nil {
			if err := s.gateway.SendAudio(frame); err != nil {
				s.mu.Lock()
				s.metrics.FramesDropped++
				s.mu.Unlock()
			}
		}
	case domain.StateProcessingRequest:
		s.checkVoicemail(ctx, frame, now)
		if s.gateway != nil {
			if err := s.gateway.SendAudio(frame); err != nil {
				s.mu.Lock()
				s.metrics.FramesDropped++
				s.mu.Unlock()
			}
		}
	case domain.StateResponding:
		if s.interrupt.Observe(frame.RMS) {
			if err := s.fsm.Fire(ctx, callfsm.EventUserBargeIn); err != nil && s.log != nil {
				s.log.Warnf("call %s: bargeIn transition failed: %v", s.callID, err)
			}
			s.interrupt.Reset()
		}
	}
}

// checkVoicemail scores the HUMAN_SPEAKING/PROCESSING_REQUEST audio against
// the agent's voicemail detector (spec §4.7) and, once confidence crosses
// callfsm.VoicemailThreshold, applies the configured voicemailAction.
func (s *Session) checkVoicemail(ctx context.Context, frame domain.AudioFrame, now time.Time) {
	if !s.agent.CallSettings.VoicemailDetection || s.voicemailDetected {
		return
	}
	signals := s.observeVoicemailSignals(frame, now)
	if s.voicemail.Score(signals) < callfsm.VoicemailThreshold {
		return
	}
	s.voicemailDetected = true
	switch s.agent.CallSettings.VoicemailAction {
	case domain.VoicemailHangup:
		s.endWith(ctx, s.fsm.FireVoicemailEnding)
	default:
		// leaveMessage and transfer have no dedicated playback/transfer
		// machinery in this runtime; the agent's current or next turn is
		// treated as the message, and the call ends with reason voicemail
		// once that turn completes.
		if s.log != nil {
			s.log.Infof("call %s: voicemail detected, action=%s, ending after current turn", s.callID, s.agent.CallSettings.VoicemailAction)
		}
		s.voicemailEndPending = true
	}
}

// observeVoicemailSignals derives the scorer's evidence from the data this
// runtime actually has on hand: the caller's RMS history (a proxy for flat
// pitch variance -- no pitch tracker exists) and the in-progress silence
// span. TextHypothesis is left empty: this runtime has no local ASR on the
// caller's audio, only the model's own generated text.
func (s *Session) observeVoicemailSignals(frame domain.AudioFrame, now time.Time) callfsm.VoicemailSignals {
	s.rmsWindow = append(s.rmsWindow, frame.RMS)
	if len(s.rmsWindow) > voicemailRMSWindow {
		s.rmsWindow = s.rmsWindow[len(s.rmsWindow)-voicemailRMSWindow:]
	}
	flat := false
	if len(s.rmsWindow) == voicemailRMSWindow {
		threshold := s.agent.SpeechSettings.EffectiveSilenceThreshold(s.mode)
		flat = frame.RMS >= threshold && rmsVariance(s.rmsWindow) < voicemailFlatVariance
	}
	return callfsm.VoicemailSignals{
		FlatPitchVariance:        flat,
		ProlongedNoHumanSpectrum: s.silence.Since(now) >= voicemailSilenceSpan,
	}
}

func rmsVariance(samples []float64) float64 {
	var mean float64
	for _, v := range samples {
		mean += v
	}
	mean /= float64(len(samples))
	var variance float64
	for _, v := range samples {
		d := v - mean
		variance += d * d
	}
	return variance / float64(len(samples))
}

func (s *Session) handleModelEvent(ctx context.Context, ev modelgateway.Event) {
	switch ev.Kind {
	case modelgateway.EventAudio:
		s.onModelAudio(ctx, ev.Frame)
	case modelgateway.EventText:
		s.appendAgentText(ev.Text)
	case modelgateway.EventTurnComplete:
		if s.voicemailEndPending {
			s.endWith(ctx, s.fsm.FireVoicemailEnding)
			return
		}
		reason, fired := s.timers.Check(time.Now())
		durationExceeded := fired && reason == ratelimit.TimerDuration
		if fired {
			s.mu.Lock()
			if durationExceeded {
				s.metrics.DurationEnforcements++
			} else {
				s.metrics.SilenceDetections++
			}
			s.mu.Unlock()
		}
		if err := s.fsm.FireResponseComplete(ctx, durationExceeded); err != nil && s.log != nil {
			s.log.Warnf("call %s: responseComplete transition failed: %v", s.callID, err)
		}
		if durationExceeded {
			if err := s.fsm.FireEnded(ctx); err != nil && s.log != nil {
				s.log.Warnf("call %s: ended transition failed: %v", s.callID, err)
			}
		} else if fired {
			s.endWith(ctx, s.fsm.FireSilenceExceeded)
		}
	case modelgateway.EventInterrupted:
		// model-side acknowledged the interrupt; nothing further to do.
	case modelgateway.EventFatal:
		s.mu.Lock()
		s.metrics.ReconnectAttempts = s.gateway.ReconnectAttempts()
		s.mu.Unlock()
		s.endWith(ctx, s.fsm.FireFatalError)
	case modelgateway.EventToolCall:
		if s.log != nil {
			s.log.Infof("call %s: tool call %s (unhandled, outside core scope)", s.callID, ev.Tool.Name)
		}
	}
}

func (s *Session) onModelAudio(ctx context.Context, frame domain.AudioFrame) {
	if s.State() == domain.StateProcessingRequest {
		if !s.t0.IsZero() {
			latency := time.Since(s.t0)
			s.mu.Lock()
			if s.currentTurn != nil {
				s.currentTurn.LatencyMs = latency.Milliseconds()
			}
			s.mu.Unlock()
		}
		if err := s.fsm.Fire(ctx, callfsm.EventModelAudioIn); err != nil && s.log != nil {
			s.log.Warnf("call %s: modelAudioIn transition failed: %v", s.callID, err)
		}
		s.startAgentTurn()
	}

	if s.hedgeEngine != nil && s.hedgeEngine.IsPlaying() {
		frame.PCM16 = s.hedgeEngine.CrossfadeOut(frame.PCM16)
	}
	s.timers.OnModelAudio(time.Now())
	s.router.Enqueue(frame)
}

func (s *Session) checkTimers(ctx context.Context, now time.Time) bool {
	if s.State() == domain.StateEnded {
		return true
	}
	reason, fired := s.timers.Check(now)
	if !fired {
		if s.hedgeEngine != nil && s.hedgeEngine.Due(now) {
			if clip, ok := s.hedgeEngine.Fire(); ok {
				s.router.Enqueue(domain.AudioFrame{PCM16: clip, SampleRate: audiorouter.EgressRate, CaptureTs: now})
				s.mu.Lock()
				s.metrics.FillersPlayed++
				s.mu.Unlock()
			}
		}
		return false
	}

	switch reason {
	case ratelimit.TimerDuration:
		s.mu.Lock()
		s.metrics.DurationEnforcements++
		s.mu.Unlock()
		s.endWith(ctx, func(ctx context.Context) error {
			if err := s.fsm.Fire(ctx, callfsm.EventDurationExceeded); err != nil {
				return err
			}
			return nil
		})
	case ratelimit.TimerSilence, ratelimit.TimerResponse:
		s.mu.Lock()
		s.metrics.SilenceDetections++
		s.mu.Unlock()
		s.endWith(ctx, s.fsm.FireSilenceExceeded)
	}
	return true
}

func (s *Session) appendAgentText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentTurn == nil {
		s.startAgentTurnLocked()
	}
	s.currentTurn.Content += text
}

func (s *Session) startAgentTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentTurn == nil {
		s.startAgentTurnLocked()
	}
}

func (s *Session) startAgentTurnLocked() {
	t := domain.Turn{Role: domain.RoleAgent, StartTime: time.Now()}
	s.currentTurn = &t
}

func (s *Session) endWith(ctx context.Context, transition func(context.Context) error) {
	if err := transition(ctx); err != nil && s.log != nil {
		s.log.Warnf("call %s: ending transition failed: %v", s.callID, err)
	}
	if err := s.fsm.FireEnded(ctx); err != nil && s.log != nil {
		s.log.Warnf("call %s: ended transition failed: %v", s.callID, err)
	}
}

// --- callfsm.Hooks ---

func (s *Session) SendWelcomeMessage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, domain.Turn{
		Role:      domain.RoleAgent,
		Content:   s.agent.WelcomeMessage,
		StartTime: time.Now(),
		EndTime:   time.Now(),
	})
}

func (s *Session) StartDurationTimer() {
	// timers are constructed in Run(); nothing further to do here.
}

func (s *Session) ResetSilenceTimer() {
	s.silence.Reset()
}

func (s *Session) SignalUserSpeechEnded() {
	if s.hedgeEngine != nil {
		s.hedgeEngine.Arm(s.hedgeLang, time.Now())
	}
}

func (s *Session) StopFiller() {
	if s.hedgeEngine != nil {
		s.hedgeEngine.Disarm()
	}
}

func (s *Session) SendModelInterrupt() {
	if s.gateway != nil {
		s.gateway.SendInterrupt()
	}
}

func (s *Session) TruncateAgentTurn(marker string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentTurn == nil {
		return
	}
	s.currentTurn.Interrupted = true
	s.currentTurn.Content += " " + marker
	s.currentTurn.EndTime = time.Now()
	s.turns = append(s.turns, *s.currentTurn)
	s.currentTurn = nil
}

func (s *Session) FinalizeAgentTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentTurn == nil {
		return
	}
	s.currentTurn.EndTime = time.Now()
	s.turns = append(s.turns, *s.currentTurn)
	s.currentTurn = nil
}

func (s *Session) CloseModelSocketIntentional() {
	if s.gateway != nil {
		_ = s.gateway.Close()
	}
	if s.router != nil {
		s.router.Summary(s.callID)
	}
}

// PersistSession builds the formatted transcript and persists the call
// (spec §4.8 persistence contract: "mark aiProcessed=false for an external
// post-processor").
func (s *Session) PersistSession() {
	s.mu.Lock()
	turns := append([]domain.Turn(nil), s.turns...)
	metrics := s.metrics
	s.mu.Unlock()

	session := &domain.CallSession{
		CallID:      s.callID,
		Direction:   s.direction,
		AgentID:     s.agent.AgentID,
		EndTs:       time.Now(),
		State:       domain.StateEnded,
		EndReason:   s.fsm.EndReason(),
		Turns:       turns,
		Metrics:     metrics,
		AIProcessed: false,
	}
	if s.adapter != nil {
		session.Carrier = s.adapter.Tag()
	}
	if s.store != nil {
		if err := s.store.Create(session); err != nil && s.log != nil {
			s.log.Errorf("call %s: persistence failed: %v", s.callID, err)
		}
	}
}
