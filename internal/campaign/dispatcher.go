package campaign

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hibiken/asynq"

	"github.com/northlane/voicebridge/internal/domain"
	"github.com/northlane/voicebridge/internal/ratelimit"
	"github.com/northlane/voicebridge/internal/store"
	"github.com/northlane/voicebridge/internal/voiceerr"
	"github.com/northlane/voicebridge/pkg/Logger"
)

// campaignState is the in-memory admission-control state for one running
// campaign: the persisted domain.Campaign is the source of truth for
// Attempted/LeadIDs (spec §3 invariant: "Attempted-lead membership is the
// source of truth for next-lead selection"); this struct adds the
// in-flight tracking and pause flag. All of it is guarded by mu: admission,
// Reconcile and Pause/Resume/Stop each lock it directly from the calling
// goroutine; there is no command channel.
type campaignState struct {
	mu       sync.Mutex
	campaign *domain.Campaign
	inFlight map[string]struct{} // leadID -> present while dialing/ringing/answered
	paused   bool
}

func (s *campaignState) inFlightCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inFlight)
}

// Dispatcher implements the Campaign Dispatcher (spec §4.9): it paces
// outbound call creation to at most domain.MaxConcurrentCalls in-flight
// calls per campaign, gates admission through the per-user RateLimiter
// (C10), retries transient dial failures with back-off via asynq (grounded
// on the teacher's internal/domains/scheduler.AsynqSchedulerService), and
// reconciles campaign progress from carrier status callbacks.
type Dispatcher struct {
	campaignStore store.CampaignStore
	leadStore     store.LeadStore
	limiter       *ratelimit.Limiter
	initiator     CallInitiator
	log           *Logger.Logger

	asynqClient *asynq.Client
	asynqServer *asynq.Server
	mux         *asynq.ServeMux

	mu        sync.Mutex
	campaigns map[string]*campaignState
}

// Config configures a Dispatcher's asynq-backed job queue.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int
}

// New builds a Dispatcher. Call Run to start processing its job queue.
func New(
	cfg Config,
	campaignStore store.CampaignStore,
	leadStore store.LeadStore,
	limiter *ratelimit.Limiter,
	initiator CallInitiator,
	log *Logger.Logger,
) *Dispatcher {
	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = domain.MaxConcurrentCalls
	}

	d := &Dispatcher{
		campaignStore: campaignStore,
		leadStore:     leadStore,
		limiter:       limiter,
		initiator:     initiator,
		log:           log,
		asynqClient:   asynq.NewClient(redisOpt),
		asynqServer: asynq.NewServer(redisOpt, asynq.Config{
			Concurrency: concurrency,
			Queues:      map[string]int{"campaign": 1},
			Logger:      newAsynqLogger(log),
		}),
		mux:       asynq.NewServeMux(),
		campaigns: make(map[string]*campaignState),
	}
	d.mux.HandleFunc(string(JobTypeDialLead), d.handleDialLead)
	return d
}

// Run starts the asynq worker loop and blocks until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- d.asynqServer.Run(d.mux) }()

	select {
	case <-ctx.Done():
		d.asynqServer.Shutdown()
		d.asynqClient.Close()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// CreateCampaign persists a new campaign plus its leads and admits its
// first wave of calls (spec §4.9, §6 POST /campaigns). It returns
// voiceerr.ErrRateLimited (-> HTTP 429 at the control surface) if userID's
// RateBucket is already exhausted.
func (d *Dispatcher) CreateCampaign(ctx context.Context, userID, agentID, name string, leads []domain.Lead) (*domain.Campaign, error) {
	if d.limiter != nil {
		res, err := d.limiter.Check(userID, time.Now())
		if err != nil {
			return nil, fmt.Errorf("campaign: rate check: %w", err)
		}
		if !res.Allowed {
			return nil, voiceerr.ErrRateLimited
		}
	}

	leadIDs := make([]string, 0, len(leads))
	c := &domain.Campaign{
		UserID:    userID,
		AgentID:   agentID,
		Name:      name,
		Status:    domain.CampaignPending,
		Attempted: make(map[string]struct{}),
		CreatedAt: time.Now(),
	}
	if err := d.campaignStore.Create(c); err != nil {
		return nil, err
	}
	for i := range leads {
		leads[i].CampaignID = c.ID
	}
	if err := d.campaignStore.CreateLeads(leads); err != nil {
		return nil, err
	}
	// CreateLeads copies the generated IDs back into leads, so they can be
	// read from the slice before admission.
	for _, l := range leads {
		leadIDs = append(leadIDs, l.ID)
	}
	c.LeadIDs = leadIDs
	c.Status = domain.CampaignRunning
	if err := d.campaignStore.Update(c); err != nil {
		return nil, err
	}

	state := &campaignState{campaign: c, inFlight: make(map[string]struct{})}
	d.mu.Lock()
	d.campaigns[c.ID] = state
	d.mu.Unlock()

	d.admitNext(ctx, c.ID)
	return c, nil
}

// Pause suppresses new-call admission for campaignID; in-flight calls
// continue to completion (spec §4.9: "pause flips a flag; in-flight calls
// continue, new calls are suppressed").
func (d *Dispatcher) Pause(ctx context.Context, campaignID string) error {
	state, err := d.stateFor(campaignID)
	if err != nil {
		return err
	}
	state.mu.Lock()
	state.paused = true
	state.campaign.Status = domain.CampaignPaused
	c := state.campaign
	state.mu.Unlock()
	return d.campaignStore.Update(c)
}

// Resume re-enters the admission loop for campaignID (idempotent).
func (d *Dispatcher) Resume(ctx context.Context, campaignID string) error {
	state, err := d.stateFor(campaignID)
	if err != nil {
		return err
	}
	state.mu.Lock()
	state.paused = false
	state.campaign.Status = domain.CampaignRunning
	c := state.campaign
	state.mu.Unlock()
	if err := d.campaignStore.Update(c); err != nil {
		return err
	}
	d.admitNext(ctx, campaignID)
	return nil
}

// Stop is a permanent pause: new calls are suppressed for good and the
// campaign is marked FAILED (the data model has no distinct "stopped"
// status; spec §3 only defines pending/running/paused/completed/failed, so
// an operator-initiated stop is recorded as FAILED to distinguish it from a
// natural COMPLETED run -- see DESIGN.md).
func (d *Dispatcher) Stop(ctx context.Context, campaignID string) error {
	state, err := d.stateFor(campaignID)
	if err != nil {
		return err
	}
	state.mu.Lock()
	state.paused = true
	state.campaign.Status = domain.CampaignFailed
	c := state.campaign
	state.mu.Unlock()
	return d.campaignStore.Update(c)
}

// Reconcile advances campaignID in response to a carrier status callback
// for leadID (spec §4.9: "on every carrier status callback (completed,
// failed, no_answer, missed), the dispatcher advances the campaign").
func (d *Dispatcher) Reconcile(ctx context.Context, campaignID, leadID string, status domain.CallStatus) error {
	state, err := d.stateFor(campaignID)
	if err != nil {
		return err
	}

	state.mu.Lock()
	delete(state.inFlight, leadID)
	if status == domain.CallCompleted {
		state.campaign.Completed++
	} else {
		state.campaign.Failed++
	}
	complete := state.campaign.IsComplete()
	if complete {
		state.campaign.Status = domain.CampaignCompleted
	}
	c := state.campaign
	state.mu.Unlock()

	if err := d.campaignStore.Update(c); err != nil {
		return err
	}
	if complete {
		return nil
	}
	d.admitNext(ctx, campaignID)
	return nil
}

// admitNext dials as many unattempted leads as the concurrency cap and the
// rate limiter permit (spec §3 invariant 7, §8 property 3: "at every moment
// the count of in-flight calls for that campaign is <= min(k, n -
// attempted)").
func (d *Dispatcher) admitNext(ctx context.Context, campaignID string) {
	state, err := d.stateFor(campaignID)
	if err != nil {
		return
	}

	for {
		state.mu.Lock()
		if state.paused || len(state.inFlight) >= domain.MaxConcurrentCalls {
			state.mu.Unlock()
			return
		}
		leadID, ok := state.campaign.NextUnattempted()
		if !ok {
			state.mu.Unlock()
			return
		}
		state.campaign.Attempted[leadID] = struct{}{}
		state.inFlight[leadID] = struct{}{}
		c := state.campaign
		state.mu.Unlock()

		if err := d.campaignStore.Update(c); err != nil && d.log != nil {
			d.log.Warnf("campaign %s: persisting attempted lead %s failed: %v", campaignID, leadID, err)
		}
		if err := d.enqueueDial(campaignID, leadID, 0, 0); err != nil && d.log != nil {
			d.log.Warnf("campaign %s: enqueue dial for lead %s failed: %v", campaignID, leadID, err)
		}
	}
}

// dialOnce performs one dial attempt for leadID, applying the spec's
// per-user RateBucket gate and the 2-retry/2s-backoff policy (spec §4.9,
// §4.10).
func (d *Dispatcher) dialOnce(ctx context.Context, campaignID, leadID string, attempt int) {
	state, err := d.stateFor(campaignID)
	if err != nil {
		return
	}
	state.mu.Lock()
	userID := state.campaign.UserID
	agentID := state.campaign.AgentID
	state.mu.Unlock()

	if d.limiter != nil {
		res, err := d.limiter.Check(userID, time.Now())
		if err != nil && d.log != nil {
			d.log.Warnf("campaign %s: rate check failed: %v", campaignID, err)
		}
		if err == nil && !res.Allowed {
			// Not a dial failure; wait out the window and retry the same
			// attempt count (doesn't count against maxDialRetries).
			_ = d.enqueueDial(campaignID, leadID, attempt, time.Second)
			return
		}
	}

	lead, err := d.leadStore.GetByID(leadID)
	if err != nil {
		d.finishLead(ctx, campaignID, leadID, domain.CallFailed)
		return
	}

	_, err = d.initiator.InitiateCall(ctx, campaignID, leadID, agentID, lead.PhoneNumber)
	if err != nil {
		if Retryable(err) && attempt < maxDialRetries {
			if d.log != nil {
				d.log.Warnf("campaign %s: dial lead %s attempt %d failed, retrying: %v", campaignID, leadID, attempt, err)
			}
			_ = d.enqueueDial(campaignID, leadID, attempt+1, dialRetryBackoff)
			return
		}
		if d.log != nil {
			d.log.Warnf("campaign %s: dial lead %s failed permanently: %v", campaignID, leadID, err)
		}
		d.finishLead(ctx, campaignID, leadID, domain.CallFailed)
		return
	}

	if d.limiter != nil {
		_ = d.limiter.Record(userID, time.Now())
	}
}

// finishLead marks leadID no longer in-flight with a terminal status and
// advances the campaign (a dial that never reached the carrier still
// "advances the campaign" per spec §4.9: "non-retryable errors mark the
// call FAILED and still advance the campaign").
func (d *Dispatcher) finishLead(ctx context.Context, campaignID, leadID string, status domain.CallStatus) {
	_ = d.Reconcile(ctx, campaignID, leadID, status)
}

func (d *Dispatcher) stateFor(campaignID string) (*campaignState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	state, ok := d.campaigns[campaignID]
	if !ok {
		return nil, voiceerr.ErrCampaignNotFound
	}
	return state, nil
}
