package campaign

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/northlane/voicebridge/pkg/Logger"
)

// JobType names the asynq task types this package registers, grounded on
// the teacher's scheduler.JobType string-constant pattern.
type JobType string

const (
	// JobTypeDialLead places (or retries) one outbound call leg for a lead.
	JobTypeDialLead JobType = "campaign:dial_lead"
)

// dialPayload is the asynq task payload for JobTypeDialLead.
type dialPayload struct {
	CampaignID string `json:"campaignId"`
	LeadID     string `json:"leadId"`
	Attempt    int    `json:"attempt"`
}

// maxDialRetries and dialRetryBackoff implement spec §4.9: "Retries per
// call: up to 2 on transient errors ... with 2-second back-off."
const (
	maxDialRetries   = 2
	dialRetryBackoff = 2 * time.Second
)

// asynqLogger adapts pkg/Logger.Logger to asynq.Logger, identical in shape
// to the teacher's scheduler.AsynqLogger wrapper.
type asynqLogger struct{ log *Logger.Logger }

func newAsynqLogger(log *Logger.Logger) asynq.Logger { return &asynqLogger{log: log} }

func (l *asynqLogger) Debug(args ...interface{}) { l.log.Debug(args...) }
func (l *asynqLogger) Info(args ...interface{})  { l.log.Info(args...) }
func (l *asynqLogger) Warn(args ...interface{})  { l.log.Warn(args...) }
func (l *asynqLogger) Error(args ...interface{}) { l.log.Error(args...) }
func (l *asynqLogger) Fatal(args ...interface{}) { l.log.Fatal(args...) }

// enqueueDial schedules (or re-schedules) a dial attempt, delayed by delay.
func (d *Dispatcher) enqueueDial(campaignID, leadID string, attempt int, delay time.Duration) error {
	payload, err := json.Marshal(dialPayload{CampaignID: campaignID, LeadID: leadID, Attempt: attempt})
	if err != nil {
		return fmt.Errorf("campaign: marshal dial payload: %w", err)
	}
	task := asynq.NewTask(string(JobTypeDialLead), payload, asynq.MaxRetry(0))
	opts := []asynq.Option{asynq.Queue("campaign")}
	if delay > 0 {
		opts = append(opts, asynq.ProcessIn(delay))
	}
	_, err = d.asynqClient.Enqueue(task, opts...)
	if err != nil {
		return fmt.Errorf("campaign: enqueue dial: %w", err)
	}
	return nil
}

// handleDialLead is the asynq handler registered against JobTypeDialLead.
// asynq owns job-level retry bookkeeping only for transport failures against
// Redis itself; the spec's 2-retry/2s-backoff policy for the dial itself is
// implemented explicitly in dialOnce/enqueueDial so it stays independent of
// asynq's own (unrelated) retry machinery.
func (d *Dispatcher) handleDialLead(ctx context.Context, t *asynq.Task) error {
	var p dialPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("campaign: unmarshal dial payload: %w", err)
	}
	d.dialOnce(ctx, p.CampaignID, p.LeadID, p.Attempt)
	return nil
}
