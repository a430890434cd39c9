package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/northlane/voicebridge/internal/campaign"
)

// OutboundConfig is one carrier's REST call-placement endpoint and
// credentials, matching config.CarrierCredentials.
type OutboundConfig struct {
	CallAPI   string
	AccountID string
	AuthToken string
}

// createCallReq is the minimal outbound-call request body both carriers'
// REST APIs are assumed to accept; carrier-specific field names beyond this
// are out of scope (spec §1 non-goal on concrete third-party carrier
// wire formats -- the two media-stream protocols in spec §4.3 are the only
// contractually specified surfaces).
type createCallReq struct {
	To          string `json:"to"`
	CallbackURL string `json:"statusCallbackUrl"`
	ClientState string `json:"clientState"`
}

type createCallResp struct {
	CallID string `json:"callId"`
}

// Initiator places outbound call legs against a carrier's REST API,
// implementing campaign.CallInitiator (spec §4.9), grounded on the
// teacher's pkg/io/tts/piper.Piper net/http.Client REST-client shape.
type Initiator struct {
	cfg            OutboundConfig
	client         *http.Client
	statusCallback string
}

// NewInitiator builds an Initiator. statusCallbackURL is the fully-qualified
// PUBLIC_BASE_URL endpoint the carrier will POST call-status callbacks to
// (spec §4.9: "reconciliation driven by carrier status callbacks").
func NewInitiator(cfg OutboundConfig, statusCallbackURL string) *Initiator {
	return &Initiator{
		cfg:            cfg,
		client:         &http.Client{Timeout: 10 * time.Second},
		statusCallback: statusCallbackURL,
	}
}

// InitiateCall places one outbound call leg for leadID, returning the
// carrier's call identifier. Transport-level and 5xx failures are reported
// as retryable (spec §4.9: "Retries per call: up to 2 on transient errors").
func (i *Initiator) InitiateCall(ctx context.Context, campaignID, leadID, agentID, phoneNumber string) (string, error) {
	body, err := json.Marshal(createCallReq{
		To:          phoneNumber,
		CallbackURL: i.statusCallback,
		ClientState: campaignID + ":" + leadID + ":" + agentID,
	})
	if err != nil {
		return "", &campaign.InitiateError{Retryable: false, Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.cfg.CallAPI, bytes.NewReader(body))
	if err != nil {
		return "", &campaign.InitiateError{Retryable: false, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+i.cfg.AuthToken)

	resp, err := i.client.Do(req)
	if err != nil {
		return "", &campaign.InitiateError{Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 500 {
		return "", &campaign.InitiateError{Retryable: true, Err: fmt.Errorf("carrier http %d: %s", resp.StatusCode, respBody)}
	}
	if resp.StatusCode >= 400 {
		return "", &campaign.InitiateError{Retryable: false, Err: fmt.Errorf("carrier http %d: %s", resp.StatusCode, respBody)}
	}

	var parsed createCallResp
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &campaign.InitiateError{Retryable: false, Err: fmt.Errorf("decode response: %w", err)}
	}
	return parsed.CallID, nil
}
