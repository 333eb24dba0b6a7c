package adapter

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/ospolov/go-dm-client/models"
)

// Body messages the server uses to signal auth-flow conditions. They arrive
// on otherwise ordinary 4xx responses and take precedence over the bare
// status code.
const (
	msgLoginRequired      = "login_required"
	msgCheckpointRequired = "checkpoint_required"
	msgChallengeRequired  = "challenge_required"
)

// mapAPIError classifies a response into the transport error taxonomy:
// nil on success, ErrUnauthorized on login_required, a
// *ChallengeRequiredError on checkpoint_required, ErrRateLimited on 429 and
// *ServerError for everything else. The body envelope is decoded a second
// time here on purpose: classification must work even when the caller's
// typed decode failed.
func mapAPIError(resp *resty.Response) error {
	var envelope models.LoginResponse
	_ = json.Unmarshal(resp.Body(), &envelope)

	status := resp.StatusCode()
	if status >= http.StatusOK && status < http.StatusMultipleChoices && envelope.Status != "fail" {
		return nil
	}

	switch envelope.Message {
	case msgLoginRequired:
		return ErrUnauthorized
	case msgCheckpointRequired, msgChallengeRequired:
		return &ChallengeRequiredError{Challenge: challengeFromEnvelope(&envelope)}
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}

	body := strings.TrimSpace(string(resp.Body()))
	return &ServerError{Status: status, Body: body}
}

// challengeFromEnvelope builds the resumable challenge context out of a
// checkpoint response.
func challengeFromEnvelope(envelope *models.LoginResponse) models.AuthChallenge {
	challenge := models.AuthChallenge{Kind: models.ChallengeSecurity}
	if envelope.Challenge != nil {
		challenge.Identifier = envelope.Challenge.APIPath
	}
	return challenge
}
