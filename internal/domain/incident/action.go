package incident

import (
	"encoding/json"
	"fmt"
	"strings"
)

// actionDelimiter separates decision, environment and incident id inside an
// action identifier: "approve::prod::abc123".
const actionDelimiter = "::"

// Callback payload kinds accepted by DecodeAction. Anything else fails closed.
const (
	KindBlockActions       = "block_actions"
	KindInteractiveMessage = "interactive_message"
	KindLegacy             = ""
)

// decisionLiterals maps the accepted button literals to decisions.
// The *_remediation forms are the values used by the original alert buttons.
var decisionLiterals = map[string]Decision{
	"approve":             DecisionApprove,
	"reject":              DecisionReject,
	"approve_remediation": DecisionApprove,
	"reject_remediation":  DecisionReject,
}

// Action is the normalized decision record extracted from a callback.
// Decision is DecisionUnknown when no known decision could be resolved; the
// caller must audit that outcome rather than drop it.
type Action struct {
	Kind        string
	Decision    Decision
	Environment string
	IncidentID  string
	Actor       string
	Routing     Routing
	// Label is the raw action identifier or value, kept for auditing.
	Label string
}

// Known reports whether a decision was resolved.
func (a Action) Known() bool {
	return a.Decision != DecisionUnknown
}

type callbackUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type callbackAction struct {
	ActionID string `json:"action_id"`
	Name     string `json:"name"`
	Value    string `json:"value"`
}

// callbackPayload enumerates every field the known callback shapes carry.
type callbackPayload struct {
	Type    string           `json:"type"`
	User    callbackUser     `json:"user"`
	Actions []callbackAction `json:"actions"`
	Channel struct {
		ID string `json:"id"`
	} `json:"channel"`
	Container struct {
		ChannelID string `json:"channel_id"`
		MessageTS string `json:"message_ts"`
	} `json:"container"`
	Message struct {
		TS string `json:"ts"`
	} `json:"message"`
	MessageTS       string `json:"message_ts"`
	OriginalMessage struct {
		TS string `json:"ts"`
	} `json:"original_message"`
	ResponseURL string `json:"response_url"`
}

// DecodeAction parses a JSON callback payload into an Action.
// It returns an error only when the payload is not a JSON object of the
// expected field types; unrecognized shapes and decisions yield an Action
// with DecisionUnknown.
func DecodeAction(payload []byte) (Action, error) {
	var raw callbackPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Action{}, fmt.Errorf("parse callback payload: %w", err)
	}

	a := Action{
		Kind:    raw.Type,
		Actor:   actorOf(raw.User),
		Routing: routingOf(&raw),
	}

	switch raw.Type {
	case KindBlockActions, KindInteractiveMessage, KindLegacy:
	default:
		a.Label = raw.Type
		return a, nil
	}

	if len(raw.Actions) == 0 {
		return a, nil
	}

	act := raw.Actions[0]
	id := act.ActionID
	if id == "" && raw.Type != KindBlockActions {
		id = act.Name
	}
	a.Label = id
	if a.Label == "" {
		a.Label = act.Value
	}

	a.Decision, a.Environment, a.IncidentID = resolveDecision(id, act.Value)
	return a, nil
}

// resolveDecision applies the resolution order: a full
// decision::environment::incident_id triple, then a bare decision prefix in
// the identifier, then a plain decision value. A delimited identifier with an
// unrecognised prefix never falls back to the value.
func resolveDecision(actionID, value string) (d Decision, env, incidentID string) {
	if actionID != "" {
		parts := strings.SplitN(actionID, actionDelimiter, 3)
		if dec, ok := decisionLiterals[parts[0]]; ok {
			if len(parts) == 3 {
				return dec, parts[1], parts[2]
			}
			return dec, "", ""
		}
		if len(parts) > 1 {
			return DecisionUnknown, "", ""
		}
	}
	if dec, ok := decisionLiterals[value]; ok {
		return dec, "", ""
	}
	return DecisionUnknown, "", ""
}

func actorOf(u callbackUser) string {
	switch {
	case u.ID != "":
		return u.ID
	case u.Username != "":
		return u.Username
	case u.Name != "":
		return u.Name
	default:
		return UnknownActor
	}
}

func routingOf(raw *callbackPayload) Routing {
	return Routing{
		Channel: firstNonEmpty(raw.Channel.ID, raw.Container.ChannelID),
		Thread:  firstNonEmpty(raw.Container.MessageTS, raw.Message.TS, raw.MessageTS, raw.OriginalMessage.TS),
		URL:     raw.ResponseURL,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
