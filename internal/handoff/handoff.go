// ABOUTME: Handoff protocol: applies backend reply effects to a transcript
// ABOUTME: Guarantees reply, notification, initial-reply ordering per round trip

package handoff

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/2389/parley/internal/convo"
)

// Instruction is the backend's request to transfer the session to
// another agent.
type Instruction struct {
	TargetAgentID     string `json:"targetAgentId"`
	TransitionMessage string `json:"transitionMessage,omitempty"`
	InitialReply      string `json:"initialReply,omitempty"`
}

// Reply is the backend chat response payload.
type Reply struct {
	Reply                string          `json:"reply"`
	EffectiveAssistantID string          `json:"effectiveAssistantId,omitempty"`
	Handoff              *Instruction    `json:"handoff,omitempty"`
	Debug                json.RawMessage `json:"debug,omitempty"`
}

// Apply appends the reply's effects to the record, always in this order:
// ordinary bot reply, handoff notification, initial reply from the new
// agent. The three may all come from one round trip but never interleave.
//
// An effectiveAssistantId that differs from the current active agent is a
// silent correction: the backend routed elsewhere without an explicit
// handoff, and the client's notion of "current agent" follows it with no
// transcript notice. An explicit handoff overrides the correction.
func Apply(rec *convo.Record, reply Reply, at time.Time) {
	if strings.TrimSpace(reply.Reply) != "" {
		rec.Messages = append(rec.Messages, convo.NewBotMessage(reply.Reply, at))
	}

	if id := strings.TrimSpace(reply.EffectiveAssistantID); id != "" && id != rec.ActiveAgentID {
		rec.ActiveAgentID = id
	}

	if reply.Handoff == nil {
		return
	}
	target := strings.TrimSpace(reply.Handoff.TargetAgentID)
	if target == "" {
		return
	}

	rec.Messages = append(rec.Messages, convo.NewHandoffNotice(noticeText(target, reply.Handoff.TransitionMessage), at))
	rec.ActiveAgentID = target

	if initial := strings.TrimSpace(reply.Handoff.InitialReply); initial != "" {
		rec.Messages = append(rec.Messages, convo.NewBotMessage(initial, at))
	}
}

// noticeText builds the transfer notification, naming the target agent.
func noticeText(target, transition string) string {
	if t := strings.TrimSpace(transition); t != "" {
		return fmt.Sprintf("[%s] %s", target, t)
	}
	return fmt.Sprintf("You are now chatting with %s.", target)
}
