package signal

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Backstage/internal/domain"
)

// Call-signaling events. The server relays SDP and ICE envelopes between
// two room sockets and never touches the media itself; peers connect
// directly once a speaker upgrade triggers a call.
const (
	EventCallOffer     = "callOffer"
	EventCallAnswer    = "callAnswer"
	EventCallCandidate = "callCandidate"
)

type callEnvelope struct {
	To          domain.ConnectionID        `json:"to"`
	From        domain.ConnectionID        `json:"from"`
	Description *webrtc.SessionDescription `json:"description,omitempty"`
	Candidate   *webrtc.ICECandidateInit   `json:"candidate,omitempty"`
}

// relayCall forwards a call-signaling envelope to its target connection,
// stamping the sender so the receiver knows whom to answer.
func (h *Hub) relayCall(cid domain.ConnectionID, env envelope) {
	var call callEnvelope
	if err := json.Unmarshal(env.Payload, &call); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("bad call payload")
		return
	}
	if call.To == "" {
		log.Warn().Str("module", "signal").Str("cid", string(cid)).Msg("call envelope without target")
		return
	}

	switch env.Event {
	case EventCallOffer:
		if call.Description == nil || call.Description.Type != webrtc.SDPTypeOffer {
			log.Warn().Str("module", "signal").Str("cid", string(cid)).Msg("call offer without offer SDP")
			return
		}
	case EventCallAnswer:
		if call.Description == nil || call.Description.Type != webrtc.SDPTypeAnswer {
			log.Warn().Str("module", "signal").Str("cid", string(cid)).Msg("call answer without answer SDP")
			return
		}
	case EventCallCandidate:
		if call.Candidate == nil {
			log.Warn().Str("module", "signal").Str("cid", string(cid)).Msg("call candidate without candidate")
			return
		}
	}

	call.From = cid
	h.ToConnection(call.To, env.Event, call)
	log.Debug().Str("module", "signal").Str("from", string(cid)).Str("to", string(call.To)).Str("event", env.Event).Msg("call envelope relayed")
}
