// Package server translates WebSocket frames into typed chat events and
// chat payloads back into frames.
package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/robflop/chatron-server/internal/chat"
)

var errUnknownEvent = errors.New("unknown event")

// envelope is the frame shape in both directions.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outboundEnvelope struct {
	Event string       `json:"event"`
	Data  chat.Payload `json:"data"`
}

// decodeEvent validates the frame shape and returns the matching event variant.
func decodeEvent(raw []byte) (chat.Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Event {
	case chat.EventLogin:
		return decodeData[chat.Login](env.Data)
	case chat.EventChannelJoin:
		return decodeData[chat.ChannelJoin](env.Data)
	case chat.EventChannelLeave:
		return decodeData[chat.ChannelLeave](env.Data)
	case chat.EventMessage:
		return decodeData[chat.PostMessage](env.Data)
	case chat.EventLogout:
		return chat.Logout{}, nil
	default:
		return nil, fmt.Errorf("%w %q", errUnknownEvent, env.Event)
	}
}

func decodeData[T chat.Event](data json.RawMessage) (chat.Event, error) {
	var evt T
	if len(data) == 0 {
		return evt, nil
	}
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, fmt.Errorf("invalid %s data: %w", evt.Name(), err)
	}
	return evt, nil
}

func encodePayload(payload chat.Payload) ([]byte, error) {
	return json.Marshal(outboundEnvelope{Event: payload.Name(), Data: payload})
}
