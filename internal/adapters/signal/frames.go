package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/recruit/internal/core"
	"github.com/dkeye/recruit/internal/domain"
)

// Inbound frame types.
const (
	FrameInteract = "interact"
	FrameSetup    = "setup"
	FramePing     = "ping"
	FrameWhoAmI   = "whoami"
)

// Message operations.
const (
	OpSend   = "send"
	OpEdit   = "edit"
	OpDelete = "delete"
	OpCreate = "create"
)

type inboundFrame struct {
	Type    string            `json:"type"`
	Control string            `json:"control,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Channel string            `json:"channel,omitempty"`
}

type messageFrame struct {
	Type string            `json:"type"`
	Op   string            `json:"op"`
	Ref  domain.MessageRef `json:"ref"`
	View *core.View        `json:"view,omitempty"`
}

type roomFrame struct {
	Type string          `json:"type"`
	Op   string          `json:"op"`
	ID   domain.RoomID   `json:"id"`
	Name domain.RoomName `json:"name,omitempty"`
}

type noticeFrame struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type formFrame struct {
	Type    string           `json:"type"`
	Control string           `json:"control"`
	Title   string           `json:"title"`
	Fields  []core.FormField `json:"fields"`
}

type whoamiFrame struct {
	Type  string        `json:"type"`
	Actor domain.UserID `json:"actor"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func marshalFrame(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.signal").Msg("marshal frame")
	}
	return b, err
}
