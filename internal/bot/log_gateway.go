package bot

import (
	"context"

	"github.com/rs/zerolog"
)

// LogGateway is a loopback Gateway that records every outbound message to a
// structured logger instead of a messaging platform. It is the default
// transport for local runs and tests; a real platform adapter replaces it in
// deployment.
type LogGateway struct {
	Log zerolog.Logger
}

// Send logs the delivery and always succeeds.
func (g *LogGateway) Send(ctx context.Context, to int64, text string, buttons ...Button) error {
	ev := g.Log.Info().Int64("to", to).Str("text", text)
	if len(buttons) > 0 {
		data := make([]string, 0, len(buttons))
		for _, b := range buttons {
			data = append(data, b.Data)
		}
		ev = ev.Strs("buttons", data)
	}
	ev.Msg("outbound message")
	return nil
}
