package github

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

// PayloadLogger receives every HTTP 200 body before it is decoded.
type PayloadLogger interface {
	LogPayload(body []byte)
}

type nopLogger struct{}

func (nopLogger) LogPayload([]byte) {}

// NopLogger discards payloads.
func NopLogger() PayloadLogger {
	return nopLogger{}
}

type zerologPayloads struct {
	logger zerolog.Logger
}

// ZerologPayloads logs payloads at info level. Valid JSON is embedded as-is,
// anything else as a string.
func ZerologPayloads(logger zerolog.Logger) PayloadLogger {
	return zerologPayloads{logger: logger}
}

func (z zerologPayloads) LogPayload(body []byte) {
	event := z.logger.Info().Int("bytes", len(body))
	if json.Valid(body) {
		event = event.RawJSON("payload", body)
	} else {
		event = event.Str("payload", string(body))
	}
	event.Msg("api response")
}
