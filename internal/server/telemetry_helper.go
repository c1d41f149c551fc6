package server

import (
	"time"

	"github.com/halcyon-ai/relaygw/internal/telemetry"
)

func telemetryRecord(requestID, model string, streamed, quotaRefreshed bool, errKind string, start time.Time) telemetry.RequestRecord {
	return telemetry.RequestRecord{
		ID:             requestID,
		Model:          model,
		Streamed:       streamed,
		DurationMS:     time.Since(start).Milliseconds(),
		QuotaRefreshed: quotaRefreshed,
		ErrorKind:      errKind,
		CreatedAt:      start,
	}
}
