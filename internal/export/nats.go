package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"route_ranker/internal/records"
)

// RankingMessage is the payload published to NATS after a ranking run.
type RankingMessage struct {
	RunID       int64                `json:"run_id,omitempty"`
	GeneratedAt string               `json:"generated_at"`
	Routes      []records.RouteScore `json:"routes"`
}

// PublishRanking publishes the ranked routes as one JSON message on the
// given subject and flushes before disconnecting.
func PublishRanking(url, subject string, runID int64, ranked []records.RouteScore) error {
	nc, err := nats.Connect(url,
		nats.Timeout(10*time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(3),
	)
	if err != nil {
		return fmt.Errorf("connect %s: %w", url, err)
	}
	defer nc.Close()

	msg := RankingMessage{
		RunID:       runID,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Routes:      ranked,
	}
	if msg.Routes == nil {
		msg.Routes = []records.RouteScore{}
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode ranking: %w", err)
	}

	if err := nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	if err := nc.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}
