// Package loki pushes session events consumed from Kafka to Grafana Loki.
package loki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"devicesession/backend/internal/telemetry/domain"
)

// jobLabel is the job label on every pushed stream.
const jobLabel = "devicesession"

// PushRequest is the Loki push API request body (v1).
type PushRequest struct {
	Streams []Stream `json:"streams"`
}

// Stream is a single stream with labels and log entries.
type Stream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"` // each entry is [timestamp_ns, log_line]
}

// labelSanitize replaces characters that are invalid in Loki label values.
var labelSanitize = regexp.MustCompile(`[^a-zA-Z0-9_\-:]`)

// Client pushes log lines to a Loki instance.
type Client struct {
	baseURL string
	http    *http.Client
	nowF    func() time.Time
}

// NewClient returns a Client for baseURL (e.g. http://localhost:3100).
func NewClient(baseURL string) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("loki: base URL is empty")
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		nowF:    time.Now,
	}, nil
}

// PushEventJSON parses a session event (Kafka message value) for its timestamp and low-cardinality
// labels and pushes the raw JSON as the log line. Unparseable input is pushed with the current time.
// User and device ids stay in the line, not in labels.
func (c *Client) PushEventJSON(ctx context.Context, rawJSON []byte) error {
	labels := map[string]string{}
	ts := c.nowF().UTC()
	var event domain.SessionEvent
	if err := json.Unmarshal(rawJSON, &event); err == nil {
		if event.Type != "" {
			labels["event_type"] = string(event.Type)
		}
		if !event.OccurredAt.IsZero() {
			ts = event.OccurredAt
		}
	}
	return c.Push(ctx, ts, string(rawJSON), labels)
}

// Push sends a single log line with the given labels. Returns an error if the request fails
// or Loki returns non-2xx.
func (c *Client) Push(ctx context.Context, timestamp time.Time, line string, labels map[string]string) error {
	streamLabels := make(map[string]string, len(labels)+1)
	streamLabels["job"] = jobLabel
	for k, v := range labels {
		if sanitized := labelSanitize.ReplaceAllString(strings.TrimSpace(v), "_"); sanitized != "" {
			streamLabels[k] = sanitized
		}
	}
	payload, err := json.Marshal(PushRequest{
		Streams: []Stream{{
			Stream: streamLabels,
			Values: [][]string{{strconv.FormatInt(timestamp.UnixNano(), 10), line}},
		}},
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/loki/api/v1/push", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("loki: push returned %s", resp.Status)
	}
	return nil
}
