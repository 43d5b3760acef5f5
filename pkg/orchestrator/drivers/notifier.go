package drivers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPInstanceNotifier posts a shutdown notice directly to an instance
// container's internal hostname. The call is advisory: callers are expected
// to swallow its error, per spec.md §4.4's NotifyShuttingDown step.
type HTTPInstanceNotifier struct {
	client http.Client
}

// NewHTTPInstanceNotifier builds an InstanceNotifier with the fixed 4s
// timeout spec.md §5 mandates for this call.
func NewHTTPInstanceNotifier() *HTTPInstanceNotifier {
	return &HTTPInstanceNotifier{client: http.Client{Timeout: 4 * time.Second}}
}

type shutdownNotice struct {
	Reason string `json:"reason"`
}

func (n *HTTPInstanceNotifier) NotifyShuttingDown(ctx context.Context, hostname, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, 4*time.Second)
	defer cancel()

	body, err := json.Marshal(shutdownNotice{Reason: reason})
	if err != nil {
		return fmt.Errorf("marshalling shutdown notice: %w", err)
	}

	url := fmt.Sprintf("http://%s/internal/shutting-down", hostname)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating shutdown notice request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting shutdown notice to %s: %w", hostname, err)
	}
	defer func() { _ = resp.Body.Close() }()
	return nil
}
