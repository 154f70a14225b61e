package sensors

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/roadsense/autobrake/internal/control"
	"github.com/roadsense/autobrake/internal/models"
)

// Reporter defines how the agent delivers sensor events.
type Reporter interface {
	Report(ctx context.Context, env models.Envelope) error
}

// BusReporter publishes events straight onto a local dispatcher (for
// single-process mode).
type BusReporter struct {
	dispatcher *control.Dispatcher
}

func NewBusReporter(d *control.Dispatcher) *BusReporter {
	return &BusReporter{dispatcher: d}
}

func (r *BusReporter) Report(ctx context.Context, env models.Envelope) error {
	return control.Republish(r.dispatcher, env)
}

// HTTPReporter delivers events to a remote control plane.
type HTTPReporter struct {
	serverURL string
	token     string
	client    *http.Client
}

func NewHTTPReporter(serverURL, token string, insecure bool) *HTTPReporter {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if insecure {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		log.Info().Msg("insecure mode enabled: skipping TLS verification")
	}

	return &HTTPReporter{
		serverURL: serverURL,
		token:     token,
		client: &http.Client{
			Timeout:   5 * time.Second,
			Transport: tr,
		},
	}
}

func (r *HTTPReporter) Report(ctx context.Context, env models.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/report", r.serverURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(data))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("server returned status: %d", resp.StatusCode)
	}

	return nil
}
