package backoffice

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/devicelab-dev/backoffice-runner/pkg/core"
	"github.com/devicelab-dev/backoffice-runner/pkg/logger"
)

// DeactivateRegister posts {registerId} to settings/registers/deactivate.
// A non-2xx status is reported through Success, not as an error; only a
// request that never got a response fails.
func (s *Session) DeactivateRegister(ctx context.Context, registerID string) (*core.Result, error) {
	payload, err := json.Marshal(map[string]string{"registerId": registerID})
	if err != nil {
		return nil, core.ErrRequestFailure.WithMessage("encode deactivation body").WithCause(err)
	}

	logger.Info("Sending deactivation request to: %s", joinURL(s.baseURL, "settings/registers/deactivate"))
	logger.Debug("Request body: %s", payload)

	resp, err := s.request(ctx, http.MethodPost, "settings/registers/deactivate", "register_deactivate", jsonHeaders(), bytes.NewReader(payload))
	if err != nil {
		return nil, core.ErrRequestFailure.WithMessage("failed to deactivate register").WithCause(err)
	}

	logger.Info("Deactivation response status: %d", resp.status)

	return &core.Result{
		Status:  resp.status,
		Data:    Classify(resp.body).Data(),
		Success: resp.ok(),
	}, nil
}

// Readback is the outcome of a best-effort status check. Err is set when the
// request itself failed; Status is then 0.
type Readback struct {
	Status  int
	Data    interface{}
	Success bool
	Err     error
}

// CheckRegisterStatus reads settings/registers/<id> for diagnostics. It never
// fails: problems are logged and returned in the Readback.
func (s *Session) CheckRegisterStatus(ctx context.Context, registerID string) Readback {
	path := "settings/registers/" + url.PathEscape(registerID)
	logger.Info("Checking register status at: %s", joinURL(s.baseURL, path))

	resp, err := s.request(ctx, http.MethodGet, path, "register_status", http.Header{"Accept": {"application/json"}}, nil)
	if err != nil {
		logger.Warn("Error checking register status: %v", err)
		return Readback{Status: 0, Success: false, Err: err}
	}

	rb := Readback{
		Status:  resp.status,
		Data:    Classify(resp.body).Data(),
		Success: resp.ok(),
	}
	logger.Info("Register status check - Status: %d", rb.Status)
	logger.Debug("Register status check - Data: %v", rb.Data)
	return rb
}
