// Package portalapi is the outbound client for the remote consultation
// service. It translates HTTP outcomes into the classified error taxonomy
// and nothing else: retry policy belongs to the invoker, so resty's own
// retry stays disabled.
package portalapi

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"telemed-portal/internal/apperr"
	"telemed-portal/internal/consultation"
	"telemed-portal/internal/diagnosis"
	"telemed-portal/internal/platform/session"
)

type Client struct {
	httpClient *resty.Client
	tokens     session.TokenSource
	logger     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, tokens session.TokenSource, logger *zap.Logger) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: rc,
		tokens:     tokens,
		logger:     logger,
	}
}

// errorEnvelope is the error body shape the consultation service returns.
type errorEnvelope struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e errorEnvelope) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

type listResponse struct {
	Consultations []consultation.Record `json:"consultations"`
	Total         int                   `json:"total"`
}

// ActionResult is the acknowledgement returned by the side-effecting
// prescription commands.
type ActionResult struct {
	Message      string `json:"message"`
	DraftPDFURL  string `json:"draftPdfUrl,omitempty"`
	SignedPDFURL string `json:"signedPdfUrl,omitempty"`
}

type signRequest struct {
	Password string `json:"password"`
	MFACode  string `json:"mfaCode,omitempty"`
}

func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	return c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(token), nil
}

// check folds a resty outcome into a classified error, or nil on success.
func (c *Client) check(resp *resty.Response, err error, op string) error {
	if err != nil {
		c.logger.Warn("consultation API unreachable",
			zap.String("op", op),
			zap.Error(err),
		)
		return apperr.Newf(apperr.Network, "%s: %v", op, err)
	}
	if resp.IsError() {
		env, _ := resp.Error().(*errorEnvelope)
		msg := ""
		if env != nil {
			msg = env.text()
		}
		c.logger.Warn("consultation API error",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode()),
			zap.String("message", msg),
		)
		return apperr.FromStatus(resp.StatusCode(), msg)
	}
	return nil
}

func (c *Client) GetConsultation(ctx context.Context, id string) (*consultation.Record, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	var record consultation.Record
	resp, err := req.
		SetResult(&record).
		SetError(&errorEnvelope{}).
		Get("/consultations/" + id)
	if err := c.check(resp, err, "get consultation"); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *Client) ListMyConsultations(ctx context.Context) ([]consultation.Record, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	var list listResponse
	resp, err := req.
		SetResult(&list).
		SetError(&errorEnvelope{}).
		Get("/consultations/doctor/me")
	if err := c.check(resp, err, "list consultations"); err != nil {
		return nil, err
	}
	return list.Consultations, nil
}

func (c *Client) GetWorkspace(ctx context.Context, id string) (*consultation.Workspace, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	var ws consultation.Workspace
	resp, err := req.
		SetResult(&ws).
		SetError(&errorEnvelope{}).
		Get("/consultations/" + id + "/prescription/workspace")
	if err := c.check(resp, err, "get workspace"); err != nil {
		return nil, err
	}
	return &ws, nil
}

// ModifyDiagnosis submits a partial diagnosis patch. An empty patch tells
// the service to initialize the doctor diagnosis from the AI output.
func (c *Client) ModifyDiagnosis(ctx context.Context, id string, patch diagnosis.Patch) (*consultation.Record, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	var record consultation.Record
	resp, err := req.
		SetBody(patch).
		SetResult(&record).
		SetError(&errorEnvelope{}).
		Put("/consultations/" + id + "/prescription/diagnosis/modify")
	if err := c.check(resp, err, "modify diagnosis"); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *Client) SaveDraft(ctx context.Context, id string) (*ActionResult, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	var result ActionResult
	resp, err := req.
		SetResult(&result).
		SetError(&errorEnvelope{}).
		Put("/consultations/" + id + "/prescription/draft")
	if err := c.check(resp, err, "save draft"); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GeneratePreview(ctx context.Context, id string) (*ActionResult, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	var result ActionResult
	resp, err := req.
		SetResult(&result).
		SetError(&errorEnvelope{}).
		Post("/consultations/" + id + "/prescription/generate-preview")
	if err := c.check(resp, err, "generate preview"); err != nil {
		return nil, err
	}
	return &result, nil
}

// SignAndSend forwards the freshly supplied credential with the command.
// The credential is never cached here; a wrong password comes back as a
// client error and is surfaced without retry.
func (c *Client) SignAndSend(ctx context.Context, id, password, mfaCode string) (*ActionResult, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	var result ActionResult
	resp, err := req.
		SetBody(signRequest{Password: password, MFACode: mfaCode}).
		SetResult(&result).
		SetError(&errorEnvelope{}).
		Post("/consultations/" + id + "/prescription/sign-and-send")
	if err := c.check(resp, err, "sign and send"); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) CompleteConsultation(ctx context.Context, id string) (*ActionResult, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	var result ActionResult
	resp, err := req.
		SetResult(&result).
		SetError(&errorEnvelope{}).
		Post("/consultations/" + id + "/prescription/complete-consultation")
	if err := c.check(resp, err, "complete consultation"); err != nil {
		return nil, err
	}
	return &result, nil
}
