// Package prescription drives the consultation-to-prescription workflow:
// diagnosis reconciliation, the draft/preview/sign state machine, and
// consultation completion.
package prescription

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"telemed-portal/internal/apperr"
	"telemed-portal/internal/audit"
	"telemed-portal/internal/consultation"
	"telemed-portal/internal/diagnosis"
	"telemed-portal/internal/platform/portalapi"
)

// RecordSource resolves consultations with the two-path permission logic.
type RecordSource interface {
	Get(ctx context.Context, id string) (*consultation.Record, error)
}

// API is the remote prescription surface consumed by the controller.
type API interface {
	GetWorkspace(ctx context.Context, id string) (*consultation.Workspace, error)
	ModifyDiagnosis(ctx context.Context, id string, patch diagnosis.Patch) (*consultation.Record, error)
	SaveDraft(ctx context.Context, id string) (*portalapi.ActionResult, error)
	GeneratePreview(ctx context.Context, id string) (*portalapi.ActionResult, error)
	SignAndSend(ctx context.Context, id, password, mfaCode string) (*portalapi.ActionResult, error)
	CompleteConsultation(ctx context.Context, id string) (*portalapi.ActionResult, error)
}

// CommandRunner executes a named remote command with the retry policy.
type CommandRunner interface {
	Invoke(ctx context.Context, name string, fn func(context.Context) error) error
}

// Outcome is what a successful lifecycle command hands back: the
// authoritative post-command record plus the remote acknowledgement.
type Outcome struct {
	Record       *consultation.Record `json:"consultation"`
	Message      string               `json:"message,omitempty"`
	DraftPDFURL  string               `json:"draftPdfUrl,omitempty"`
	SignedPDFURL string               `json:"signedPdfUrl,omitempty"`
}

// Controller orchestrates the gateway, the reconciliation engine and the
// invoker. Operations for the same consultation are serialized; different
// consultations proceed independently.
type Controller struct {
	records RecordSource
	api     API
	runner  CommandRunner
	audit   audit.Recorder
	logger  *zap.Logger
	now     func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewController(records RecordSource, api API, runner CommandRunner, recorder audit.Recorder, logger *zap.Logger) *Controller {
	return &Controller{
		records: records,
		api:     api,
		runner:  runner,
		audit:   recorder,
		logger:  logger,
		now:     time.Now,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (c *Controller) lockFor(id string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.locks[id]; !ok {
		c.locks[id] = &sync.Mutex{}
	}
	return c.locks[id]
}

// canTransition is the prescription state machine. Draft and
// diagnosis-modification may be revisited after edits; signed/sent are
// terminal for everything except completing the consultation.
func canTransition(from, to consultation.PrescriptionStatus) bool {
	switch from {
	case consultation.PrescriptionNone:
		return to == consultation.PrescriptionDiagnosisModification
	case consultation.PrescriptionDiagnosisModification:
		return to == consultation.PrescriptionDraft ||
			to == consultation.PrescriptionDiagnosisModification
	case consultation.PrescriptionDraft:
		return to == consultation.PrescriptionAwaitingReview ||
			to == consultation.PrescriptionAwaitingSignature ||
			to == consultation.PrescriptionDiagnosisModification ||
			to == consultation.PrescriptionDraft
	case consultation.PrescriptionAwaitingReview, consultation.PrescriptionAwaitingSignature:
		return to == consultation.PrescriptionSigned ||
			to == consultation.PrescriptionSent ||
			to == consultation.PrescriptionDiagnosisModification
	}
	return false
}

func signedOrSent(s consultation.PrescriptionStatus) bool {
	return s == consultation.PrescriptionSigned || s == consultation.PrescriptionSent
}

// Workspace returns the aggregate physician view for one consultation. A
// denied workspace fetch falls back to the gateway's two-path resolution and
// rebuilds the view from the record.
func (c *Controller) Workspace(ctx context.Context, id string) (*consultation.Workspace, error) {
	ws, err := c.api.GetWorkspace(ctx, id)
	if err == nil {
		return ws, nil
	}
	if !apperr.Is(err, apperr.AccessDenied) {
		return nil, err
	}
	record, err := c.records.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return workspaceFromRecord(record), nil
}

func workspaceFromRecord(r *consultation.Record) *consultation.Workspace {
	return &consultation.Workspace{
		ConsultationID:            r.ConsultationID,
		StructuredAssessmentInput: r.StructuredAssessmentInput,
		AIAgentOutput:             r.AIAgentOutput,
		DoctorDiagnosis:           r.DoctorDiagnosis,
		PrescriptionStatus:        r.PrescriptionStatus,
		PatientInfo:               r.PatientInfo,
		HasDoctorDiagnosis:        r.DoctorDiagnosis != nil,
	}
}

// ModifyDiagnosis applies a partial edit to the doctor diagnosis, creating
// it from the AI output first if it does not exist yet. An empty patch with
// no existing diagnosis is exactly the initialize operation.
func (c *Controller) ModifyDiagnosis(ctx context.Context, id, physicianID string, patch diagnosis.Patch) (*consultation.Record, error) {
	if physicianID == "" {
		return nil, apperr.New(apperr.Validation, "physician identity is required for diagnosis edits")
	}
	lock := c.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	record, err := c.records.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if signedOrSent(record.PrescriptionStatus) {
		return nil, apperr.New(apperr.Validation, "prescription is already signed; the diagnosis can no longer be edited")
	}
	if record.AIAgentOutput == nil {
		return nil, apperr.New(apperr.Validation, "consultation has no clinical assessment to start from")
	}

	// Reconcile locally before submitting so the changelog the physician
	// sees matches what the service will store.
	var next consultation.DoctorDiagnosis
	if record.DoctorDiagnosis == nil {
		next = diagnosis.InitializeFromAI(*record.AIAgentOutput, physicianID, c.now())
		if !patch.IsEmpty() {
			next = diagnosis.ApplyModification(*record.AIAgentOutput, next, patch, physicianID, c.now())
		}
	} else {
		next = diagnosis.ApplyModification(*record.AIAgentOutput, *record.DoctorDiagnosis, patch, physicianID, c.now())
	}

	updated, err := c.api.ModifyDiagnosis(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	c.recordTransition(ctx, record, updated, physicianID, "modify-diagnosis", false, "")
	c.logger.Info("diagnosis reconciled",
		zap.String("consultation_id", id),
		zap.String("physician_id", physicianID),
		zap.Strings("changes_from_ai", next.ChangesFromAI),
	)
	return updated, nil
}

// SaveDraft persists the prescription draft remotely and moves the workflow
// into the draft state.
func (c *Controller) SaveDraft(ctx context.Context, id, actor string) (*Outcome, error) {
	lock := c.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	record, err := c.records.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.DoctorDiagnosis == nil {
		return nil, apperr.New(apperr.Validation, "no doctor diagnosis to save a draft from")
	}
	if !canTransition(record.PrescriptionStatus, consultation.PrescriptionDraft) {
		return nil, apperr.Newf(apperr.Validation, "cannot save a draft while the prescription is %s", record.PrescriptionStatus)
	}

	var result *portalapi.ActionResult
	err = c.runner.Invoke(ctx, "save-draft:"+id, func(ctx context.Context) error {
		var cmdErr error
		result, cmdErr = c.api.SaveDraft(ctx, id)
		return cmdErr
	})
	if err != nil {
		return nil, err
	}
	return c.finish(ctx, record, result, actor, "save-draft", false, "")
}

// GeneratePreview asks the service to render the draft document.
func (c *Controller) GeneratePreview(ctx context.Context, id, actor string) (*Outcome, error) {
	lock := c.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	record, err := c.records.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTransition(record.PrescriptionStatus, consultation.PrescriptionAwaitingReview) {
		return nil, apperr.Newf(apperr.Validation, "cannot generate a preview while the prescription is %s", record.PrescriptionStatus)
	}

	var result *portalapi.ActionResult
	err = c.runner.Invoke(ctx, "generate-preview:"+id, func(ctx context.Context) error {
		var cmdErr error
		result, cmdErr = c.api.GeneratePreview(ctx, id)
		return cmdErr
	})
	if err != nil {
		return nil, err
	}
	return c.finish(ctx, record, result, actor, "generate-preview", false, "")
}

// SignAndSend signs the prescription with a freshly supplied credential.
// The transition is refused locally, without touching the remote, when the
// diagnosis has no finalized diagnoses.
func (c *Controller) SignAndSend(ctx context.Context, id, actor, password, mfaCode string) (*Outcome, error) {
	lock := c.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	record, err := c.records.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.DoctorDiagnosis == nil || len(record.DoctorDiagnosis.PossibleDiagnoses) == 0 {
		return nil, apperr.New(apperr.Validation, "at least one diagnosis is required before signing")
	}
	if !canTransition(record.PrescriptionStatus, consultation.PrescriptionSigned) {
		return nil, apperr.Newf(apperr.Validation, "cannot sign while the prescription is %s", record.PrescriptionStatus)
	}
	if password == "" {
		return nil, apperr.New(apperr.Validation, "password is required to sign")
	}

	var result *portalapi.ActionResult
	err = c.runner.Invoke(ctx, "sign-and-send:"+id, func(ctx context.Context) error {
		var cmdErr error
		result, cmdErr = c.api.SignAndSend(ctx, id, password, mfaCode)
		return cmdErr
	})
	if err != nil {
		return nil, err
	}
	return c.finish(ctx, record, result, actor, "sign-and-send", false, "")
}

// CompleteConsultation closes the consultation. Allowed once the
// prescription is signed or sent; an operator override skips that guard but
// is recorded with its reason.
func (c *Controller) CompleteConsultation(ctx context.Context, id, actor string, override bool, overrideReason string) (*Outcome, error) {
	lock := c.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	record, err := c.records.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !signedOrSent(record.PrescriptionStatus) {
		if !override {
			return nil, apperr.New(apperr.Validation, "consultation can only be completed after the prescription is signed or sent")
		}
		if overrideReason == "" {
			return nil, apperr.New(apperr.Validation, "an override reason is required to complete without a signed prescription")
		}
		c.logger.Warn("completing consultation via operator override",
			zap.String("consultation_id", id),
			zap.String("actor", actor),
			zap.String("reason", overrideReason),
		)
	}

	var result *portalapi.ActionResult
	err = c.runner.Invoke(ctx, "complete-consultation:"+id, func(ctx context.Context) error {
		var cmdErr error
		result, cmdErr = c.api.CompleteConsultation(ctx, id)
		return cmdErr
	})
	if err != nil {
		return nil, err
	}
	return c.finish(ctx, record, result, actor, "complete-consultation", override, overrideReason)
}

// finish refreshes the record through the gateway so callers see the
// service's state, not a local guess, then records the audit transition.
func (c *Controller) finish(ctx context.Context, before *consultation.Record, result *portalapi.ActionResult, actor, command string, override bool, overrideReason string) (*Outcome, error) {
	fresh, err := c.records.Get(ctx, before.ID)
	if err != nil {
		// The command succeeded server-side; surface the fresh-fetch
		// failure but keep the acknowledgement.
		c.logger.Warn("post-command refresh failed",
			zap.String("consultation_id", before.ID),
			zap.String("command", command),
			zap.Error(err),
		)
		return nil, err
	}

	c.recordTransition(ctx, before, fresh, actor, command, override, overrideReason)

	outcome := &Outcome{Record: fresh}
	if result != nil {
		outcome.Message = result.Message
		outcome.DraftPDFURL = result.DraftPDFURL
		outcome.SignedPDFURL = result.SignedPDFURL
	}
	if outcome.DraftPDFURL == "" {
		outcome.DraftPDFURL = fresh.DraftPDFURL
	}
	if outcome.SignedPDFURL == "" {
		outcome.SignedPDFURL = fresh.SignedPDFURL
	}
	return outcome, nil
}

func (c *Controller) recordTransition(ctx context.Context, before, after *consultation.Record, actor, command string, override bool, overrideReason string) {
	if before.PrescriptionStatus == after.PrescriptionStatus && command != "complete-consultation" {
		return
	}
	err := c.audit.RecordTransition(ctx, audit.Event{
		ConsultationID: before.ID,
		From:           before.PrescriptionStatus,
		To:             after.PrescriptionStatus,
		Actor:          actor,
		Command:        command,
		Override:       override,
		OverrideReason: overrideReason,
		At:             c.now(),
	})
	if err != nil {
		// Audit is an operational record, not a gate: the transition
		// already happened server-side.
		c.logger.Warn("failed to record transition",
			zap.String("consultation_id", before.ID),
			zap.String("command", command),
			zap.Error(err),
		)
	}
}
