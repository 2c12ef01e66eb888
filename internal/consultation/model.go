package consultation

import (
	"time"

	"telemed-portal/internal/jsonval"
)

// ConsultationStatus is the lifecycle of the consultation itself.
type ConsultationStatus string

const (
	StatusPending            ConsultationStatus = "pending"
	StatusPaymentConfirmed   ConsultationStatus = "payment_confirmed"
	StatusAssessmentComplete ConsultationStatus = "clinical_assessment_complete"
	StatusActive             ConsultationStatus = "active"
	StatusCompleted          ConsultationStatus = "completed"
	StatusCancelled          ConsultationStatus = "cancelled"
)

// PrescriptionStatus is the prescription workflow state attached to a
// consultation. It advances monotonically except that the draft and
// diagnosis-modification states may be revisited after edits.
type PrescriptionStatus string

const (
	PrescriptionNone                  PrescriptionStatus = "none"
	PrescriptionDiagnosisModification PrescriptionStatus = "diagnosis_modification"
	PrescriptionDraft                 PrescriptionStatus = "prescription_draft"
	PrescriptionAwaitingReview        PrescriptionStatus = "awaiting_review"
	PrescriptionAwaitingSignature     PrescriptionStatus = "awaiting_signature"
	PrescriptionSigned                PrescriptionStatus = "signed"
	PrescriptionSent                  PrescriptionStatus = "sent"
)

// ModificationType records how the doctor diagnosis came to be.
type ModificationType string

const (
	ModificationInitial ModificationType = "initial"
	ModificationEdited  ModificationType = "edited"
)

// PatientInfo is the patient reference owned by the external patient
// directory. The portal never mutates it.
type PatientInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

type PaymentInfo struct {
	Amount   float64    `json:"amount"`
	Currency string     `json:"currency"`
	Status   string     `json:"status"`
	PaidAt   *time.Time `json:"paidAt,omitempty"`
}

// PossibleDiagnosis is one candidate produced by the clinical-inference
// collaborator. ConfidenceScore is in [0,1].
type PossibleDiagnosis struct {
	Name            string  `json:"name"`
	ConfidenceScore float64 `json:"confidence_score"`
	Description     string  `json:"description,omitempty"`
}

type InvestigationTest struct {
	Name     string `json:"name"`
	Priority string `json:"priority,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type InvestigationCategory struct {
	Category string              `json:"category"`
	Tests    []InvestigationTest `json:"tests"`
}

// TreatmentRecommendations carries both fixed text fields and fields whose
// shape varies across records (plain strings in one, structured entries in
// another), hence jsonval.Value.
type TreatmentRecommendations struct {
	PrimaryTreatment       string        `json:"primary_treatment,omitempty"`
	SafeMedications        jsonval.Value `json:"safe_medications,omitempty"`
	LifestyleModifications jsonval.Value `json:"lifestyle_modifications,omitempty"`
	DietaryAdvice          jsonval.Value `json:"dietary_advice,omitempty"`
	FollowUpTimeline       string        `json:"follow_up_timeline,omitempty"`
}

// AIAgentOutput is the machine-generated clinical assessment. It is
// immutable once attached to a consultation.
type AIAgentOutput struct {
	PossibleDiagnoses         []PossibleDiagnosis      `json:"possible_diagnoses"`
	ClinicalReasoning         string                   `json:"clinical_reasoning,omitempty"`
	RecommendedInvestigations []InvestigationCategory  `json:"recommended_investigations,omitempty"`
	TreatmentRecommendations  TreatmentRecommendations `json:"treatment_recommendations"`
	PatientEducation          jsonval.Value            `json:"patient_education,omitempty"`
	WarningSigns              jsonval.Value            `json:"warning_signs,omitempty"`
	ConfidenceScore           float64                  `json:"confidence_score"`
}

// DoctorDiagnosis is the physician's finalized version of the AI output.
// Diagnoses are plain strings because the physician settles the names.
// ChangesFromAI lists the fields that differ from a fresh copy of the AI
// baseline, re-derived on every modification.
type DoctorDiagnosis struct {
	PossibleDiagnoses         []string                 `json:"possible_diagnoses"`
	ClinicalReasoning         string                   `json:"clinical_reasoning,omitempty"`
	RecommendedInvestigations []InvestigationCategory  `json:"recommended_investigations,omitempty"`
	TreatmentRecommendations  TreatmentRecommendations `json:"treatment_recommendations"`
	PatientEducation          jsonval.Value            `json:"patient_education,omitempty"`
	WarningSigns              jsonval.Value            `json:"warning_signs,omitempty"`
	ConfidenceScore           float64                  `json:"confidence_score"`

	ModifiedAt        time.Time        `json:"modifiedAt"`
	ModifiedBy        string           `json:"modifiedBy"`
	ModificationType  ModificationType `json:"modificationType"`
	ModificationNotes string           `json:"modificationNotes,omitempty"`
	ChangesFromAI     []string         `json:"changesFromAI"`
}

// Record is the top-level consultation entity. It is owned by the remote
// consultation service and only ever replaced whole from a fresh fetch,
// never merged locally.
type Record struct {
	ID                        string             `json:"id"`
	ConsultationID            string             `json:"consultationId"`
	PatientID                 string             `json:"patientId"`
	PatientInfo               PatientInfo        `json:"patientInfo"`
	Status                    ConsultationStatus `json:"status"`
	ConsultationType          string             `json:"consultationType,omitempty"`
	Priority                  string             `json:"priority,omitempty"`
	Payment                   PaymentInfo        `json:"payment"`
	StructuredAssessmentInput jsonval.Value      `json:"structuredAssessmentInput,omitempty"`
	AIAgentOutput             *AIAgentOutput     `json:"aiAgentOutput,omitempty"`
	DoctorDiagnosis           *DoctorDiagnosis   `json:"doctorDiagnosis,omitempty"`
	PrescriptionStatus        PrescriptionStatus `json:"prescriptionStatus"`
	DraftPDFURL               string             `json:"draftPdfUrl,omitempty"`
	SignedPDFURL              string             `json:"signedPdfUrl,omitempty"`
	CreatedAt                 time.Time          `json:"createdAt"`
	UpdatedAt                 time.Time          `json:"updatedAt"`
}

// Workspace is the aggregate view the physician works in: assessment input,
// AI output, doctor diagnosis and prescription state for one consultation.
type Workspace struct {
	ConsultationID            string             `json:"consultationId"`
	StructuredAssessmentInput jsonval.Value      `json:"structuredAssessmentInput,omitempty"`
	AIAgentOutput             *AIAgentOutput     `json:"aiAgentOutput,omitempty"`
	DoctorDiagnosis           *DoctorDiagnosis   `json:"doctorDiagnosis,omitempty"`
	PrescriptionStatus        PrescriptionStatus `json:"prescriptionStatus"`
	PatientInfo               PatientInfo        `json:"patientInfo"`
	HasDoctorDiagnosis        bool               `json:"hasDoctorDiagnosis"`
}
