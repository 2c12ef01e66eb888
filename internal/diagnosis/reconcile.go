// Package diagnosis builds and updates the physician's diagnosis from the
// AI assessment. The physician workflow is "start from AI, edit selectively,
// keep an auditable diff": the diff is always recomputed against the
// immutable AI baseline, never accumulated, so editing a field back to its
// original value removes it from the changelog.
package diagnosis

import (
	"sort"
	"time"

	"telemed-portal/internal/consultation"
	"telemed-portal/internal/jsonval"
)

// Changelog field names, matching the wire names of the diagnosis fields.
const (
	FieldPossibleDiagnoses         = "possible_diagnoses"
	FieldClinicalReasoning         = "clinical_reasoning"
	FieldRecommendedInvestigations = "recommended_investigations"
	FieldTreatmentRecommendations  = "treatment_recommendations"
	FieldPatientEducation          = "patient_education"
	FieldWarningSigns              = "warning_signs"
	FieldConfidenceScore           = "confidence_score"
)

// Patch is a partial diagnosis update. Nil fields are left untouched, so a
// patch distinguishes "absent" from "set to zero".
type Patch struct {
	PossibleDiagnoses         *[]string                              `json:"possible_diagnoses,omitempty"`
	ClinicalReasoning         *string                                `json:"clinical_reasoning,omitempty"`
	RecommendedInvestigations *[]consultation.InvestigationCategory  `json:"recommended_investigations,omitempty"`
	TreatmentRecommendations  *consultation.TreatmentRecommendations `json:"treatment_recommendations,omitempty"`
	PatientEducation          *jsonval.Value                         `json:"patient_education,omitempty"`
	WarningSigns              *jsonval.Value                         `json:"warning_signs,omitempty"`
	ConfidenceScore           *float64                               `json:"confidence_score,omitempty"`
	ModificationNotes         *string                                `json:"modificationNotes,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.PossibleDiagnoses == nil &&
		p.ClinicalReasoning == nil &&
		p.RecommendedInvestigations == nil &&
		p.TreatmentRecommendations == nil &&
		p.PatientEducation == nil &&
		p.WarningSigns == nil &&
		p.ConfidenceScore == nil &&
		p.ModificationNotes == nil
}

// InitializeFromAI copies the AI output into a fresh doctor diagnosis.
// Diagnoses flatten to their names; the changelog starts empty.
func InitializeFromAI(ai consultation.AIAgentOutput, physicianID string, now time.Time) consultation.DoctorDiagnosis {
	names := make([]string, 0, len(ai.PossibleDiagnoses))
	for _, d := range ai.PossibleDiagnoses {
		names = append(names, d.Name)
	}
	return consultation.DoctorDiagnosis{
		PossibleDiagnoses:         names,
		ClinicalReasoning:         ai.ClinicalReasoning,
		RecommendedInvestigations: copyInvestigations(ai.RecommendedInvestigations),
		TreatmentRecommendations:  ai.TreatmentRecommendations,
		PatientEducation:          ai.PatientEducation,
		WarningSigns:              ai.WarningSigns,
		ConfidenceScore:           ai.ConfidenceScore,
		ModifiedAt:                now,
		ModifiedBy:                physicianID,
		ModificationType:          consultation.ModificationInitial,
		ChangesFromAI:             []string{},
	}
}

// ApplyModification overwrites the patched fields on a copy of current and
// recomputes the changelog from the AI baseline. Unpatched fields keep their
// current values. An empty patch re-derives the changelog and refreshes the
// modification metadata without touching content.
func ApplyModification(ai consultation.AIAgentOutput, current consultation.DoctorDiagnosis, patch Patch, physicianID string, now time.Time) consultation.DoctorDiagnosis {
	next := current
	next.PossibleDiagnoses = append([]string(nil), current.PossibleDiagnoses...)
	next.RecommendedInvestigations = copyInvestigations(current.RecommendedInvestigations)

	if patch.PossibleDiagnoses != nil {
		next.PossibleDiagnoses = append([]string(nil), (*patch.PossibleDiagnoses)...)
	}
	if patch.ClinicalReasoning != nil {
		next.ClinicalReasoning = *patch.ClinicalReasoning
	}
	if patch.RecommendedInvestigations != nil {
		next.RecommendedInvestigations = copyInvestigations(*patch.RecommendedInvestigations)
	}
	if patch.TreatmentRecommendations != nil {
		next.TreatmentRecommendations = *patch.TreatmentRecommendations
	}
	if patch.PatientEducation != nil {
		next.PatientEducation = *patch.PatientEducation
	}
	if patch.WarningSigns != nil {
		next.WarningSigns = *patch.WarningSigns
	}
	if patch.ConfidenceScore != nil {
		next.ConfidenceScore = *patch.ConfidenceScore
	}
	if patch.ModificationNotes != nil {
		next.ModificationNotes = *patch.ModificationNotes
	}

	next.ChangesFromAI = ChangesFromBaseline(ai, next)
	next.ModifiedAt = now
	next.ModifiedBy = physicianID
	next.ModificationType = consultation.ModificationEdited
	return next
}

// ChangesFromBaseline derives the set of fields where d differs, by value,
// from what InitializeFromAI would have produced from ai. The result is
// sorted for determinism.
func ChangesFromBaseline(ai consultation.AIAgentOutput, d consultation.DoctorDiagnosis) []string {
	baseline := InitializeFromAI(ai, d.ModifiedBy, d.ModifiedAt)
	changes := []string{}

	if !stringSlicesEqual(baseline.PossibleDiagnoses, d.PossibleDiagnoses) {
		changes = append(changes, FieldPossibleDiagnoses)
	}
	if baseline.ClinicalReasoning != d.ClinicalReasoning {
		changes = append(changes, FieldClinicalReasoning)
	}
	if !investigationsEqual(baseline.RecommendedInvestigations, d.RecommendedInvestigations) {
		changes = append(changes, FieldRecommendedInvestigations)
	}
	if !treatmentsEqual(baseline.TreatmentRecommendations, d.TreatmentRecommendations) {
		changes = append(changes, FieldTreatmentRecommendations)
	}
	if !jsonval.Equal(baseline.PatientEducation, d.PatientEducation) {
		changes = append(changes, FieldPatientEducation)
	}
	if !jsonval.Equal(baseline.WarningSigns, d.WarningSigns) {
		changes = append(changes, FieldWarningSigns)
	}
	if baseline.ConfidenceScore != d.ConfidenceScore {
		changes = append(changes, FieldConfidenceScore)
	}

	sort.Strings(changes)
	return changes
}

func copyInvestigations(in []consultation.InvestigationCategory) []consultation.InvestigationCategory {
	if in == nil {
		return nil
	}
	out := make([]consultation.InvestigationCategory, len(in))
	for i, c := range in {
		out[i] = c
		out[i].Tests = append([]consultation.InvestigationTest(nil), c.Tests...)
	}
	return out
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func investigationsEqual(a, b []consultation.InvestigationCategory) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Category != b[i].Category || len(a[i].Tests) != len(b[i].Tests) {
			return false
		}
		for j := range a[i].Tests {
			if a[i].Tests[j] != b[i].Tests[j] {
				return false
			}
		}
	}
	return true
}

func treatmentsEqual(a, b consultation.TreatmentRecommendations) bool {
	return a.PrimaryTreatment == b.PrimaryTreatment &&
		a.FollowUpTimeline == b.FollowUpTimeline &&
		jsonval.Equal(a.SafeMedications, b.SafeMedications) &&
		jsonval.Equal(a.LifestyleModifications, b.LifestyleModifications) &&
		jsonval.Equal(a.DietaryAdvice, b.DietaryAdvice)
}
