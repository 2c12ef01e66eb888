package prescription

import (
	"telemed-portal/internal/consultation"
	"telemed-portal/internal/jsonval"
)

// DisplayView is the workspace rendered down to plain strings. Every field
// passes through the normalizer, so it is safe to show regardless of what
// shape the clinical payload arrived in.
type DisplayView struct {
	ConsultationID            string                          `json:"consultationId"`
	PatientName               string                          `json:"patientName"`
	PrescriptionStatus        consultation.PrescriptionStatus `json:"prescriptionStatus"`
	HasDoctorDiagnosis        bool                            `json:"hasDoctorDiagnosis"`
	StructuredAssessmentInput string                          `json:"structuredAssessmentInput"`
	PossibleDiagnoses         string                          `json:"possibleDiagnoses"`
	ClinicalReasoning         string                          `json:"clinicalReasoning"`
	RecommendedInvestigations string                          `json:"recommendedInvestigations"`
	PrimaryTreatment          string                          `json:"primaryTreatment"`
	SafeMedications           string                          `json:"safeMedications"`
	LifestyleModifications    string                          `json:"lifestyleModifications"`
	DietaryAdvice             string                          `json:"dietaryAdvice"`
	FollowUpTimeline          string                          `json:"followUpTimeline"`
	PatientEducation          string                          `json:"patientEducation"`
	WarningSigns              string                          `json:"warningSigns"`
}

// DisplayWorkspace renders the workspace for display. The doctor diagnosis,
// when present, takes precedence over the AI output.
func DisplayWorkspace(ws *consultation.Workspace) *DisplayView {
	view := &DisplayView{
		ConsultationID:            ws.ConsultationID,
		PatientName:               ws.PatientInfo.Name,
		PrescriptionStatus:        ws.PrescriptionStatus,
		HasDoctorDiagnosis:        ws.HasDoctorDiagnosis,
		StructuredAssessmentInput: jsonval.Normalize(ws.StructuredAssessmentInput),
	}

	if d := ws.DoctorDiagnosis; d != nil {
		view.PossibleDiagnoses = jsonval.Normalize(stringListValue(d.PossibleDiagnoses))
		view.ClinicalReasoning = jsonval.Normalize(jsonval.String(d.ClinicalReasoning))
		view.RecommendedInvestigations = jsonval.Normalize(investigationsValue(d.RecommendedInvestigations))
		fillTreatment(view, d.TreatmentRecommendations)
		view.PatientEducation = jsonval.Normalize(d.PatientEducation)
		view.WarningSigns = jsonval.Normalize(d.WarningSigns)
		return view
	}

	if ai := ws.AIAgentOutput; ai != nil {
		view.PossibleDiagnoses = jsonval.Normalize(diagnosesValue(ai.PossibleDiagnoses))
		view.ClinicalReasoning = jsonval.Normalize(jsonval.String(ai.ClinicalReasoning))
		view.RecommendedInvestigations = jsonval.Normalize(investigationsValue(ai.RecommendedInvestigations))
		fillTreatment(view, ai.TreatmentRecommendations)
		view.PatientEducation = jsonval.Normalize(ai.PatientEducation)
		view.WarningSigns = jsonval.Normalize(ai.WarningSigns)
		return view
	}

	view.PossibleDiagnoses = jsonval.Normalize(jsonval.Null())
	view.ClinicalReasoning = jsonval.Normalize(jsonval.Null())
	view.RecommendedInvestigations = jsonval.Normalize(jsonval.Null())
	view.PrimaryTreatment = jsonval.Normalize(jsonval.Null())
	view.SafeMedications = jsonval.Normalize(jsonval.Null())
	view.LifestyleModifications = jsonval.Normalize(jsonval.Null())
	view.DietaryAdvice = jsonval.Normalize(jsonval.Null())
	view.FollowUpTimeline = jsonval.Normalize(jsonval.Null())
	view.PatientEducation = jsonval.Normalize(jsonval.Null())
	view.WarningSigns = jsonval.Normalize(jsonval.Null())
	return view
}

func fillTreatment(view *DisplayView, t consultation.TreatmentRecommendations) {
	view.PrimaryTreatment = jsonval.Normalize(jsonval.String(t.PrimaryTreatment))
	view.SafeMedications = jsonval.Normalize(t.SafeMedications)
	view.LifestyleModifications = jsonval.Normalize(t.LifestyleModifications)
	view.DietaryAdvice = jsonval.Normalize(t.DietaryAdvice)
	view.FollowUpTimeline = jsonval.Normalize(jsonval.String(t.FollowUpTimeline))
}

func stringListValue(names []string) jsonval.Value {
	vals := make([]jsonval.Value, len(names))
	for i, n := range names {
		vals[i] = jsonval.String(n)
	}
	return jsonval.Array(vals...)
}

func diagnosesValue(ds []consultation.PossibleDiagnosis) jsonval.Value {
	vals := make([]jsonval.Value, len(ds))
	for i, d := range ds {
		members := []jsonval.Member{{Key: "name", Value: jsonval.String(d.Name)}}
		if d.Description != "" {
			members = append(members, jsonval.Member{Key: "description", Value: jsonval.String(d.Description)})
		}
		members = append(members, jsonval.Member{Key: "confidence_score", Value: jsonval.NumberFloat(d.ConfidenceScore)})
		vals[i] = jsonval.Object(members...)
	}
	return jsonval.Array(vals...)
}

func investigationsValue(cats []consultation.InvestigationCategory) jsonval.Value {
	vals := make([]jsonval.Value, len(cats))
	for i, cat := range cats {
		tests := make([]jsonval.Value, len(cat.Tests))
		for j, test := range cat.Tests {
			members := []jsonval.Member{{Key: "name", Value: jsonval.String(test.Name)}}
			if test.Priority != "" {
				members = append(members, jsonval.Member{Key: "priority", Value: jsonval.String(test.Priority)})
			}
			if test.Reason != "" {
				members = append(members, jsonval.Member{Key: "reason", Value: jsonval.String(test.Reason)})
			}
			tests[j] = jsonval.Object(members...)
		}
		vals[i] = jsonval.Object(
			jsonval.Member{Key: "category", Value: jsonval.String(cat.Category)},
			jsonval.Member{Key: "tests", Value: jsonval.Array(tests...)},
		)
	}
	return jsonval.Array(vals...)
}
