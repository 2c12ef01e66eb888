package prescription

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"telemed-portal/internal/consultation"
	"telemed-portal/internal/jsonval"
)

func TestDisplayWorkspaceFromAIOutput(t *testing.T) {
	ws := &consultation.Workspace{
		ConsultationID: "CONS-001",
		PatientInfo:    consultation.PatientInfo{Name: "A. Patient"},
		AIAgentOutput: &consultation.AIAgentOutput{
			PossibleDiagnoses: []consultation.PossibleDiagnosis{
				{Name: "Influenza", Description: "Seasonal flu", ConfidenceScore: 0.85},
			},
			ClinicalReasoning: "Fever with myalgia",
			TreatmentRecommendations: consultation.TreatmentRecommendations{
				PrimaryTreatment: "Rest and fluids",
				SafeMedications: jsonval.Array(
					jsonval.String("Paracetamol"),
					jsonval.String("Ibuprofen"),
				),
			},
		},
		PrescriptionStatus: consultation.PrescriptionNone,
	}

	view := DisplayWorkspace(ws)
	assert.Equal(t, "Influenza - Seasonal flu (Confidence: 85%)", view.PossibleDiagnoses)
	assert.Equal(t, "Fever with myalgia", view.ClinicalReasoning)
	assert.Equal(t, "Rest and fluids", view.PrimaryTreatment)
	assert.Equal(t, "Paracetamol\nIbuprofen", view.SafeMedications)
	assert.Equal(t, "Not available", view.PatientEducation)
	assert.Equal(t, "A. Patient", view.PatientName)
}

func TestDisplayWorkspaceDoctorDiagnosisWins(t *testing.T) {
	ws := &consultation.Workspace{
		ConsultationID: "CONS-001",
		AIAgentOutput: &consultation.AIAgentOutput{
			PossibleDiagnoses: []consultation.PossibleDiagnosis{{Name: "Influenza", ConfidenceScore: 0.85}},
		},
		DoctorDiagnosis: &consultation.DoctorDiagnosis{
			PossibleDiagnoses: []string{"Bacterial pneumonia"},
			ClinicalReasoning: "Crackles on auscultation",
		},
		HasDoctorDiagnosis: true,
	}

	view := DisplayWorkspace(ws)
	assert.Equal(t, "Bacterial pneumonia", view.PossibleDiagnoses)
	assert.Equal(t, "Crackles on auscultation", view.ClinicalReasoning)
}

func TestDisplayWorkspaceEmpty(t *testing.T) {
	view := DisplayWorkspace(&consultation.Workspace{ConsultationID: "CONS-002"})

	assert.Equal(t, "Not available", view.PossibleDiagnoses)
	assert.Equal(t, "Not available", view.ClinicalReasoning)
	assert.Equal(t, "Not available", view.SafeMedications)
	assert.Equal(t, "Not available", view.WarningSigns)
}

func TestDisplayWorkspaceInvestigations(t *testing.T) {
	ws := &consultation.Workspace{
		AIAgentOutput: &consultation.AIAgentOutput{
			PossibleDiagnoses: []consultation.PossibleDiagnosis{{Name: "Anemia", ConfidenceScore: 0.6}},
			RecommendedInvestigations: []consultation.InvestigationCategory{
				{
					Category: "Blood work",
					Tests:    []consultation.InvestigationTest{{Name: "CBC", Priority: "high"}},
				},
			},
		},
	}

	view := DisplayWorkspace(ws)
	assert.Contains(t, view.RecommendedInvestigations, "Blood work")
	assert.Contains(t, view.RecommendedInvestigations, "CBC")
}
