package submission

import (
	"fmt"

	"github.com/healthcare-ms/go-attest-sdk/claim"
	"github.com/healthcare-ms/go-attest-sdk/typeddata"
)

// PatientDataForm is the patient-record update form. The whole form is
// published; only the patient address and the resulting CID are signed.
type PatientDataForm struct {
	PatientAddress string `json:"patientAddress"`
	PatientName    string `json:"patientName"`
	PatientAge     string `json:"patientAge"`
}

func (f PatientDataForm) inputs(cid string) claim.Inputs {
	return claim.Inputs{
		claim.InputPatient:   f.PatientAddress,
		claim.InputContentID: cid,
	}
}

// FeedbackForm is the hospital feedback form.
type FeedbackForm struct {
	HospitalAddress string `json:"hospitalAddress"`
	PatientAddress  string `json:"patientAddress"`
	FeedbackText    string `json:"feedbackText"`
}

func (f FeedbackForm) inputs(cid string) claim.Inputs {
	return claim.Inputs{
		claim.InputHospital:  f.HospitalAddress,
		claim.InputPatient:   f.PatientAddress,
		claim.InputContentID: cid,
	}
}

// RequestKind names a submission entry point.
type RequestKind string

const (
	KindPatientData RequestKind = "patient"
	KindFeedback    RequestKind = "feedback"
)

// Schema returns the claim schema signed for this kind of request.
func (k RequestKind) Schema() (string, error) {
	switch k {
	case KindPatientData:
		return typeddata.PatientDataUpdate, nil
	case KindFeedback:
		return typeddata.FeedbackSubmission, nil
	default:
		return "", fmt.Errorf("unknown request kind %q", k)
	}
}

// Request is one entry of a batch.
type Request struct {
	Kind     RequestKind      `json:"kind"`
	Patient  *PatientDataForm `json:"patient,omitempty"`
	Feedback *FeedbackForm    `json:"feedback,omitempty"`
}
