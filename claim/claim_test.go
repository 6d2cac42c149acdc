package claim

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/healthcare-ms/go-attest-sdk/typeddata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPatient  = "0x36e4418dafb9d1e5fff7408f5a57981e240c8f8e"
	testHospital = "0xac4885a9d09229dd2ea233cd385a3171e0907906"
)

func TestBuild_PatientDataUpdate(t *testing.T) {
	b := NewBuilder(nil)

	c, err := b.Build(typeddata.PatientDataUpdate, Inputs{
		InputPatient:   testPatient,
		InputContentID: "Qm123",
	})
	require.NoError(t, err)

	assert.Equal(t, typeddata.PatientDataUpdate, c.Schema())
	assert.Equal(t, "Qm123", c.ContentID())

	hash, ok := c.Value("metadataHash")
	require.True(t, ok)
	assert.Equal(t, crypto.Keccak256Hash([]byte("Qm123")).Hex(), hash)
	assert.Equal(t, MetadataHash("Qm123").Hex(), hash)

	patient, _ := c.Value("patient")
	assert.Equal(t, common.HexToAddress(testPatient).Hex(), patient)
	assert.Len(t, c.Message(), 2)
}

func TestBuild_FeedbackSubmissionKeepsRawContentID(t *testing.T) {
	b := NewBuilder(nil)

	c, err := b.Build(typeddata.FeedbackSubmission, Inputs{
		InputHospital:  testHospital,
		InputPatient:   testPatient,
		InputContentID: "QmFeedback",
	})
	require.NoError(t, err)

	feedback, ok := c.Value("feedback")
	require.True(t, ok)
	assert.Equal(t, "QmFeedback", feedback, "feedback commits to the identifier itself, not its hash")

	hospital, _ := c.Value("hospital")
	assert.Equal(t, common.HexToAddress(testHospital).Hex(), hospital)
}

func TestBuild_ClaimIsImmutable(t *testing.T) {
	c, err := NewBuilder(nil).Build(typeddata.PatientDataUpdate, Inputs{
		InputPatient:   testPatient,
		InputContentID: "Qm123",
	})
	require.NoError(t, err)

	msg := c.Message()
	msg["patient"] = testHospital

	patient, _ := c.Value("patient")
	assert.Equal(t, common.HexToAddress(testPatient).Hex(), patient)
}

func TestBuild_UnknownSchema(t *testing.T) {
	_, err := NewBuilder(nil).Build("Prescription", Inputs{InputPatient: testPatient})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownSchema)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, KindUnknownSchema, verr.Kind)
}

func TestBuild_RegisteredSchemaWithoutDerivation(t *testing.T) {
	registry, err := typeddata.NewRegistry(typeddata.Schema{
		Name:   "Referral",
		Fields: []typeddata.Field{{Name: "patient", Type: typeddata.TypeAddress}},
	})
	require.NoError(t, err)

	_, err = NewBuilder(registry).Build("Referral", Inputs{InputPatient: testPatient})
	assert.ErrorIs(t, err, ErrUnknownSchema)
}

func TestBuild_ValidationCompleteness(t *testing.T) {
	valid := map[string]Inputs{
		typeddata.PatientDataUpdate: {
			InputPatient:   testPatient,
			InputContentID: "Qm123",
		},
		typeddata.FeedbackSubmission: {
			InputHospital:  testHospital,
			InputPatient:   testPatient,
			InputContentID: "Qm456",
		},
	}

	b := NewBuilder(nil)
	for _, schemaName := range b.Registry().Names() {
		base, ok := valid[schemaName]
		require.True(t, ok, "no valid inputs for %s", schemaName)

		_, err := b.Build(schemaName, base)
		require.NoError(t, err, schemaName)

		for key := range base {
			t.Run(schemaName+"/missing "+key, func(t *testing.T) {
				in := copyInputs(base)
				delete(in, key)

				_, err := b.Build(schemaName, in)
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMissingField)

				var verr *ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Equal(t, key, verr.Field)
			})

			t.Run(schemaName+"/empty "+key, func(t *testing.T) {
				in := copyInputs(base)
				in[key] = ""

				_, err := b.Build(schemaName, in)
				assert.ErrorIs(t, err, ErrMissingField)
			})

			if key == InputContentID {
				continue
			}
			t.Run(schemaName+"/malformed "+key, func(t *testing.T) {
				in := copyInputs(base)
				in[key] = "0x1234"

				_, err := b.Build(schemaName, in)
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrTypeMismatch)

				var verr *ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Equal(t, key, verr.Field)
			})
		}
	}
}

func TestBuild_RejectsInvalidUTF8Feedback(t *testing.T) {
	_, err := NewBuilder(nil).Build(typeddata.FeedbackSubmission, Inputs{
		InputHospital:  testHospital,
		InputPatient:   testPatient,
		InputContentID: string([]byte{0xff, 0xfe}),
	})
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestClaim_MarshalJSON(t *testing.T) {
	c, err := NewBuilder(nil).Build(typeddata.PatientDataUpdate, Inputs{
		InputPatient:   testPatient,
		InputContentID: "Qm123",
	})
	require.NoError(t, err)

	raw, err := json.Marshal(c)
	require.NoError(t, err)

	var decoded struct {
		Schema    string            `json:"schema"`
		ContentID string            `json:"contentId"`
		Values    map[string]string `json:"values"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, typeddata.PatientDataUpdate, decoded.Schema)
	assert.Equal(t, "Qm123", decoded.ContentID)
	assert.Equal(t, MetadataHash("Qm123").Hex(), decoded.Values["metadataHash"])
}

func TestValidationError_Message(t *testing.T) {
	err := typeMismatch("S", "patient", errors.New("bad address"))
	assert.Equal(t, `claim validation failed (TypeMismatch): schema "S", field "patient": bad address`, err.Error())
	assert.False(t, errors.Is(err, ErrMissingField))
}

func copyInputs(in Inputs) Inputs {
	out := make(Inputs, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
