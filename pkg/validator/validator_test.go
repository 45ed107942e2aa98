package validator

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookingInput struct {
	DoctorID string `json:"doctor_id" validate:"required,uuid"`
	Date     string `json:"appointment_date" validate:"required,date"`
	Time     string `json:"appointment_time" validate:"required,clock"`
}

type registerInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=3"`
	Gender   string `json:"gender" validate:"omitempty,oneof=MALE FEMALE OTHER"`
}

func TestValidate_Success(t *testing.T) {
	in := bookingInput{
		DoctorID: "8a1f8f50-3c1e-4b8e-9d53-9f4f2b3c6d10",
		Date:     "2025-06-01",
		Time:     "10:00",
	}
	assert.NoError(t, Validate(in))
}

func TestValidate_ReportsJSONFieldNames(t *testing.T) {
	err := Validate(bookingInput{})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "is required", fields["doctor_id"])
	assert.Equal(t, "is required", fields["appointment_date"])
	assert.Equal(t, "is required", fields["appointment_time"])
}

func TestValidate_DateAndClockTags(t *testing.T) {
	err := Validate(bookingInput{
		DoctorID: "8a1f8f50-3c1e-4b8e-9d53-9f4f2b3c6d10",
		Date:     "01/06/2025",
		Time:     "25:00",
	})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "must be a date in YYYY-MM-DD format", fields["appointment_date"])
	assert.Equal(t, "must be a time in HH:MM format", fields["appointment_time"])
}

func TestValidate_OneOfAndEmail(t *testing.T) {
	err := Validate(registerInput{Name: "Ann", Email: "nope", Password: "pw1", Gender: "UNKNOWN"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be a valid email address", valErr.Fields()["email"])
	assert.Contains(t, valErr.Fields()["gender"], "MALE FEMALE OTHER")
	assert.Contains(t, err.Error(), "field 'email'")
}

func TestParseClock(t *testing.T) {
	tm, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, "09:30", tm.Format(ClockLayout))

	tm, err = ParseClock("09:30:15")
	require.NoError(t, err)
	assert.Equal(t, "09:30", tm.Format(ClockLayout))

	_, err = ParseClock("9.30")
	assert.Error(t, err)
}

func TestDecodeAndValidate(t *testing.T) {
	body := `{"name":"Ann","email":"ann@x.com","password":"pw1"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	var in registerInput
	require.NoError(t, DecodeAndValidate(req, &in))
	assert.Equal(t, "ann@x.com", in.Email)
}

func TestDecodeAndValidate_MalformedJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))

	var in registerInput
	err := DecodeAndValidate(req, &in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}

func TestValidationError_IssuesInStructOrder(t *testing.T) {
	err := Validate(bookingInput{Date: "2025-06-01"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	require.Len(t, valErr.Issues, 2)
	assert.Equal(t, "doctor_id", valErr.Issues[0].Field)
	assert.Equal(t, "appointment_time", valErr.Issues[1].Field)
	assert.Equal(t, "field 'doctor_id' is required; field 'appointment_time' is required", err.Error())
}

func TestValidate_NonStruct(t *testing.T) {
	err := Validate("not a struct")
	require.Error(t, err)

	var valErr *ValidationError
	assert.False(t, errors.As(err, &valErr))
}
