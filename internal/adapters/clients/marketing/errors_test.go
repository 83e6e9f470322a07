package marketing

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name        string
		uri         string
		expectedMsg string
	}{
		{
			name:        "with uri",
			uri:         "https://us21.api.mailchimp.com/3.0/lists/abc/members/123",
			expectedMsg: "Unable to find the resource at https://us21.api.mailchimp.com/3.0/lists/abc/members/123 ",
		},
		{
			name:        "empty uri keeps both spaces",
			uri:         "",
			expectedMsg: "Unable to find the resource at  ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &NotFoundError{URI: tt.uri}
			assert.Equal(t, tt.expectedMsg, err.Error())
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, err, ErrRemote)
			assert.NotErrorIs(t, err, ErrDecode)
		})
	}
}

func TestServiceError_Message(t *testing.T) {
	tests := []struct {
		name     string
		payload  ErrorPayload
		expected string
	}{
		{
			name: "with field errors",
			payload: ErrorPayload{
				Type:   "https://mailchimp.com/developer/marketing/docs/errors/",
				Title:  "Invalid Resource",
				Status: 400,
				Detail: "Your merge fields were invalid.",
				Errors: []ErrorDetail{
					{Field: "email_address", Message: "Please provide a valid email address."},
					{Field: "merge_fields.FNAME", Message: "required"},
				},
			},
			expected: "Title: Invalid Resource\n" +
				" Type: https://mailchimp.com/developer/marketing/docs/errors/\n" +
				" Status: 400\n" +
				" + Detail: Your merge fields were invalid.\n" +
				"Errors: email_address Please provide a valid email address. : merge_fields.FNAME required",
		},
		{
			name: "no field errors",
			payload: ErrorPayload{
				Type:   "about:blank",
				Title:  "API Key Invalid",
				Status: 401,
				Detail: "Your API key may be invalid.",
			},
			expected: "Title: API Key Invalid\n Type: about:blank\n Status: 401\n + Detail: Your API key may be invalid.\nErrors: ",
		},
		{
			name: "single field error",
			payload: ErrorPayload{
				Title:  "Forgotten Email Not Subscribed",
				Status: 400,
				Errors: []ErrorDetail{{Field: "", Message: "was permanently deleted"}},
			},
			expected: "Title: Forgotten Email Not Subscribed\n Type: \n Status: 400\n + Detail: \nErrors:  was permanently deleted",
		},
		{
			name:     "zero payload",
			payload:  ErrorPayload{},
			expected: "Title: \n Type: \n Status: 0\n + Detail: \nErrors: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newServiceError(400, tt.payload)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestServiceError_Fields(t *testing.T) {
	err := newServiceError(503, ErrorPayload{
		Type:     "https://example.com/problem",
		Title:    "Service Unavailable",
		Status:   500,
		Detail:   "down for maintenance",
		Instance: "4f3c2b1a-0000-4000-8000-000000000000",
	})

	assert.Equal(t, 503, err.StatusCode, "transport status is kept separately")
	assert.Equal(t, 500, err.Status, "remote status is copied verbatim")
	assert.Equal(t, "https://example.com/problem", err.Type)
	assert.Equal(t, "Service Unavailable", err.Title)
	assert.Equal(t, "down for maintenance", err.Detail)
	assert.Equal(t, "4f3c2b1a-0000-4000-8000-000000000000", err.Instance)
	assert.NotNil(t, err.Errors)
	assert.Empty(t, err.Errors)

	assert.ErrorIs(t, err, ErrRemote)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrDecode)
}

func TestServiceError_FieldErrors(t *testing.T) {
	err := newServiceError(400, ErrorPayload{
		Errors: []ErrorDetail{
			{Field: "email_address", Message: "first"},
			{Field: "status", Message: "invalid"},
			{Field: "email_address", Message: "second"},
		},
	})

	assert.Equal(t, map[string]string{
		"email_address": "second",
		"status":        "invalid",
	}, err.FieldErrors())

	assert.Nil(t, newServiceError(400, ErrorPayload{}).FieldErrors())
}

func TestDecodeError(t *testing.T) {
	err := &DecodeError{StatusCode: 502, Err: fmt.Errorf("decoding json body: %w", io.ErrUnexpectedEOF)}

	assert.Equal(t, "decoding marketing api error body (status 502): decoding json body: unexpected EOF", err.Error())
	assert.ErrorIs(t, err, ErrDecode)
	assert.ErrorIs(t, err, ErrRemote)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestErrorPayload_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"errors absent", `{"title":"Bad Request","status":400}`},
		{"errors null", `{"title":"Bad Request","status":400,"errors":null}`},
		{"errors empty", `{"title":"Bad Request","status":400,"errors":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p ErrorPayload
			require.NoError(t, json.Unmarshal([]byte(tt.body), &p))

			assert.Equal(t, "Bad Request", p.Title)
			assert.Equal(t, 400, p.Status)
			assert.NotNil(t, p.Errors)
			assert.Empty(t, p.Errors)
		})
	}

	t.Run("malformed", func(t *testing.T) {
		var p ErrorPayload
		assert.Error(t, json.Unmarshal([]byte(`{"status":"four hundred"}`), &p))
	})
}

func TestErrorPayload_ReencodesAllFields(t *testing.T) {
	var p ErrorPayload
	require.NoError(t, json.Unmarshal([]byte(`{"type":"t","title":"x","status":422,"detail":"d","instance":"i"}`), &p))

	out, err := json.Marshal(p)
	require.NoError(t, err)

	assert.JSONEq(t, `{"type":"t","title":"x","status":422,"detail":"d","instance":"i","errors":[]}`, string(out))
}

func TestHelpers(t *testing.T) {
	svcErr := newServiceError(400, ErrorPayload{Title: "Invalid Resource"})
	wrapped := fmt.Errorf("upsert member: %w", svcErr)

	got, ok := AsServiceError(wrapped)
	require.True(t, ok)
	assert.Same(t, svcErr, got)

	_, ok = AsServiceError(&NotFoundError{})
	assert.False(t, ok)

	assert.True(t, IsNotFound(fmt.Errorf("get: %w", &NotFoundError{})))
	assert.False(t, IsNotFound(svcErr))
	assert.True(t, IsDecode(&DecodeError{Err: errors.New("boom")}))
	assert.False(t, IsDecode(svcErr))
}
