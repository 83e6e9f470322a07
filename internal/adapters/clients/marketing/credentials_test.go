package marketing

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		dc      string
		wantErr bool
	}{
		{"standard key", "0123456789abcdef0123456789abcdef-us21", "us21", false},
		{"surrounding whitespace", " abc-us6 ", "us6", false},
		{"dash in secret", "ab-cd-eu1", "eu1", false},
		{"no dash", "0123456789abcdef", "", true},
		{"trailing dash", "abc-", "", true},
		{"leading dash", "-us21", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds, err := ParseAPIKey(tt.key)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidAPIKey)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.dc, creds.DataCenter)
			assert.Equal(t, "https://"+tt.dc+".api.mailchimp.com/3.0", creds.BaseURL())
		})
	}
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "https://us21.api.mailchimp.com/3.0", BaseURL("us21"))
}

func TestCredentials_StringHidesKey(t *testing.T) {
	creds, err := ParseAPIKey("0123456789abcdef0123456789abcdef-us21")
	require.NoError(t, err)

	s := fmt.Sprintf("%v %s", creds, creds)
	assert.NotContains(t, s, "0123456789abcdef")
	assert.Contains(t, s, "us21")
}
