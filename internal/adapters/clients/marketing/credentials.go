package marketing

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidAPIKey is returned when an API key does not carry a data center suffix.
var ErrInvalidAPIKey = errors.New("invalid marketing api key")

// Credentials is a parsed API key. The API authenticates with HTTP Basic auth
// using any user name and the full key as the password.
type Credentials struct {
	Key        string
	DataCenter string
}

// ParseAPIKey splits a key of the form "<secret>-<dc>".
func ParseAPIKey(key string) (Credentials, error) {
	key = strings.TrimSpace(key)

	idx := strings.LastIndex(key, "-")
	if idx <= 0 || idx == len(key)-1 {
		return Credentials{}, fmt.Errorf("%w: expected <key>-<dc>", ErrInvalidAPIKey)
	}

	return Credentials{Key: key, DataCenter: key[idx+1:]}, nil
}

// BaseURL returns the API root for a data center, e.g. https://us21.api.mailchimp.com/3.0.
func BaseURL(dataCenter string) string {
	return "https://" + dataCenter + ".api.mailchimp.com/3.0"
}

// BaseURL returns the API root for the key's data center.
func (c Credentials) BaseURL() string {
	return BaseURL(c.DataCenter)
}

// String hides the key.
func (c Credentials) String() string {
	return "Credentials{DataCenter: " + c.DataCenter + "}"
}
