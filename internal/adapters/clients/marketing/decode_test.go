package marketing

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trackingBody records reads and closes of a response body.
type trackingBody struct {
	r      io.Reader
	reads  int
	closes int
}

func newTrackingBody(s string) *trackingBody {
	return &trackingBody{r: strings.NewReader(s)}
}

func (b *trackingBody) Read(p []byte) (int, error) {
	b.reads++
	return b.r.Read(p)
}

func (b *trackingBody) Close() error {
	b.closes++
	return nil
}

type sample struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Tags  []string `json:"tags"`
}

func TestDecode_Success(t *testing.T) {
	body := newTrackingBody(`{"name":"list","count":3,"tags":["a","b"],"unknown":true}`)

	got, err := Decode[sample](body)
	require.NoError(t, err)

	assert.Equal(t, sample{Name: "list", Count: 3, Tags: []string{"a", "b"}}, got)
	assert.Equal(t, 1, body.closes)
}

func TestDecode_MissingFieldsAreZero(t *testing.T) {
	got, err := Decode[sample](newTrackingBody(`{"name":"only"}`))
	require.NoError(t, err)

	assert.Equal(t, "only", got.Name)
	assert.Zero(t, got.Count)
	assert.Nil(t, got.Tags)
}

func TestDecode_OtherShapes(t *testing.T) {
	m, err := Decode[map[string]any](newTrackingBody(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1)}, m)

	s, err := Decode[[]int](newTrackingBody(`[1,2,3]`))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, s)
}

func TestDecode_Failures(t *testing.T) {
	errBoom := errors.New("connection reset")

	tests := []struct {
		name    string
		body    *trackingBody
		wantErr error
	}{
		{"malformed json", newTrackingBody(`{"name":`), io.ErrUnexpectedEOF},
		{"empty stream", newTrackingBody(``), io.EOF},
		{"not json", newTrackingBody(`<html>Bad Gateway</html>`), nil},
		{"type mismatch", newTrackingBody(`{"count":"three"}`), nil},
		{"read failure", &trackingBody{r: iotest.ErrReader(errBoom)}, errBoom},
		{"trailing garbage", newTrackingBody(`{"name":"x"} <html>garbage`), nil},
		{"second value", newTrackingBody(`{"name":"x"} {"name":"y"}`), errTrailingData},
		{"trailing read failure", &trackingBody{r: io.MultiReader(strings.NewReader(`{"name":"x"}`), iotest.ErrReader(errBoom))}, errBoom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode[sample](tt.body)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "decoding json body")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, 1, tt.body.closes, "body must be closed on failure")
		})
	}
}

func TestDecode_TrailingWhitespace(t *testing.T) {
	got, err := Decode[sample](newTrackingBody("{\"name\":\"x\"}\n\t "))
	require.NoError(t, err)
	assert.Equal(t, "x", got.Name)
}

func TestDecode_TrailingDataReturnsZero(t *testing.T) {
	got, err := Decode[sample](newTrackingBody(`{"name":"x"} 1`))
	require.ErrorIs(t, err, errTrailingData)
	assert.Zero(t, got)
}

func TestDecode_NilBody(t *testing.T) {
	_, err := Decode[sample](nil)
	assert.ErrorIs(t, err, errNilBody)
}
