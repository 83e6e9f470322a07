package marketing

import (
	"io"
	"net/http"
	"strings"
	"testing"
)

func BenchmarkHexHash(b *testing.B) {
	for _, alg := range []Algorithm{MD5, SHA1, SHA256, SHA512} {
		b.Run(alg.String(), func(b *testing.B) {
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				_ = HexHash(alg, "jane.doe@example.com")
			}
		})
	}
}

// BenchmarkEnsureSuccess_ServiceError covers the decode and compose path taken
// for every failed upstream call.
func BenchmarkEnsureSuccess_ServiceError(b *testing.B) {
	const body = `{"type":"t","title":"Invalid Resource","status":400,"detail":"d",` +
		`"errors":[{"field":"FNAME","message":"required"},{"field":"LNAME","message":"required"}]}`

	req, _ := http.NewRequest(http.MethodPut, "https://us21.api.mailchimp.com/3.0/lists/x/members/y", http.NoBody)

	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		resp := &http.Response{
			StatusCode: http.StatusBadRequest,
			Body:       io.NopCloser(strings.NewReader(body)),
			Request:    req,
		}

		if err := EnsureSuccess(resp); err == nil {
			b.Fatal("expected error")
		}
	}
}
