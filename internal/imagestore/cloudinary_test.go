package imagestore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractPublicID(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1712345678/kb9x2p.jpg", "kb9x2p"},
		{"https://res.cloudinary.com/demo/image/upload/sample.png", "sample"},
		{"sample.webp", "sample"},
		{"", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ExtractPublicID(tc.url), tc.url)
	}
}
