package testutil

// FixedTokenGenerator returns the same run token every time.
//
// Production runs identify themselves with UUIDv7 tokens; pinning the
// token makes checkpoint logs byte-comparable across test runs.
type FixedTokenGenerator struct {
	token string
}

// NewFixedTokenGenerator creates a generator for the given token. An
// empty token defaults to "test-run-default".
func NewFixedTokenGenerator(token string) *FixedTokenGenerator {
	if token == "" {
		token = "test-run-default"
	}
	return &FixedTokenGenerator{token: token}
}

// Generate returns the fixed run token.
func (g *FixedTokenGenerator) Generate() string {
	return g.token
}
