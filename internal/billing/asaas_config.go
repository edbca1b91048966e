package billing

import "errors"

// Asaas API environments.
const (
	asaasSandboxURL    = "https://sandbox.asaas.com/api/v3"
	asaasProductionURL = "https://api.asaas.com/v3"
)

// AsaasConfig contains configuration for the Asaas gateway client.
// It is immutable after construction; environment selection happens here,
// not through package-level state.
type AsaasConfig struct {
	// APIKey is the Asaas access token sent on every request.
	APIKey string

	// Sandbox selects the sandbox base URL instead of production.
	Sandbox bool

	// BaseURL overrides the environment base URL. Used in tests against
	// httptest servers; leave empty otherwise.
	BaseURL string

	// TimeoutSeconds is the HTTP timeout for gateway calls. Default: 30.
	TimeoutSeconds int
}

// Validate checks that required configuration is present.
func (c *AsaasConfig) Validate() error {
	if c.APIKey == "" {
		return errors.New("asaas: API key is required")
	}
	return nil
}

// baseURL resolves the effective base URL for API calls.
func (c *AsaasConfig) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	if c.Sandbox {
		return asaasSandboxURL
	}
	return asaasProductionURL
}
