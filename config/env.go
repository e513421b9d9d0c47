package config

import (
	"fmt"
	"os"
	"strings"
)

// Credentials are the X API secrets. They are read from the environment
// only, never from the config file.
type Credentials struct {
	APIKey            string
	APISecret         string
	AccessToken       string
	AccessTokenSecret string
}

// CredentialsFromEnv reads the four X OAuth 1.0a secrets, erroring with the
// full list of missing variables so the operator can fix them in one go.
func CredentialsFromEnv() (Credentials, error) {
	c := Credentials{
		APIKey:            os.Getenv("API_KEY"),
		APISecret:         os.Getenv("API_SECRET"),
		AccessToken:       os.Getenv("ACCESS_TOKEN"),
		AccessTokenSecret: os.Getenv("ACCESS_TOKEN_SECRET"),
	}
	var missing []string
	for _, kv := range []struct{ name, value string }{
		{"API_KEY", c.APIKey},
		{"API_SECRET", c.APISecret},
		{"ACCESS_TOKEN", c.AccessToken},
		{"ACCESS_TOKEN_SECRET", c.AccessTokenSecret},
	} {
		if kv.value == "" {
			missing = append(missing, kv.name)
		}
	}
	if len(missing) > 0 {
		return Credentials{}, fmt.Errorf("missing environment variables: %s", strings.Join(missing, ", "))
	}
	return c, nil
}

// APIKeyForProvider maps an LLM provider name to its environment variable.
func APIKeyForProvider(provider string) (string, error) {
	var name string
	switch provider {
	case "gemini":
		name = "GEMINI_API_KEY"
	case "openai":
		name = "OPENAI_API_KEY"
	default:
		name = strings.ToUpper(provider) + "_API_KEY"
	}
	key := os.Getenv(name)
	if key == "" {
		return "", fmt.Errorf("missing environment variable %s for llm provider %q", name, provider)
	}
	return key, nil
}
