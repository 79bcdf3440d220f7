package utils

import "os"

// IGDBConfig carries the Twitch client credentials used for IGDB lookups.
// Both fields empty is a valid state: metadata enrichment then degrades to
// empty results instead of failing requests.
type IGDBConfig struct {
	ClientID     string
	ClientSecret string
}

func LoadIGDBConfig() IGDBConfig {
	return IGDBConfig{
		ClientID:     os.Getenv("IGDB_CLIENT_ID"),
		ClientSecret: os.Getenv("IGDB_CLIENT_SECRET"),
	}
}

// AIConfig points at the hosted card-generation endpoint. An empty URL
// means the local stats generator is used instead.
type AIConfig struct {
	URL string
	Key string
}

func LoadAIConfig() AIConfig {
	return AIConfig{
		URL: os.Getenv("WRAPPED_AI_URL"),
		Key: os.Getenv("WRAPPED_AI_KEY"),
	}
}

// ServerAddr returns the HTTP listen address for the API server.
func ServerAddr() string {
	if addr := os.Getenv("GAMEWRAPPED_ADDR"); addr != "" {
		return addr
	}
	return ":8080"
}
