package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DatabasePath string
	RedisURL     string
	JWTSecret    string
	Port         string

	// Wallets allowed to perform admin actions, lowercased.
	AdminAddresses []string

	// AI verification collaborator.
	AIAPIKey              string
	AIAPIURL              string
	AIModel               string
	VerificationThreshold float64

	// DKG node agent.
	DKGNodeURL     string
	DKGExplorerURL string

	// x402 payment facilitator.
	FacilitatorURL string
	TokenAddress   string
	Network        string
	ChainID        int64

	// Timeout applied to every collaborator HTTP call.
	CollaboratorTimeout time.Duration
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func Load() Config {
	threshold, err := strconv.ParseFloat(getenv("AI_VERIFICATION_THRESHOLD", "0.7"), 64)
	if err != nil {
		threshold = 0.7
	}
	chainID, _ := strconv.ParseInt(getenv("CHAIN_ID", "84532"), 10, 64)
	timeoutSecs, _ := strconv.Atoi(getenv("COLLABORATOR_TIMEOUT", "120"))

	return Config{
		DatabasePath:          getenv("DATABASE_PATH", "database/governance.db"),
		RedisURL:              getenv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:             getenv("JWT_SECRET", ""),
		Port:                  getenv("PORT", "3001"),
		AdminAddresses:        ParseAdminAddresses(os.Getenv("ADMIN_ADDRESSES")),
		AIAPIKey:              os.Getenv("AI_API_KEY"),
		AIAPIURL:              getenv("AI_API_URL", "https://api.openai.com/v1/chat/completions"),
		AIModel:               getenv("AI_MODEL", "gpt-4o-mini"),
		VerificationThreshold: threshold,
		DKGNodeURL:            getenv("DKG_NODE_URL", "http://localhost:9200"),
		DKGExplorerURL:        getenv("DKG_EXPLORER_URL", "https://dkg-testnet.origintrail.io/explore?ual="),
		FacilitatorURL:        getenv("X402_FACILITATOR_URL", "https://x402.org/facilitator"),
		TokenAddress:          getenv("X402_TOKEN_ADDRESS", "0x036CbD53842c5426634e7929541eC2318f3dCF7e"),
		Network:               getenv("X402_NETWORK", "base-sepolia"),
		ChainID:               chainID,
		CollaboratorTimeout:   time.Duration(timeoutSecs) * time.Second,
	}
}

// ParseAdminAddresses splits the comma-separated allow-list and
// lowercases entries so membership checks are case-insensitive.
func ParseAdminAddresses(raw string) []string {
	var out []string
	for _, addr := range strings.Split(raw, ",") {
		addr = strings.ToLower(strings.TrimSpace(addr))
		if addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// IsAdmin reports whether wallet is in the allow-list.
func (c Config) IsAdmin(wallet string) bool {
	w := strings.ToLower(wallet)
	for _, a := range c.AdminAddresses {
		if a == w {
			return true
		}
	}
	return false
}
