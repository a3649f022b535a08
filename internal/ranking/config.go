package ranking

// DefaultTopK is the number of entries placed in an answer's context.
const DefaultTopK = 10

// RankingConfig holds all configuration for the ranking system.
type RankingConfig struct {
	TopK int `yaml:"top_k"` // default: 10
}

// DefaultRankingConfig returns a RankingConfig with default values.
func DefaultRankingConfig() *RankingConfig {
	return &RankingConfig{TopK: DefaultTopK}
}

// ApplyDefaults fills in zero or invalid values.
func (c *RankingConfig) ApplyDefaults() {
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
}
