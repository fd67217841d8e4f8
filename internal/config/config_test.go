package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LEDGER_MAX_ATTEMPTS", "")
	t.Setenv("ANALYZER_PROVIDER", "")

	cfg := Load()

	assert.Equal(t, 5, cfg.Ledger.MaxAttempts)
	assert.Equal(t, "stats", cfg.Analyzer.Provider)
	assert.Equal(t, "canteen.feeding.recorded", cfg.Kafka.Topics.FeedingRecorded)
	assert.Equal(t, 10*time.Minute, cfg.Redis.ScanGuardTTL)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("LEDGER_MAX_ATTEMPTS", "9")
	t.Setenv("ANALYZER_PROVIDER", "LLM")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("SCAN_GUARD_TTL", "30s")
	t.Setenv("KAFKA_ENABLED", "false")

	cfg := Load()

	assert.Equal(t, 9, cfg.Ledger.MaxAttempts)
	assert.Equal(t, "llm", cfg.Analyzer.Provider)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 30*time.Second, cfg.Redis.ScanGuardTTL)
	assert.False(t, cfg.Kafka.Enabled)
}

func TestInvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("LEDGER_MAX_ATTEMPTS", "many")
	t.Setenv("SCAN_GUARD_TTL", "soon")

	cfg := Load()

	assert.Equal(t, 5, cfg.Ledger.MaxAttempts)
	assert.Equal(t, 10*time.Minute, cfg.Redis.ScanGuardTTL)
}
