package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"codegraph/pkg/logger"
)

// StoreConfig holds the connection settings for the graph database. It is
// loaded here, at the edge of the application, and passed opaquely into
// the store service.
type StoreConfig struct {
	URI      string
	Username string
	Password string
	Database string
}

// EngineConfig holds tunables for the query engine and hybrid search.
type EngineConfig struct {
	OpenAIKey         string
	ClassifierModel   string
	EmbeddingModel    string
	ClassifierTimeout time.Duration
	VectorIndexPath   string
}

// LoadEnv loads a .env file when present and falls back to the process
// environment otherwise.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using system environment variables")
	}
}

// LoadStore reads the graph store connection settings from the environment.
func LoadStore() StoreConfig {
	return StoreConfig{
		URI:      GetEnvString("NEO4J_URI", "bolt://localhost:7687"),
		Username: GetEnvString("NEO4J_USERNAME", "neo4j"),
		Password: GetEnvString("NEO4J_PASSWORD", ""),
		Database: GetEnvString("NEO4J_DATABASE", "neo4j"),
	}
}

// LoadEngine reads query engine settings from the environment.
func LoadEngine() EngineConfig {
	return EngineConfig{
		OpenAIKey:         GetEnvString("OPENAI_API_KEY", ""),
		ClassifierModel:   GetEnvString("CODEGRAPH_CLASSIFIER_MODEL", "gpt-4o-mini"),
		EmbeddingModel:    GetEnvString("CODEGRAPH_EMBEDDING_MODEL", "text-embedding-3-small"),
		ClassifierTimeout: time.Duration(GetEnvInt("CODEGRAPH_CLASSIFIER_TIMEOUT_MS", 1500)) * time.Millisecond,
		VectorIndexPath:   GetEnvString("CODEGRAPH_VECTOR_INDEX", ""),
	}
}

// GetEnvString returns the value of key, or defaultValue when unset.
func GetEnvString(key string, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	return value
}

// GetEnvInt returns the integer value of key, or defaultValue when unset
// or unparsable.
func GetEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// GetEnvBool returns the boolean value of key, or defaultValue when unset
// or not "true"/"false".
func GetEnvBool(key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	if value == "true" || value == "false" {
		return value == "true"
	}
	return defaultValue
}
