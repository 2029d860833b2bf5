package config

import (
	"time"

	"github.com/namsral/flag"
)

type Config struct {
	DBConnURI        string
	DBMigrationsPath string
	ListenAddr       string
	SecretKey        string
	LogLevel         string
	MigrateOnStart   bool

	// MaxTxAttempts bounds how many times a failed answer transaction is
	// retried before the client is asked to try again.
	MaxTxAttempts int
	TxRetryWait   time.Duration

	MaxLearningCards int
	MaxDueCards      int
	ReviewLogLimit   int
}

// Load loads the configs from the given arguments. Every flag can also be
// set through the environment, e.g. -db-conn-uri or DB_CONN_URI.
func (c *Config) Load(args []string) error {
	fs := flag.NewFlagSet("quizvault", flag.ContinueOnError)

	fs.StringVar(&c.DBConnURI, "db-conn-uri", "", "postgres connection URI")
	fs.StringVar(&c.DBMigrationsPath, "db-migrations-path", "file://./db/migrations", "migration source URL")
	fs.StringVar(&c.ListenAddr, "listen-addr", ":8180", "address the RPC server listens on")
	fs.StringVar(&c.SecretKey, "secret-key", "", "HMAC key used to verify JWTs")
	fs.StringVar(&c.LogLevel, "log-level", "info", "log level")
	fs.BoolVar(&c.MigrateOnStart, "migrate-on-start", false, "run pending migrations before serving")

	fs.IntVar(&c.MaxTxAttempts, "max-tx-attempts", 4, "attempts for one answer transaction")
	fs.DurationVar(&c.TxRetryWait, "tx-retry-wait", 50*time.Millisecond, "base wait between answer transaction attempts")

	fs.IntVar(&c.MaxLearningCards, "max-learning-cards", 100, "default cap for the learning bucket")
	fs.IntVar(&c.MaxDueCards, "max-due-cards", 500, "hard cap on any bucket of the due queue")
	fs.IntVar(&c.ReviewLogLimit, "review-log-limit", 20, "review events returned with card information")
	return fs.Parse(args)
}

// FromEnv loads a config from the environment alone, with flag defaults
// for anything unset.
func FromEnv() (*Config, error) {
	c := &Config{}
	if err := c.Load(nil); err != nil {
		return nil, err
	}
	return c, nil
}
