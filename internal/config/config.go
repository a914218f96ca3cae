package config

import (
	"context"
	"fmt"
	"time"

	"github.com/platebook/platebook-backend/internal/constants"
	"github.com/platebook/platebook-backend/internal/logging"
	"github.com/platebook/platebook-backend/internal/utils/errors"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/go-playground/validator.v9"
)

var validate = validator.New()

//FirebaseConfig Connection to Firebase. FIREBASE_URL=NOOP selects mocks.
type FirebaseConfig struct {
	URL       string `env:"FIREBASE_URL,required" validate:"required"`
	ProjectID string `env:"PROJECT_ID,required" validate:"required"`
}

//Mocked Whether Firebase should be mocked.
func (c *FirebaseConfig) Mocked() bool {
	return c.URL == "NOOP"
}

//BackfillConfig Configuration of user stats recomputation.
type BackfillConfig struct {
	BatchSize         int           `env:"BACKFILL_BATCH_SIZE,default=400" validate:"min=1"`
	IOTimeout         time.Duration `env:"BACKFILL_IO_TIMEOUT,default=60s" validate:"gt=0"`
	ReviewsCollection string        `env:"BACKFILL_REVIEWS_COLLECTION,default=reviews" validate:"required"`
	UsersCollection   string        `env:"BACKFILL_USERS_COLLECTION,default=users" validate:"required"`
	ProgressPath      string        `env:"BACKFILL_PROGRESS_PATH,default=backfillProgress" validate:"required"`
	MaxAttempts       uint          `env:"BACKFILL_MAX_ATTEMPTS,default=3" validate:"min=1"`
	Lock              LockConfig
}

//LockConfig Distributed run lock. Empty RedisAddr disables locking.
type LockConfig struct {
	RedisAddr string        `env:"BACKFILL_LOCK_REDIS_ADDR"`
	TTL       time.Duration `env:"BACKFILL_LOCK_TTL,default=30m" validate:"gt=0"`
}

//Config Everything a backfill run needs.
type Config struct {
	Firebase FirebaseConfig
	Backfill BackfillConfig
	LogLevel string `env:"LOG_LEVEL,default=debug"`
}

//Load Loads config from the environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

//LoadWith Loads config from given lookuper. Any problem is a ConfigError.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	logger := logging.FromContext(ctx).Named("config.Load")

	var config Config
	if err := envconfig.ProcessWith(ctx, &config, lookuper); err != nil {
		logger.Debugf("Could not load config: %v", err)
		return nil, &errors.ConfigError{Msg: "Could not load config", Err: err}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

//Validate Validates values, also those set in code.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return &errors.ConfigError{Msg: "Invalid config", Err: err}
	}
	return c.Backfill.Validate()
}

//Validate Validates backfill values alone. A batch must stay below the Firestore write limit.
func (c *BackfillConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return &errors.ConfigError{Msg: "Invalid backfill config", Err: err}
	}
	if c.BatchSize >= constants.FirestoreMaxBatchWrites {
		return &errors.ConfigError{
			Msg: fmt.Sprintf("Invalid backfill config: batch size %d must be below %d", c.BatchSize, constants.FirestoreMaxBatchWrites),
		}
	}
	return nil
}
