// Package settings persists the administrator-supplied object store settings
// and resolves them, together with the environment, into the process-wide
// offload configuration.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/mediaoffload/internal/common"
	"github.com/dmitrijs2005/mediaoffload/internal/config"
	"github.com/dmitrijs2005/mediaoffload/internal/dbx"
	"github.com/dmitrijs2005/mediaoffload/internal/logging"
)

// Cipher encrypts the sensitive settings at rest. *cryptox.Store satisfies it.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
	IsEncrypted(value string) bool
}

type Service struct {
	db     *sql.DB
	repos  RepositoryFactory
	cipher Cipher
	logger logging.Logger
}

func NewService(db *sql.DB, repos RepositoryFactory, cipher Cipher, logger logging.Logger) *Service {
	return &Service{db: db, repos: repos, cipher: cipher, logger: logger}
}

// Sanitize trims a submitted value and turns spaces back into '+', which
// form encoding mangles in base64 secrets.
func Sanitize(value string) string {
	return strings.ReplaceAll(strings.TrimSpace(value), " ", "+")
}

// Save stores the submitted settings in one transaction. Sensitive keys are
// encrypted unless they already hold ciphertext; unknown keys are ignored.
func (s *Service) Save(ctx context.Context, input map[string]string) error {
	out := make(map[string]string, len(input))
	for key, raw := range input {
		if !slices.Contains(common.SettingKeys, key) {
			s.logger.Warn(ctx, "ignoring unknown setting", "key", key)
			continue
		}

		value := Sanitize(raw)
		if value != "" && common.IsSensitiveSetting(key) && !s.cipher.IsEncrypted(value) {
			enc, err := s.cipher.Encrypt(value)
			if err != nil {
				return fmt.Errorf("encrypt %s: %w", key, err)
			}
			value = enc
		}
		out[key] = value
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos(tx)
		for key, value := range out {
			if err := repo.Set(ctx, key, value); err != nil {
				return err
			}
		}
		return nil
	})
}

// Load returns the stored record with sensitive keys decrypted. A value that
// is not a valid ciphertext is returned unchanged and treated as legacy
// plaintext. A missing or corrupt key file fails with
// common.ErrCredentialsUnavailable.
func (s *Service) Load(ctx context.Context) (map[string]string, error) {
	stored, err := s.repos(s.db).List(ctx)
	if err != nil {
		return nil, err
	}

	for key, value := range stored {
		if value == "" || !common.IsSensitiveSetting(key) {
			continue
		}
		plain, err := s.cipher.Decrypt(value)
		if errors.Is(err, common.ErrInvalidCiphertext) {
			s.logger.Warn(ctx, "stored setting is not decryptable, using it as is", "key", key, "error", err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("decrypt %s: %w", key, err)
		}
		stored[key] = plain
	}
	return stored, nil
}

// Resolve builds the offload configuration: each AWS field comes from env
// first and the stored record second.
func (s *Service) Resolve(ctx context.Context, cfg *config.Config, env config.Env) (config.Offload, error) {
	stored, err := s.Load(ctx)
	if err != nil {
		return config.Offload{}, fmt.Errorf("load settings: %w", err)
	}
	return BuildOffload(cfg, env, stored), nil
}

// BuildOffload merges configuration sources without any I/O.
func BuildOffload(cfg *config.Config, env config.Env, stored map[string]string) config.Offload {
	get := func(key string) string {
		if v := strings.TrimSpace(env.Get(key)); v != "" {
			return v
		}
		return strings.TrimSpace(stored[key])
	}

	region := get(common.SettingRegion)
	if region == "" {
		region = common.DefaultRegion
	}
	bucket := get(common.SettingBucket)

	return config.Offload{
		Bucket:        bucket,
		Region:        region,
		AccessKey:     get(common.SettingAccessKeyID),
		SecretKey:     get(common.SettingSecretAccessKey),
		LocalBaseURL:  strings.TrimRight(cfg.LocalBaseURL, "/"),
		LocalBaseDir:  cfg.LocalBaseDir,
		RemoteBaseURL: config.RemoteBaseURL(bucket, region, get(common.SettingCloudFrontDomain)),
	}
}
