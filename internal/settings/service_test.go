package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/mediaoffload/internal/common"
	"github.com/dmitrijs2005/mediaoffload/internal/config"
	"github.com/dmitrijs2005/mediaoffload/internal/cryptox"
	"github.com/dmitrijs2005/mediaoffload/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, *cryptox.Store, Repository) {
	t.Helper()
	db := setupDB(t)
	store := cryptox.NewStore(filepath.Join(t.TempDir(), "secure", "crypto.json"))
	require.NoError(t, store.Bootstrap())
	return NewService(db, SQLiteFactory, store, logging.NewNop()), store, NewSQLiteRepository(db)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "abc+def/ghi=", Sanitize("  abc def/ghi=\n"))
	assert.Equal(t, "", Sanitize("   "))
}

func TestSave_EncryptsSensitiveKeys(t *testing.T) {
	svc, store, repo := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, map[string]string{
		common.SettingAccessKeyID:     " AKIAEXAMPLE ",
		common.SettingSecretAccessKey: "wJalr XUtnFEMI",
		common.SettingBucket:          "media",
		"UNRELATED":                   "x",
	}))

	raw, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotContains(t, raw, "UNRELATED")
	assert.Equal(t, "media", raw[common.SettingBucket])
	assert.True(t, store.IsEncrypted(raw[common.SettingAccessKeyID]))
	assert.True(t, store.IsEncrypted(raw[common.SettingSecretAccessKey]))

	loaded, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "AKIAEXAMPLE", loaded[common.SettingAccessKeyID])
	assert.Equal(t, "wJalr+XUtnFEMI", loaded[common.SettingSecretAccessKey])
}

func TestSave_DoesNotDoubleEncrypt(t *testing.T) {
	svc, store, repo := newService(t)
	ctx := context.Background()

	enc, err := store.Encrypt("secret")
	require.NoError(t, err)

	require.NoError(t, svc.Save(ctx, map[string]string{common.SettingSecretAccessKey: enc}))

	raw, err := repo.Get(ctx, common.SettingSecretAccessKey)
	require.NoError(t, err)
	assert.Equal(t, enc, raw)
}

func TestLoad_LegacyPlaintext(t *testing.T) {
	svc, _, repo := newService(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, common.SettingAccessKeyID, "plain-text-not-base64!!"))

	loaded, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "plain-text-not-base64!!", loaded[common.SettingAccessKeyID])
}

func TestLoad_UnusableKeyFileFails(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(t *testing.T, path string)
	}{
		{name: "corrupt", corrupt: func(t *testing.T, path string) {
			require.NoError(t, os.WriteFile(path, []byte("{garbage"), 0o600))
		}},
		{name: "missing", corrupt: func(t *testing.T, path string) {
			require.NoError(t, os.Remove(path))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newService(t)
			ctx := context.Background()

			require.NoError(t, svc.Save(ctx, map[string]string{
				common.SettingAccessKeyID: "AKIAEXAMPLE",
				common.SettingBucket:      "media",
			}))
			tt.corrupt(t, store.Path())

			loaded, err := svc.Load(ctx)
			require.ErrorIs(t, err, common.ErrCredentialsUnavailable)
			assert.Nil(t, loaded)

			_, err = svc.Resolve(ctx, &config.Config{}, config.Env{})
			assert.ErrorIs(t, err, common.ErrCredentialsUnavailable)
		})
	}
}

func TestResolve_EnvWins(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, map[string]string{
		common.SettingAccessKeyID:     "stored-key",
		common.SettingSecretAccessKey: "stored-secret",
		common.SettingBucket:          "stored-bucket",
	}))

	cfg := &config.Config{LocalBaseURL: "https://x.test/up/", LocalBaseDir: "/srv/up"}
	env := config.Env{common.SettingBucket: "env-bucket", common.SettingRegion: "eu-west-1"}

	off, err := svc.Resolve(ctx, cfg, env)
	require.NoError(t, err)

	assert.Equal(t, config.Offload{
		Bucket:        "env-bucket",
		Region:        "eu-west-1",
		AccessKey:     "stored-key",
		SecretKey:     "stored-secret",
		LocalBaseURL:  "https://x.test/up",
		LocalBaseDir:  "/srv/up",
		RemoteBaseURL: "https://env-bucket.s3.eu-west-1.amazonaws.com",
	}, off)
	assert.True(t, off.Configured())
}

func TestBuildOffload_DefaultsAndCDN(t *testing.T) {
	cfg := &config.Config{LocalBaseURL: "https://x.test/up"}

	off := BuildOffload(cfg, config.Env{}, map[string]string{
		common.SettingBucket:           "b",
		common.SettingCloudFrontDomain: "cdn.test/",
	})
	assert.Equal(t, common.DefaultRegion, off.Region)
	assert.Equal(t, "https://cdn.test", off.RemoteBaseURL)
	assert.False(t, off.Configured())

	empty := BuildOffload(cfg, nil, nil)
	assert.Equal(t, "", empty.RemoteBaseURL)
	assert.Equal(t, common.DefaultRegion, empty.Region)
}
