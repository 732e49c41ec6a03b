package refresh_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	liveerrors "github.com/liveservices/LiveSDK-for-Windows-sub001/internal/errors"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/oauth2"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/token/refresh"
	"github.com/stretchr/testify/require"
)

func newFileStore(t *testing.T, passphrase string) (*refresh.FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "client.token")
	fs, err := refresh.NewFileStore(path, passphrase)
	require.NoError(t, err)
	return fs, path
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store retrieves nothing", func(t *testing.T) {
		fs, _ := newFileStore(t, "secret")
		info, err := fs.RetrieveRefreshToken(ctx)
		require.NoError(t, err)
		require.Nil(t, info)
	})

	t.Run("save then retrieve", func(t *testing.T) {
		fs, path := newFileStore(t, "secret")
		require.NoError(t, fs.SaveRefreshToken(ctx, &oauth2.RefreshTokenInfo{RefreshToken: "rt-1", UserID: "user-a"}))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NotContains(t, string(raw), "rt-1", "record must be sealed")

		info, err := fs.RetrieveRefreshToken(ctx)
		require.NoError(t, err)
		require.Equal(t, &oauth2.RefreshTokenInfo{RefreshToken: "rt-1", UserID: "user-a"}, info)
	})

	t.Run("save overwrites", func(t *testing.T) {
		fs, _ := newFileStore(t, "secret")
		require.NoError(t, fs.SaveRefreshToken(ctx, &oauth2.RefreshTokenInfo{RefreshToken: "rt-1"}))
		require.NoError(t, fs.SaveRefreshToken(ctx, &oauth2.RefreshTokenInfo{RefreshToken: "rt-2", UserID: "user-b"}))

		info, err := fs.RetrieveRefreshToken(ctx)
		require.NoError(t, err)
		require.Equal(t, "rt-2", info.RefreshToken)
		require.Equal(t, "user-b", info.UserID)
	})

	t.Run("wrong passphrase", func(t *testing.T) {
		fs, path := newFileStore(t, "secret")
		require.NoError(t, fs.SaveRefreshToken(ctx, &oauth2.RefreshTokenInfo{RefreshToken: "rt-1"}))

		other, err := refresh.NewFileStore(path, "guess")
		require.NoError(t, err)
		_, err = other.RetrieveRefreshToken(ctx)
		require.ErrorIs(t, err, liveerrors.ErrInvalidPassphrase)
	})

	t.Run("truncated file", func(t *testing.T) {
		fs, path := newFileStore(t, "secret")
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
		require.NoError(t, os.WriteFile(path, []byte("short"), 0o600))
		_, err := fs.RetrieveRefreshToken(ctx)
		require.ErrorIs(t, err, liveerrors.ErrStoreCorrupt)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		fs, path := newFileStore(t, "secret")
		require.NoError(t, fs.SaveRefreshToken(ctx, &oauth2.RefreshTokenInfo{RefreshToken: "rt-1"}))
		require.NoError(t, fs.DeleteRefreshToken(ctx))
		require.NoError(t, fs.DeleteRefreshToken(ctx))
		_, err := os.Stat(path)
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("empty token rejected", func(t *testing.T) {
		fs, _ := newFileStore(t, "secret")
		err := fs.SaveRefreshToken(ctx, &oauth2.RefreshTokenInfo{})
		require.ErrorIs(t, err, liveerrors.ErrInvalidRefreshToken)
	})
}

func TestNewFileStore_RequiresPathAndPassphrase(t *testing.T) {
	_, err := refresh.NewFileStore("", "secret")
	require.ErrorIs(t, err, liveerrors.ErrInvalidConfig)
	_, err = refresh.NewFileStore("x.token", "")
	require.ErrorIs(t, err, liveerrors.ErrInvalidConfig)
}
