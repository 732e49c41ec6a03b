package refresh

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"

	liveerrors "github.com/liveservices/LiveSDK-for-Windows-sub001/internal/errors"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/oauth2"
	"github.com/pkg/errors"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

const (
	saltLength  = 16
	nonceLength = 24
	keyLength   = 32

	// scrypt cost parameters
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

var _ Repo = (*FileStore)(nil)

// FileStore keeps the refresh token record in a single file sealed with a key derived from a passphrase.
// File layout: salt | nonce | secretbox(json(record)).
type FileStore struct {
	path       string
	passphrase []byte
	lock       sync.Mutex
}

type fileRecord struct {
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id,omitempty"`
}

// NewFileStore creates a store writing to path. The file is created on the first save.
func NewFileStore(path, passphrase string) (*FileStore, error) {
	if path == "" {
		return nil, errors.Wrap(liveerrors.ErrInvalidConfig, "[NewFileStore] path is required")
	}
	if passphrase == "" {
		return nil, errors.Wrap(liveerrors.ErrInvalidConfig, "[NewFileStore] passphrase is required")
	}
	return &FileStore{path: path, passphrase: []byte(passphrase)}, nil
}

func (fs *FileStore) SaveRefreshToken(_ context.Context, info *oauth2.RefreshTokenInfo) error {
	if info == nil || info.RefreshToken == "" {
		return errors.Wrap(liveerrors.ErrInvalidRefreshToken, "[FileStore.SaveRefreshToken] empty refresh token")
	}
	plain, err := json.Marshal(fileRecord{RefreshToken: info.RefreshToken, UserID: info.UserID})
	if err != nil {
		return errors.Wrap(err, "[FileStore.SaveRefreshToken] marshal")
	}

	var salt [saltLength]byte
	var nonce [nonceLength]byte
	if _, err := io.ReadFull(rand.Reader, salt[:]); err != nil {
		return errors.Wrap(err, "[FileStore.SaveRefreshToken] salt")
	}
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return errors.Wrap(err, "[FileStore.SaveRefreshToken] nonce")
	}
	key, err := fs.deriveKey(salt[:])
	if err != nil {
		return err
	}

	out := make([]byte, 0, saltLength+nonceLength+len(plain)+secretbox.Overhead)
	out = append(out, salt[:]...)
	out = append(out, nonce[:]...)
	out = secretbox.Seal(out, plain, &nonce, key)

	fs.lock.Lock()
	defer fs.lock.Unlock()
	return writeFileAtomic(fs.path, out)
}

func (fs *FileStore) RetrieveRefreshToken(_ context.Context) (*oauth2.RefreshTokenInfo, error) {
	fs.lock.Lock()
	data, err := os.ReadFile(fs.path)
	fs.lock.Unlock()
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[FileStore.RetrieveRefreshToken] read")
	}
	if len(data) < saltLength+nonceLength+secretbox.Overhead {
		return nil, errors.Wrap(liveerrors.ErrStoreCorrupt, "[FileStore.RetrieveRefreshToken] file too short")
	}

	var nonce [nonceLength]byte
	copy(nonce[:], data[saltLength:saltLength+nonceLength])
	key, err := fs.deriveKey(data[:saltLength])
	if err != nil {
		return nil, err
	}
	plain, ok := secretbox.Open(nil, data[saltLength+nonceLength:], &nonce, key)
	if !ok {
		return nil, errors.Wrap(liveerrors.ErrInvalidPassphrase, "[FileStore.RetrieveRefreshToken] cannot open record")
	}

	var rec fileRecord
	if err := json.Unmarshal(plain, &rec); err != nil {
		return nil, errors.Wrap(liveerrors.ErrStoreCorrupt, "[FileStore.RetrieveRefreshToken] "+err.Error())
	}
	return &oauth2.RefreshTokenInfo{RefreshToken: rec.RefreshToken, UserID: rec.UserID}, nil
}

func (fs *FileStore) DeleteRefreshToken(_ context.Context) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	if err := os.Remove(fs.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "[FileStore.DeleteRefreshToken] remove")
	}
	return nil
}

func (fs *FileStore) deriveKey(salt []byte) (*[keyLength]byte, error) {
	k, err := scrypt.Key(fs.passphrase, salt, scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return nil, errors.Wrap(err, "[FileStore.deriveKey] scrypt")
	}
	var key [keyLength]byte
	copy(key[:], k)
	return &key, nil
}

// writeFileAtomic replaces path with data through a temporary file in the same directory.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "[writeFileAtomic] mkdir")
	}
	tmp, err := os.CreateTemp(dir, ".refresh-*")
	if err != nil {
		return errors.Wrap(err, "[writeFileAtomic] create temp")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "[writeFileAtomic] write")
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return errors.Wrap(err, "[writeFileAtomic] chmod")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "[writeFileAtomic] close")
	}
	return errors.Wrap(os.Rename(tmp.Name(), path), "[writeFileAtomic] rename")
}
