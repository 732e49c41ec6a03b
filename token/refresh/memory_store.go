package refresh

import (
	"context"
	"sync"

	liveerrors "github.com/liveservices/LiveSDK-for-Windows-sub001/internal/errors"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/oauth2"
	"github.com/pkg/errors"
)

var _ Repo = (*MemoryStore)(nil)

// MemoryStore keeps the record for the lifetime of the process.
type MemoryStore struct {
	info *oauth2.RefreshTokenInfo
	lock sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) SaveRefreshToken(_ context.Context, info *oauth2.RefreshTokenInfo) error {
	if info == nil || info.RefreshToken == "" {
		return errors.Wrap(liveerrors.ErrInvalidRefreshToken, "[MemoryStore.SaveRefreshToken] empty refresh token")
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	c := *info
	s.info = &c
	return nil
}

func (s *MemoryStore) RetrieveRefreshToken(_ context.Context) (*oauth2.RefreshTokenInfo, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.info == nil {
		return nil, nil
	}
	c := *s.info
	return &c, nil
}

func (s *MemoryStore) DeleteRefreshToken(_ context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.info = nil
	return nil
}
