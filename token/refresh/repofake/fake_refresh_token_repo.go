package refreshrepofake

import (
	"context"
	"sync"

	"github.com/liveservices/LiveSDK-for-Windows-sub001/oauth2"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/token/refresh"
)

var _ refresh.Repo = (*FakeRefreshTokenRepo)(nil)

type FakeRefreshTokenRepo struct {
	info     *oauth2.RefreshTokenInfo
	saves    int
	deletes  int
	lock     sync.RWMutex
	FailWith error // returned by every call when set
}

func NewFakeRefreshTokenRepo() *FakeRefreshTokenRepo {
	return &FakeRefreshTokenRepo{}
}

// NewFakeRefreshTokenRepoWith returns a repo already holding info.
func NewFakeRefreshTokenRepoWith(info oauth2.RefreshTokenInfo) *FakeRefreshTokenRepo {
	return &FakeRefreshTokenRepo{info: &info}
}

func (tr *FakeRefreshTokenRepo) SaveRefreshToken(_ context.Context, info *oauth2.RefreshTokenInfo) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	if tr.FailWith != nil {
		return tr.FailWith
	}

	c := *info
	tr.info = &c
	tr.saves++
	return nil
}

func (tr *FakeRefreshTokenRepo) RetrieveRefreshToken(_ context.Context) (*oauth2.RefreshTokenInfo, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	if tr.FailWith != nil {
		return nil, tr.FailWith
	}
	if tr.info == nil {
		return nil, nil
	}
	c := *tr.info
	return &c, nil
}

func (tr *FakeRefreshTokenRepo) DeleteRefreshToken(_ context.Context) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	if tr.FailWith != nil {
		return tr.FailWith
	}
	tr.info = nil
	tr.deletes++
	return nil
}

// Saves returns how many times a record was saved.
func (tr *FakeRefreshTokenRepo) Saves() int {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	return tr.saves
}

// Deletes returns how many times the record was deleted.
func (tr *FakeRefreshTokenRepo) Deletes() int {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	return tr.deletes
}
