package authrepofakes

import (
	"context"
	"sync"

	"github.com/liveservices/LiveSDK-for-Windows-sub001/auth"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/oauth2"
)

var _ auth.StateStore = (*FakeStateStore)(nil)

type FakeStateStore struct {
	result  *oauth2.LoginResult
	saves   int
	clears  int
	lock    sync.RWMutex
	LoadErr error
}

func NewFakeStateStore() *FakeStateStore {
	return &FakeStateStore{}
}

// NewFakeStateStoreWith returns a store already holding result.
func NewFakeStateStoreWith(result *oauth2.LoginResult) *FakeStateStore {
	return &FakeStateStore{result: result}
}

func (ss *FakeStateStore) Load(_ context.Context) (*oauth2.LoginResult, error) {
	ss.lock.RLock()
	defer ss.lock.RUnlock()
	if ss.LoadErr != nil {
		return nil, ss.LoadErr
	}
	if ss.result == nil {
		return nil, nil
	}
	c := *ss.result
	c.Session = ss.result.Session.Clone()
	return &c, nil
}

func (ss *FakeStateStore) Save(_ context.Context, result *oauth2.LoginResult) error {
	ss.lock.Lock()
	defer ss.lock.Unlock()
	c := *result
	c.Session = result.Session.Clone()
	ss.result = &c
	ss.saves++
	return nil
}

func (ss *FakeStateStore) Clear(_ context.Context) error {
	ss.lock.Lock()
	defer ss.lock.Unlock()
	ss.result = nil
	ss.clears++
	return nil
}

// Stored returns the saved result, or nil.
func (ss *FakeStateStore) Stored() *oauth2.LoginResult {
	ss.lock.RLock()
	defer ss.lock.RUnlock()
	return ss.result
}

func (ss *FakeStateStore) Saves() int {
	ss.lock.RLock()
	defer ss.lock.RUnlock()
	return ss.saves
}

func (ss *FakeStateStore) Clears() int {
	ss.lock.RLock()
	defer ss.lock.RUnlock()
	return ss.clears
}
