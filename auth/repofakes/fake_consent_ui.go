package authrepofakes

import (
	"context"
	"sync"

	"github.com/liveservices/LiveSDK-for-Windows-sub001/auth"
)

var _ auth.ConsentUI = (*FakeConsentUI)(nil)

// FakeConsentUI answers every Show with the redirect produced by Respond.
type FakeConsentUI struct {
	Respond func(authorizeURL string) (string, error)

	shown []string
	lock  sync.Mutex
}

// NewFakeConsentUI returns a consent UI that always ends on finalURL.
func NewFakeConsentUI(finalURL string) *FakeConsentUI {
	return &FakeConsentUI{Respond: func(string) (string, error) { return finalURL, nil }}
}

func (ui *FakeConsentUI) Show(_ context.Context, authorizeURL string) (string, error) {
	ui.lock.Lock()
	ui.shown = append(ui.shown, authorizeURL)
	ui.lock.Unlock()
	return ui.Respond(authorizeURL)
}

// Shown returns the authorize urls shown so far.
func (ui *FakeConsentUI) Shown() []string {
	ui.lock.Lock()
	defer ui.lock.Unlock()
	return append([]string(nil), ui.shown...)
}
