package authrepofakes

import (
	"context"
	"sync"

	"github.com/liveservices/LiveSDK-for-Windows-sub001/auth"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/oauth2"
)

var _ auth.TokenExchanger = (*FakeExchanger)(nil)

// ExchangeResponse is one scripted answer of the fake exchanger.
type ExchangeResponse struct {
	Session *oauth2.Session
	Err     error
}

// RefreshCall records the arguments of a refresh.
type RefreshCall struct {
	RefreshToken string
	Scopes       []string
}

// FakeExchanger answers from scripted queues. An empty queue answers with a server_error.
// When Gate is set every call blocks until it is closed, after Entered has been signalled.
type FakeExchanger struct {
	codeResponses    []ExchangeResponse
	refreshResponses []ExchangeResponse
	codes            []string
	refreshes        []RefreshCall
	lock             sync.Mutex

	Gate    chan struct{}
	Entered chan struct{}
}

func NewFakeExchanger() *FakeExchanger {
	return &FakeExchanger{}
}

func (fe *FakeExchanger) QueueCode(session *oauth2.Session, err error) *FakeExchanger {
	fe.lock.Lock()
	defer fe.lock.Unlock()
	fe.codeResponses = append(fe.codeResponses, ExchangeResponse{Session: session, Err: err})
	return fe
}

func (fe *FakeExchanger) QueueRefresh(session *oauth2.Session, err error) *FakeExchanger {
	fe.lock.Lock()
	defer fe.lock.Unlock()
	fe.refreshResponses = append(fe.refreshResponses, ExchangeResponse{Session: session, Err: err})
	return fe
}

func (fe *FakeExchanger) ExchangeAuthorizationCode(ctx context.Context, _, _, _, code string) (*oauth2.Session, error) {
	fe.wait(ctx)
	fe.lock.Lock()
	defer fe.lock.Unlock()
	fe.codes = append(fe.codes, code)
	return pop(&fe.codeResponses)
}

func (fe *FakeExchanger) RefreshAccessToken(ctx context.Context, _, _, _, refreshToken string, scopes []string) (*oauth2.Session, error) {
	fe.wait(ctx)
	fe.lock.Lock()
	defer fe.lock.Unlock()
	fe.refreshes = append(fe.refreshes, RefreshCall{RefreshToken: refreshToken, Scopes: append([]string(nil), scopes...)})
	return pop(&fe.refreshResponses)
}

// Codes returns the codes exchanged so far.
func (fe *FakeExchanger) Codes() []string {
	fe.lock.Lock()
	defer fe.lock.Unlock()
	return append([]string(nil), fe.codes...)
}

// Refreshes returns the refresh calls made so far.
func (fe *FakeExchanger) Refreshes() []RefreshCall {
	fe.lock.Lock()
	defer fe.lock.Unlock()
	return append([]RefreshCall(nil), fe.refreshes...)
}

func (fe *FakeExchanger) wait(ctx context.Context) {
	if fe.Entered != nil {
		fe.Entered <- struct{}{}
	}
	if fe.Gate == nil {
		return
	}
	select {
	case <-fe.Gate:
	case <-ctx.Done():
	}
}

func pop(queue *[]ExchangeResponse) (*oauth2.Session, error) {
	if len(*queue) == 0 {
		return nil, oauth2.NewAuthError(oauth2.ErrorCodeServerError, "no scripted response")
	}
	r := (*queue)[0]
	*queue = (*queue)[1:]
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Session.Clone(), nil
}
