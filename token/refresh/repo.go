// Package refresh persists the refresh token record of a signed-in user between runs.
package refresh

import (
	"context"

	"github.com/liveservices/LiveSDK-for-Windows-sub001/oauth2"
)

// Repo stores at most one refresh token record.
// RetrieveRefreshToken returns (nil, nil) when nothing has been saved.
type Repo interface {
	SaveRefreshToken(ctx context.Context, info *oauth2.RefreshTokenInfo) error
	RetrieveRefreshToken(ctx context.Context) (*oauth2.RefreshTokenInfo, error)
	DeleteRefreshToken(ctx context.Context) error
}
