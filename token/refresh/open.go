package refresh

import (
	"path/filepath"

	liveerrors "github.com/liveservices/LiveSDK-for-Windows-sub001/internal/errors"
	"github.com/pkg/errors"
)

// Store kinds understood by Open.
const (
	KindMemory = "memory"
	KindFile   = "file"
	KindSQLite = "sqlite"
)

// Open creates a store of the given kind inside folder. The memory store ignores folder.
// The file store is named after the client id so several applications can share a folder.
func Open(kind, folder, clientID, passphrase string) (Repo, error) {
	switch kind {
	case KindMemory:
		return NewMemoryStore(), nil
	case KindFile:
		return NewFileStore(filepath.Join(folder, clientID+".token"), passphrase)
	case KindSQLite:
		return NewSQLiteStore(filepath.Join(folder, "tokens.db"), clientID)
	}
	return nil, errors.Wrapf(liveerrors.ErrUnsupported, "[refresh.Open] unknown store kind %q", kind)
}
