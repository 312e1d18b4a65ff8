package beacon

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserIDPrefix marks identifiers minted by the beacon.
const UserIDPrefix = "u_"

// UserID returns the persisted identifier, minting and saving one on
// first use. If storage is unavailable a fresh identifier is returned
// on every call.
func (b *Beacon) UserID(ctx context.Context) string {
	if id, err := b.store.Get(ctx, KeyUserID); err == nil && id != "" {
		return id
	}
	id := newUserID(b.now())
	_ = b.store.Set(ctx, KeyUserID, id)
	return id
}

// newUserID is not meant to be unguessable, only unlikely to collide.
func newUserID(now time.Time) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	return UserIDPrefix + random + strconv.FormatInt(now.UnixMilli(), 36)
}
