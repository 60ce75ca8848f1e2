package ids

import (
	mathrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// New returns a lexicographically sortable identifier suitable for storage keys.
func New() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// ReferralCode derives a partner referral code from the owning user id plus a
// short random suffix. Uniqueness is enforced by the partners table constraint,
// not pre-checked here; a collision surfaces as a storage error.
func ReferralCode(userID string) string {
	base := userID
	if len(base) > 6 {
		base = base[len(base)-6:]
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:4]
	return "PAR" + strings.ToUpper(base) + suffix
}
