package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const referencePrefix = "PAY"

// NewPayoutReference mints a payout reference: fixed prefix, wall-clock
// timestamp, and a random suffix. The reference doubles as the idempotency
// key sent to the gateway and the human-auditable string in remarks and
// exports. Four random bytes on top of a second-resolution timestamp keeps
// collisions negligible at thousands of payouts per run.
func NewPayoutReference() string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("%s-%s-%s",
		referencePrefix,
		time.Now().UTC().Format("20060102150405"),
		strings.ToUpper(hex.EncodeToString(buf)),
	)
}
