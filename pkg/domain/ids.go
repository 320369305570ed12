// Package domain holds the typed identifiers shared across the policy core.
package domain

import "strconv"

// PolicyID identifies a single insurance policy. IDs are allocated by the
// policy store, monotonically increasing, and never reused.
type PolicyID uint64

func (p PolicyID) String() string {
	return strconv.FormatUint(uint64(p), 10)
}

// ParsePolicyID parses the decimal form used in URLs and event keys.
func ParsePolicyID(s string) (PolicyID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return PolicyID(v), nil
}

// Holder identifies the purchasing party. The core treats it as opaque: it is
// used only for indexing and as the payout destination reference.
type Holder string

func (h Holder) String() string {
	return string(h)
}
