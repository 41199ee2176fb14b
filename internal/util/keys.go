package util

import (
	"crypto/sha256"
	"fmt"
)

// StorageKey joins prefix and key with ':'. When the result would exceed max
// bytes (max > 0) the key part is replaced by a sha256 digest so backends
// with key limits (memcache: 250) still accept it.
func StorageKey(prefix, key string, max int) string {
	k := prefix + ":" + key
	if max <= 0 || len(k) <= max {
		return k
	}
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%s:h:%x", prefix, sum)
}
