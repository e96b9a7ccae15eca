package pool

import (
	"strings"

	"github.com/Ramsey-B/willow/pkg/models"
	"github.com/Ramsey-B/willow/pkg/normalizers"
)

const (
	// DefaultLimit caps a pool when the scope does not
	DefaultLimit = 500

	// KeyPrefixLen is the number of last-name key runes two records must share
	// when their Soundex codes differ
	KeyPrefixLen = 3
)

// LastNamePrefix returns the leading runes of the normalized last-name key
func LastNamePrefix(lastName string) string {
	key := []rune(normalizers.NameKeyOf(lastName))
	if len(key) > KeyPrefixLen {
		key = key[:KeyPrefixLen]
	}
	return string(key)
}

// InScope reports whether a record with lastName belongs in the pool for scope.
// A record qualifies when its last name sounds alike or starts with the same key prefix.
func InScope(scope models.PoolScope, lastName string) bool {
	if scope.LastName == "" {
		return true
	}

	want := normalizers.Soundex(scope.LastName)
	if want != "" && normalizers.Soundex(lastName) == want {
		return true
	}

	prefix := LastNamePrefix(scope.LastName)
	key := normalizers.NameKeyOf(lastName)
	return prefix != "" && strings.HasPrefix(key, prefix)
}

// EffectiveLimit resolves the limit of scope against DefaultLimit
func EffectiveLimit(scope models.PoolScope) int {
	if scope.Limit <= 0 {
		return DefaultLimit
	}
	return scope.Limit
}
