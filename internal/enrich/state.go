package enrich

import "fmt"

// State is the resolution state of one game.
type State int

const (
	StateUnresolved State = iota
	StateCacheHit
	StateCacheMiss
	StateEnriching
	StateAssetResolving
	StateMerged
	StateAppended
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateCacheHit:
		return "cache_hit"
	case StateCacheMiss:
		return "cache_miss"
	case StateEnriching:
		return "enriching"
	case StateAssetResolving:
		return "asset_resolving"
	case StateMerged:
		return "merged"
	case StateAppended:
		return "appended"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}
