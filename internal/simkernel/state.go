package simkernel

// State is a truck's position in the dispatch lifecycle (spec §4.2).
type State int

const (
	Waiting State = iota
	TravelToShovel
	ApproachingTLCS
	StoppedAtTLCS
	ApproachingShovel
	WaitingAtShovel
	Filling
	LeavingShovel
	TravelToCrusher
	ApproachingTLSS
	StoppedAtTLSS
	ApproachingCrusher
	WaitingAtCrusher
	Emptying
	Unused
)

func (s State) String() string {
	switch s {
	case Waiting:
		return "WAITING"
	case TravelToShovel:
		return "TRAVEL_TO_SHOVEL"
	case ApproachingTLCS:
		return "APPROACHING_TL_CS"
	case StoppedAtTLCS:
		return "STOPPED_AT_TL_CS"
	case ApproachingShovel:
		return "APPROACHING_SHOVEL"
	case WaitingAtShovel:
		return "WAITING_AT_SHOVEL"
	case Filling:
		return "FILLING"
	case LeavingShovel:
		return "LEAVING_SHOVEL"
	case TravelToCrusher:
		return "TRAVEL_TO_CRUSHER"
	case ApproachingTLSS:
		return "APPROACHING_TL_SS"
	case StoppedAtTLSS:
		return "STOPPED_AT_TL_SS"
	case ApproachingCrusher:
		return "APPROACHING_CRUSHER"
	case WaitingAtCrusher:
		return "WAITING_AT_CRUSHER"
	case Emptying:
		return "EMPTYING"
	case Unused:
		return "UNUSED"
	default:
		return "UNKNOWN"
	}
}

// band implements the priority policy from §4.2/§9: destination state maps
// to a band, and ties at identical event times are broken by
// band*bandSpan + tiebreak. The open question in §9 leaves the exact
// constants unspecified; these preserve the required ordering classes:
//
//	{STOPPED_AT_TL_*} < {TRAVEL_TO_*} < {WAITING_AT_*, FILLING, EMPTYING}
//	  < {APPROACHING_TL_*} < {WAITING, LEAVING_SHOVEL}
//	  < {APPROACHING_SHOVEL, APPROACHING_CRUSHER}
func band(s State) int {
	switch s {
	case StoppedAtTLCS, StoppedAtTLSS:
		return 0
	case TravelToShovel, TravelToCrusher:
		return 1
	case WaitingAtShovel, WaitingAtCrusher, Filling, Emptying:
		return 2
	case ApproachingTLCS, ApproachingTLSS:
		return 3
	case Waiting, LeavingShovel:
		return 4
	case ApproachingShovel, ApproachingCrusher:
		return 5
	default: // Unused
		return 6
	}
}

// bandSpan must exceed any tiebreak value (truck index or road-direction
// arrival counter) used within a band.
const bandSpan = 1 << 20

// priorityFor computes the (time, priority) tie-break key for a transition
// into state s, where tiebreak is either the truck index or, for road
// completions, the per-(road,direction) monotonic arrival counter.
func priorityFor(s State, tiebreak int) int {
	return band(s)*bandSpan + tiebreak
}
