package trader

import "github.com/zappabad/squeeze/internal/market"

// TraderID uniquely identifies a trader. It doubles as the order source.
type TraderID string

// Source returns the order source for this trader.
func (id TraderID) Source() market.SourceID {
	return market.SourceID(id)
}

// OrderIntent represents a trader's intention to place an order.
type OrderIntent struct {
	Side market.Side
	Size market.Size
}

// TraderEventType indicates the type of trader event.
type TraderEventType int

const (
	TraderEventPlacedOrder TraderEventType = iota
	TraderEventClosedPosition
	TraderEventCovered
	TraderEventError
)

func (t TraderEventType) String() string {
	switch t {
	case TraderEventPlacedOrder:
		return "PLACED"
	case TraderEventClosedPosition:
		return "CLOSED"
	case TraderEventCovered:
		return "COVERED"
	case TraderEventError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// TraderEvent represents an action or event from a trader.
type TraderEvent struct {
	TraderID TraderID
	Time     int64
	Type     TraderEventType
	Intent   *OrderIntent // optional, for PlacedOrder, ClosedPosition and Covered
	Price    float64      // market price the trader acted on
	PnL      float64      // realized P&L of this event, if any
	Message  string       // optional, for errors or info
}
