package domain

// TradeEvent is a single executed trade reported for a trader.
type TradeEvent struct {
	Trader        Pubkey // trader who executed the trade
	Volume        uint64 // traded volume in base token units
	ExecutionTime uint64 // execution latency reported by the venue
	PnL           int64  // realized profit/loss of the trade, may be negative
	Signature     string // source transaction signature or message key (optional)
	Source        string // feed that produced the event, e.g. "ws", "kafka", "api"
	Slot          int64  // chain slot of the source transaction, 0 when unknown
	EventIndex    int    // position of the event within its transaction
}
