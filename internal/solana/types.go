package solana

// TokenAccount is an SPL token account as returned by getTokenAccountsByOwner.
type TokenAccount struct {
	Pubkey string
	Mint   string
	Owner  string
	Amount uint64 // raw units, before decimals
	Frozen bool
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64
	Owner      string
	Data       string // base64 encoded
	Executable bool
}

// LogsFilter defines subscription filter for logs.
type LogsFilter struct {
	// Mentions filters logs that mention any of these program IDs.
	Mentions []string
}

// LogNotification represents a logs subscription message.
type LogNotification struct {
	Signature string
	Slot      int64
	Logs      []string
	Err       interface{}
}
