package discord

import (
	"fmt"
	"strings"
	"sync"

	"github.com/silverpine/guildbank/internal/domain"
)

// Formatter renders ledger entries as Discord messages. Denominations are
// shown by name until the bot swaps in the guild's coin emojis. Safe for
// concurrent use: the session's ready handler swaps emojis while message
// handlers render.
type Formatter struct {
	mu    sync.RWMutex
	emoji map[domain.Denomination]string
}

func NewFormatter() *Formatter {
	emoji := make(map[domain.Denomination]string, domain.NumDenominations)
	for _, denom := range domain.Denominations() {
		emoji[denom] = denom.String()
	}
	return &Formatter{emoji: emoji}
}

// SetEmoji replaces the plain denomination name with a guild emoji.
func (f *Formatter) SetEmoji(denom domain.Denomination, emoji string) {
	if emoji == "" {
		return
	}
	f.mu.Lock()
	f.emoji[denom] = emoji
	f.mu.Unlock()
}

// Balance renders all five denominations, zeros included.
func (f *Formatter) Balance(balance domain.Amounts) string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	parts := make([]string, 0, domain.NumDenominations)
	for _, denom := range domain.Denominations() {
		parts = append(parts, fmt.Sprintf("%d %s", balance[denom], f.emoji[denom]))
	}
	return strings.Join(parts, " | ")
}

// Transaction renders one ledger entry as a title line plus detail lines.
// Unconfirmed entries are marked pending.
func (f *Formatter) Transaction(tx domain.Transaction, showReceiver bool) string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var b strings.Builder
	if !tx.Confirmed {
		b.WriteString("(Pending) ")
	}
	fmt.Fprintf(&b, "ID:%d | %s UTC - <@%d>\n", tx.ID, tx.Timestamp.UTC().Format("2006-01-02 15:04:05"), tx.ActorID)

	for _, denom := range domain.Denominations() {
		if tx.Amounts[denom] != 0 {
			fmt.Fprintf(&b, "**%d** %s ", tx.Amounts[denom], f.emoji[denom])
		}
	}
	if showReceiver {
		fmt.Fprintf(&b, "\nTo: <@%d>", tx.ReceiverAccount)
	}
	b.WriteString("\nNote: " + tx.Description)
	return b.String()
}
