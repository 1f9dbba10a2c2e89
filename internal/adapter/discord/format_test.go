package discord

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/silverpine/guildbank/internal/domain"
)

func TestBalanceRendersAllDenominations(t *testing.T) {
	t.Parallel()

	f := NewFormatter()
	got := f.Balance(domain.Amounts{domain.Platinum: 1, domain.Silver: 30})
	assert.Equal(t, "1 platinum | 0 gold | 0 electrum | 30 silver | 0 copper", got)

	got = f.Balance(domain.Amounts{})
	assert.Equal(t, "0 platinum | 0 gold | 0 electrum | 0 silver | 0 copper", got)
}

func TestSetEmojiSwapsInGuildCoins(t *testing.T) {
	t.Parallel()

	f := NewFormatter()
	f.SetEmoji(domain.Gold, "<:gold:123>")
	f.SetEmoji(domain.Copper, "")

	got := f.Balance(domain.Amounts{domain.Gold: 3, domain.Copper: 7})
	assert.Equal(t, "0 platinum | 3 <:gold:123> | 0 electrum | 0 silver | 7 copper", got)
}

// Discord dispatches the ready handler and message handlers on separate
// goroutines, so emoji swaps overlap with rendering.
func TestConcurrentEmojiSwapAndRender(t *testing.T) {
	t.Parallel()

	f := NewFormatter()
	tx := domain.Transaction{
		ID:          3,
		Timestamp:   time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC),
		ActorID:     5,
		Amounts:     domain.Amounts{domain.Gold: 2, domain.Copper: 9},
		Description: "loot split",
		Confirmed:   true,
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for _, denom := range domain.Denominations() {
				f.SetEmoji(denom, "<:"+denom.String()+":101>")
			}
		}()
		go func() {
			defer wg.Done()
			_ = f.Balance(domain.Amounts{domain.Gold: 3})
			_ = f.Transaction(tx, true)
		}()
	}
	wg.Wait()

	assert.Contains(t, f.Balance(domain.Amounts{domain.Gold: 3}), "3 <:gold:101>")
}

func TestTransactionRendering(t *testing.T) {
	t.Parallel()

	bookedAt := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		tx           domain.Transaction
		showReceiver bool
		want         string
	}{
		{
			name: "confirmed",
			tx: domain.Transaction{
				ID:              4,
				Timestamp:       bookedAt,
				ActorID:         5,
				SenderAccount:   5,
				ReceiverAccount: 5,
				Amounts:         domain.Amounts{domain.Gold: 2, domain.Copper: 9},
				Description:     "loot split",
				Confirmed:       true,
			},
			want: "ID:4 | 2024-03-10 12:00:00 UTC - <@5>\n**2** gold **9** copper \nNote: loot split",
		},
		{
			name: "pending with receiver",
			tx: domain.Transaction{
				ID:              7,
				Timestamp:       bookedAt,
				ActorID:         5,
				SenderAccount:   5,
				ReceiverAccount: 9,
				Amounts:         domain.Amounts{domain.Silver: -4},
				Description:     "rations",
			},
			showReceiver: true,
			want:         "(Pending) ID:7 | 2024-03-10 12:00:00 UTC - <@5>\n**-4** silver \nTo: <@9>\nNote: rations",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := NewFormatter().Transaction(tt.tx, tt.showReceiver)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransactionRendersNonUTCTimestampsInUTC(t *testing.T) {
	t.Parallel()

	zone := time.FixedZone("UTC+2", 2*60*60)
	tx := domain.Transaction{
		ID:        1,
		Timestamp: time.Date(2024, time.March, 10, 14, 0, 0, 0, zone),
		ActorID:   5,
		Amounts:   domain.Amounts{domain.Gold: 1},
		Confirmed: true,
	}

	got := NewFormatter().Transaction(tx, false)
	assert.Contains(t, got, "2024-03-10 12:00:00 UTC")
}
