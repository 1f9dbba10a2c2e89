package discord

// PrivilegeOracle decides whether a user may operate the treasury commands.
// Who holds privilege is managed outside the ledger; the dispatcher only
// asks.
type PrivilegeOracle interface {
	IsPrivileged(userID int64) bool
}

// StaticOracle grants privilege to a fixed set of user ids, typically read
// from configuration at startup.
type StaticOracle struct {
	ids map[int64]struct{}
}

func NewStaticOracle(userIDs []int64) *StaticOracle {
	ids := make(map[int64]struct{}, len(userIDs))
	for _, id := range userIDs {
		ids[id] = struct{}{}
	}
	return &StaticOracle{ids: ids}
}

func (o *StaticOracle) IsPrivileged(userID int64) bool {
	_, ok := o.ids[userID]
	return ok
}
