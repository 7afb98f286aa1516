package core

// MethodBalance pairs a method name with a cumulative balance.
type MethodBalance struct {
	Method  string
	Balance Money
}

// BalanceView is the snapshot of every method as of one month, in registry
// order. MonthIndex is the terminal index for the all-time view.
type BalanceView struct {
	MonthIndex int
	Balances   []MethodBalance
}

// Balance returns the balance for one method, zero if absent.
func (v BalanceView) Balance(method string) Money {
	for _, b := range v.Balances {
		if b.Method == method {
			return b.Balance
		}
	}
	return Money{}
}
