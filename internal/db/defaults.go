package db

import "shinsen_rewards/internal/domain"

// DefaultVouchers are the storefront vouchers referenced by the default prize tables
func DefaultVouchers() []domain.Voucher {
	return []domain.Voucher{
		{Code: "SPIN5", Description: "5% off your next order", DiscountPct: 5},
		{Code: "SPIN10", Description: "10% off your next order", DiscountPct: 10},
		{Code: "GIFT15", Description: "15% off any Decharmix set", DiscountPct: 15},
		{Code: "SKILL10", Description: "10% off for skilled players", DiscountPct: 10},
	}
}

func currency(name string, amount int64, weight float64) domain.PrizeEntry {
	return domain.PrizeEntry{Name: name, Kind: domain.PayoutCurrency, Amount: amount, Weight: weight}
}

func voucher(name, code string, weight float64) domain.PrizeEntry {
	return domain.PrizeEntry{Name: name, Kind: domain.PayoutVoucher, Value: code, Weight: weight}
}

func ticket(name string, t domain.TicketType, amount int64, weight float64) domain.PrizeEntry {
	return domain.PrizeEntry{Name: name, Kind: domain.PayoutTicket, Value: string(t), Amount: amount, Weight: weight}
}

func none(name string, weight float64) domain.PrizeEntry {
	return domain.PrizeEntry{Name: name, Kind: domain.PayoutNone, Weight: weight}
}

// skillTable is shared by the four skill games; a win earns a spin
func skillTable() []domain.PrizeEntry {
	return []domain.PrizeEntry{
		none("Better luck next time", 0.40),
		currency("20 coins", 20, 0.30),
		currency("50 coins", 50, 0.15),
		ticket("Free spin", domain.TicketSpin, 1, 0.10),
		voucher("10% voucher", "SKILL10", 0.05),
	}
}

// DefaultPrizeTables returns one table per game mode with ordinals and modes filled in.
// Weights of every table sum to 1.
func DefaultPrizeTables() map[domain.GameMode][]domain.PrizeEntry {
	tables := map[domain.GameMode][]domain.PrizeEntry{
		domain.GameSpin: {
			currency("10 coins", 10, 0.25),
			none("Try again", 0.20),
			currency("50 coins", 50, 0.15),
			voucher("5% voucher", "SPIN5", 0.12),
			ticket("Gift box", domain.TicketGiftBox, 1, 0.10),
			currency("100 coins", 100, 0.08),
			voucher("10% voucher", "SPIN10", 0.06),
			currency("500 coins", 500, 0.04),
		},
		domain.GameGiftBox: {
			none("Empty box", 0.35),
			currency("30 coins", 30, 0.30),
			ticket("Two spins", domain.TicketSpin, 2, 0.20),
			voucher("15% voucher", "GIFT15", 0.15),
		},
	}
	for _, m := range domain.SkillGames {
		tables[m] = skillTable()
	}
	for mode, table := range tables {
		for i := range table {
			table[i].GameMode = mode
			table[i].Ordinal = i
		}
	}
	return tables
}
