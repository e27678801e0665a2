// Package billing содержит чистую арифметику тарификации потребления и бонусных баллов.
//
// Денежные суммы считаются в сентаво (1/100 песо), как они хранятся в БД.
package billing

import "math"

// DefaultRateCents — базовая цена за кВт·ч без тарифного плана (500 песо).
const DefaultRateCents int64 = 500 * 100

// rewardDivisorCents — 1 бонусный балл за каждые 1000 песо пополнения.
const rewardDivisorCents int64 = 1000 * 100

// FlatCost возвращает стоимость потребления по базовой цене.
func FlatCost(kwh float64) int64 {
	return int64(math.Round(kwh * float64(DefaultRateCents)))
}

// OverageCost возвращает стоимость нового показания по тарифу со сверхлимитной ценой.
// Оплачивается превышение месячного объёма monthKwh+kwh над includedKwh.
func OverageCost(monthKwh, kwh, includedKwh float64, extraPriceCents int64) int64 {
	total := monthKwh + kwh
	if total <= includedKwh {
		return 0
	}

	extra := total - includedKwh
	return int64(math.Round(extra * float64(extraPriceCents)))
}

// RewardPoints возвращает количество бонусных баллов за пополнение баланса.
func RewardPoints(amountCents int64) int64 {
	if amountCents <= 0 {
		return 0
	}
	return amountCents / rewardDivisorCents
}

// CentsToPesos переводит сумму из сентаво в песо.
func CentsToPesos(cents int64) float64 {
	return float64(cents) / 100
}

// PesosToCents переводит сумму из песо в сентаво.
func PesosToCents(pesos float64) int64 {
	return int64(math.Round(pesos * 100))
}
