// Package recommend реализует расчёт рекомендаций по энергосбережению.
//
// Расчёт детерминированный и не имеет состояния: на вход подаётся потребление
// пользователя за последнюю неделю, на выходе — список советов и сводка анализа.
package recommend

import (
	"fmt"

	"github.com/mmeshcher/energia-vis/internal/model"
)

const (
	// BaselineDailyKwh — среднесуточное потребление по стране, кВт·ч.
	BaselineDailyKwh = 5.5
	// DefaultRate — цена за кВт·ч без тарифного плана, песо.
	DefaultRate = 500.0

	highUsageFactor = 1.2
	peakFactor      = 1.5
	standbyShare    = 0.12
	daysPerMonth    = 30
)

// Статусы сводки анализа потребления.
const (
	StatusHigh             = "high"
	StatusNormal           = "normal"
	StatusInsufficientData = "insufficient_data"
)

// Заголовки советов. По паре (пользователь, заголовок) выполняется
// дедупликация непрочитанных рекомендаций при сохранении.
const (
	TitleHighConsumption = "High Consumption Detected"
	TitleStandby         = "Unplug Standby Devices"
	TitleEfficient       = "Efficient Consumption!"
	TitlePeaks           = "Consumption Peaks Detected"
)

// Analysis содержит сводку анализа недельного потребления.
type Analysis struct {
	AvgDaily   float64
	TotalWeek  float64
	Status     string
	VsNational float64
}

// Advice описывает один рассчитанный совет до его сохранения.
type Advice struct {
	Type             model.RecommendationType
	Title            string
	Message          string
	PotentialSavings float64
	Priority         model.Priority
}

// Analyze классифицирует недельное потребление пользователя и формирует советы.
// tariff может быть nil, тогда экономия оценивается по базовой цене.
func Analyze(events []model.Consumption, tariff *model.Tariff) ([]Advice, Analysis) {
	if len(events) == 0 {
		return nil, Analysis{Status: StatusInsufficientData}
	}

	var totalKwh, maxKwh float64
	for _, e := range events {
		totalKwh += e.Kwh
		if e.Kwh > maxKwh {
			maxKwh = e.Kwh
		}
	}
	avgDaily := totalKwh / float64(len(events))

	status := StatusNormal
	if avgDaily > BaselineDailyKwh {
		status = StatusHigh
	}

	analysis := Analysis{
		AvgDaily:   avgDaily,
		TotalWeek:  totalKwh,
		Status:     status,
		VsNational: (avgDaily/BaselineDailyKwh - 1) * 100,
	}

	overageRate := DefaultRate
	if tariff != nil {
		overageRate = tariff.ExtraKwhPrice
	}

	var advices []Advice

	if avgDaily > BaselineDailyKwh*highUsageFactor {
		advices = append(advices,
			Advice{
				Type:             model.RecommendationAlert,
				Title:            TitleHighConsumption,
				Message:          fmt.Sprintf("Your average daily consumption (%.1f kWh) is %.1f%% above the national average.", avgDaily, analysis.VsNational),
				PotentialSavings: (avgDaily - BaselineDailyKwh) * daysPerMonth * overageRate,
				Priority:         model.PriorityHigh,
			},
			Advice{
				Type:             model.RecommendationTip,
				Title:            TitleStandby,
				Message:          "Devices in standby mode can consume up to 10-15% of your total energy.",
				PotentialSavings: totalKwh * standbyShare * DefaultRate,
				Priority:         model.PriorityMedium,
			},
		)
	} else {
		advices = append(advices, Advice{
			Type:             model.RecommendationBonus,
			Title:            TitleEfficient,
			Message:          "You are keeping your consumption below the average. Keep it up!",
			PotentialSavings: 0,
			Priority:         model.PriorityLow,
		})
	}

	if maxKwh > avgDaily*peakFactor {
		advices = append(advices, Advice{
			Type:             model.RecommendationTip,
			Title:            TitlePeaks,
			Message:          "Some days your consumption is significantly higher. Try spreading out appliance usage.",
			PotentialSavings: (maxKwh - avgDaily) * DefaultRate,
			Priority:         model.PriorityMedium,
		})
	}

	return advices, analysis
}
