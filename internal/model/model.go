// Package model содержит доменные сущности сервиса энергоучёта.
package model

import "time"

// Role описывает роль пользователя в системе.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User представляет зарегистрированного пользователя с предоплатным счётом.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash []byte
	Phone        string
	Address      string
	Role         Role
	Balance      float64
	Consumption  float64
	Rewards      int64
	TariffID     *int64
	MeterID      string
	IsActive     bool
	CreatedAt    time.Time
}

// Tariff описывает тарифный план с месячным объёмом энергии и ценой сверхлимита.
type Tariff struct {
	ID            int64
	Name          string
	Description   string
	Price         float64
	KwhIncluded   float64
	ExtraKwhPrice float64
	Color         string
	Features      []string
	IsActive      bool
	CreatedAt     time.Time
}

// Consumption описывает единичное показание счётчика или ручную запись потребления.
type Consumption struct {
	ID          int64
	UserID      int64
	Date        time.Time
	Kwh         float64
	Cost        float64
	Hour        *int
	MeterID     string
	Temperature *float64
	CreatedAt   time.Time
}

// TransactionType описывает тип операции по балансу.
type TransactionType string

const (
	TransactionRecharge     TransactionType = "recharge"
	TransactionConsumption  TransactionType = "consumption"
	TransactionSubscription TransactionType = "subscription"
	TransactionReward       TransactionType = "reward"
)

// TransactionStatus описывает статус операции по балансу.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

// Transaction описывает неизменяемую запись операции, затрагивающей баланс.
type Transaction struct {
	ID            int64
	UserID        int64
	Type          TransactionType
	Amount        float64
	Description   string
	PaymentMethod string
	Status        TransactionStatus
	BalanceBefore float64
	BalanceAfter  float64
	CreatedAt     time.Time
}

// RecommendationType описывает тип рекомендации по энергосбережению.
type RecommendationType string

const (
	RecommendationAlert RecommendationType = "alert"
	RecommendationTip   RecommendationType = "tip"
	RecommendationBonus RecommendationType = "bonus"
)

// Priority описывает приоритет рекомендации.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Recommendation описывает сохранённую рекомендацию для пользователя.
type Recommendation struct {
	ID               int64
	UserID           int64
	Type             RecommendationType
	Title            string
	Message          string
	PotentialSavings float64
	IsRead           bool
	Priority         Priority
	CreatedAt        time.Time
}

// ConsumptionStats содержит агрегаты потребления по всем пользователям.
type ConsumptionStats struct {
	TotalKwh  float64
	TotalCost float64
	AvgKwh    float64
}

// RevenueStats содержит агрегаты по завершённым пополнениям баланса.
type RevenueStats struct {
	TotalRevenue float64
	Count        int64
}

// AdminStats содержит сводные показатели для панели администратора.
type AdminStats struct {
	TotalUsers  int64
	ActiveUsers int64
	Consumption ConsumptionStats
	Revenue     RevenueStats
}
