// Package service реализует бизнес-логику сервиса энергоучёта.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/energia-vis/internal/billing"
	"github.com/mmeshcher/energia-vis/internal/model"
	"github.com/mmeshcher/energia-vis/internal/recommend"
)

// ErrInvalidCredentials возвращается при несовпадении пары email/пароль.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidAmount возвращается для неположительной суммы пополнения.
	ErrInvalidAmount = errors.New("amount must be positive")
)

const defaultTransactionsLimit = 20

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	CreateUser(ctx context.Context, u *model.User) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	UpdateUserProfile(ctx context.Context, id int64, name, phone, address string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	GetTariff(ctx context.Context, id int64) (*model.Tariff, error)
	ListActiveTariffs(ctx context.Context) ([]model.Tariff, error)
	CreateTariff(ctx context.Context, t *model.Tariff) (int64, error)
	AddConsumption(ctx context.Context, c *model.Consumption) error
	ListConsumption(ctx context.Context, userID int64, from, to time.Time) ([]model.Consumption, error)
	Recharge(ctx context.Context, userID, amountCents int64, paymentMethod string) (*model.Transaction, int64, error)
	Subscribe(ctx context.Context, userID, tariffID int64) (*model.Tariff, float64, error)
	SubmitMeterReading(ctx context.Context, meterID string, kwh float64, at time.Time) (*model.Consumption, float64, error)
	ListTransactions(ctx context.Context, userID int64, limit int, txType string) ([]model.Transaction, error)
	CreateRecommendationIfUnread(ctx context.Context, rec *model.Recommendation) (bool, error)
	ListRecommendations(ctx context.Context, userID int64, limit int) ([]model.Recommendation, error)
	MarkRecommendationRead(ctx context.Context, userID, recommendationID int64) (*model.Recommendation, error)
	Stats(ctx context.Context) (*model.AdminStats, error)
}

// Service содержит бизнес-логику сервиса энергоучёта.
type Service struct {
	repo Repository
}

// NewService создаёт новый сервис с указанным репозиторием.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// RegisterUser регистрирует нового пользователя и назначает ему идентификатор счётчика.
func (s *Service) RegisterUser(ctx context.Context, name, email, password, phone, address string) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Phone:        phone,
		Address:      address,
		MeterID:      fmt.Sprintf("MET%d", time.Now().UnixMilli()),
	}

	id, err := s.repo.CreateUser(ctx, u)
	if err != nil {
		return nil, err
	}

	return s.repo.GetUserByID(ctx, id)
}

// AuthenticateUser проверяет email и пароль и возвращает пользователя.
func (s *Service) AuthenticateUser(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// GetProfile возвращает пользователя и его тарифный план, если он назначен.
func (s *Service) GetProfile(ctx context.Context, userID int64) (*model.User, *model.Tariff, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	var tariff *model.Tariff
	if u.TariffID != nil {
		tariff, err = s.repo.GetTariff(ctx, *u.TariffID)
		if err != nil {
			return nil, nil, err
		}
	}

	return u, tariff, nil
}

// UpdateProfile обновляет имя, телефон и адрес пользователя.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, name, phone, address string) (*model.User, error) {
	return s.repo.UpdateUserProfile(ctx, userID, name, phone, address)
}

// ConsumptionSummary содержит итоги по выборке потребления. Числовые поля
// сериализуются строками с двумя знаками после запятой.
type ConsumptionSummary struct {
	TotalKwh  string `json:"totalKwh"`
	TotalCost string `json:"totalCost"`
	AvgDaily  string `json:"avgDaily"`
	Days      int    `json:"days"`
}

// GetConsumption возвращает потребление пользователя за период и сводку по нему.
// При отсутствии явных дат берётся окно в 7 дней, для периода month — 30.
func (s *Service) GetConsumption(ctx context.Context, userID int64, from, to *time.Time, period string) ([]model.Consumption, ConsumptionSummary, error) {
	now := time.Now()

	start, end := now, now
	if from != nil && to != nil {
		start, end = *from, *to
	} else {
		days := 7
		if period == "month" {
			days = 30
		}
		start = now.Add(-time.Duration(days) * 24 * time.Hour)
	}

	events, err := s.repo.ListConsumption(ctx, userID, start, end)
	if err != nil {
		return nil, ConsumptionSummary{}, err
	}

	var totalKwh, totalCost float64
	for _, e := range events {
		totalKwh += e.Kwh
		totalCost += e.Cost
	}

	avgDaily := 0.0
	if len(events) > 0 {
		avgDaily = totalKwh / float64(len(events))
	}

	summary := ConsumptionSummary{
		TotalKwh:  fmt.Sprintf("%.2f", totalKwh),
		TotalCost: fmt.Sprintf("%.2f", totalCost),
		AvgDaily:  fmt.Sprintf("%.2f", avgDaily),
		Days:      len(events),
	}

	return events, summary, nil
}

// RecordConsumption сохраняет ручную запись потребления. Если стоимость не
// указана, она считается по базовой цене за кВт·ч. Баланс не затрагивается.
func (s *Service) RecordConsumption(ctx context.Context, userID int64, kwh float64, cost *float64, date *time.Time) (*model.Consumption, error) {
	c := &model.Consumption{
		UserID: userID,
		Date:   time.Now(),
		Kwh:    kwh,
	}
	if date != nil {
		c.Date = *date
	}

	if cost != nil {
		c.Cost = *cost
	} else {
		c.Cost = billing.CentsToPesos(billing.FlatCost(kwh))
	}

	if err := s.repo.AddConsumption(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

// Recharge пополняет баланс пользователя и начисляет бонусные баллы.
func (s *Service) Recharge(ctx context.Context, userID int64, amount float64, paymentMethod string) (*model.Transaction, int64, error) {
	amountCents := billing.PesosToCents(amount)
	if amountCents <= 0 {
		return nil, 0, ErrInvalidAmount
	}

	if paymentMethod == "" {
		paymentMethod = "online"
	}

	return s.repo.Recharge(ctx, userID, amountCents, paymentMethod)
}

// ListTransactions возвращает операции пользователя с фильтром по типу.
func (s *Service) ListTransactions(ctx context.Context, userID int64, limit int, txType string) ([]model.Transaction, error) {
	if limit <= 0 {
		limit = defaultTransactionsLimit
	}
	return s.repo.ListTransactions(ctx, userID, limit, txType)
}

// ListTariffs возвращает активные тарифные планы.
func (s *Service) ListTariffs(ctx context.Context) ([]model.Tariff, error) {
	return s.repo.ListActiveTariffs(ctx)
}

// CreateTariff создаёт новый тарифный план.
func (s *Service) CreateTariff(ctx context.Context, t *model.Tariff) (*model.Tariff, error) {
	id, err := s.repo.CreateTariff(ctx, t)
	if err != nil {
		return nil, err
	}
	return s.repo.GetTariff(ctx, id)
}

// Subscribe подписывает пользователя на тарифный план, списывая его стоимость с баланса.
func (s *Service) Subscribe(ctx context.Context, userID, tariffID int64) (*model.Tariff, float64, error) {
	return s.repo.Subscribe(ctx, userID, tariffID)
}

// SubmitMeterReading сохраняет показание счётчика с тарификацией и списанием с баланса.
func (s *Service) SubmitMeterReading(ctx context.Context, meterID string, kwh float64, at *time.Time) (*model.Consumption, float64, error) {
	when := time.Now()
	if at != nil {
		when = *at
	}
	return s.repo.SubmitMeterReading(ctx, meterID, kwh, when)
}

// Recommendations анализирует потребление пользователя за последнюю неделю,
// сохраняет новые советы с дедупликацией по заголовку среди непрочитанных и
// возвращает свежерассчитанный список вместе со сводкой анализа.
func (s *Service) Recommendations(ctx context.Context, userID int64) ([]recommend.Advice, recommend.Analysis, error) {
	now := time.Now()
	events, err := s.repo.ListConsumption(ctx, userID, now.Add(-7*24*time.Hour), now)
	if err != nil {
		return nil, recommend.Analysis{}, err
	}

	var tariff *model.Tariff
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, recommend.Analysis{}, err
	}
	if u.TariffID != nil {
		tariff, err = s.repo.GetTariff(ctx, *u.TariffID)
		if err != nil {
			return nil, recommend.Analysis{}, err
		}
	}

	advices, analysis := recommend.Analyze(events, tariff)

	for _, a := range advices {
		rec := &model.Recommendation{
			UserID:           userID,
			Type:             a.Type,
			Title:            a.Title,
			Message:          a.Message,
			PotentialSavings: a.PotentialSavings,
			Priority:         a.Priority,
		}
		if _, err := s.repo.CreateRecommendationIfUnread(ctx, rec); err != nil {
			return nil, recommend.Analysis{}, err
		}
	}

	return advices, analysis, nil
}

// RecommendationHistory возвращает сохранённые рекомендации пользователя.
func (s *Service) RecommendationHistory(ctx context.Context, userID int64) ([]model.Recommendation, error) {
	return s.repo.ListRecommendations(ctx, userID, 20)
}

// MarkRecommendationRead помечает рекомендацию пользователя прочитанной.
func (s *Service) MarkRecommendationRead(ctx context.Context, userID, recommendationID int64) (*model.Recommendation, error) {
	return s.repo.MarkRecommendationRead(ctx, userID, recommendationID)
}

// ListUsers возвращает всех пользователей для панели администратора.
func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.ListUsers(ctx)
}

// Stats возвращает сводные показатели для панели администратора.
func (s *Service) Stats(ctx context.Context) (*model.AdminStats, error) {
	return s.repo.Stats(ctx)
}
