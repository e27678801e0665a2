package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/energia-vis/internal/model"
	"github.com/mmeshcher/energia-vis/internal/recommend"
	"github.com/mmeshcher/energia-vis/internal/repository"
)

type stubRepo struct {
	createUserID  int64
	createUserErr error

	userByEmail    *model.User
	userByEmailErr error

	userByID    *model.User
	userByIDErr error

	tariff    *model.Tariff
	tariffErr error

	consumptions    []model.Consumption
	consumptionsErr error

	rechargeTrans  *model.Transaction
	rechargePoints int64
	rechargeErr    error
	rechargeCalled bool

	subscribeErr error

	listTransactionsLimit int
	listTransactionsType  string

	savedRecommendations []model.Recommendation
}

func (s *stubRepo) Close() error { return nil }

func (s *stubRepo) CreateUser(ctx context.Context, u *model.User) (int64, error) {
	return s.createUserID, s.createUserErr
}

func (s *stubRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.userByEmail, s.userByEmailErr
}

func (s *stubRepo) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return s.userByID, s.userByIDErr
}

func (s *stubRepo) UpdateUserProfile(ctx context.Context, id int64, name, phone, address string) (*model.User, error) {
	return s.userByID, nil
}

func (s *stubRepo) ListUsers(ctx context.Context) ([]model.User, error) { return nil, nil }

func (s *stubRepo) GetTariff(ctx context.Context, id int64) (*model.Tariff, error) {
	return s.tariff, s.tariffErr
}

func (s *stubRepo) ListActiveTariffs(ctx context.Context) ([]model.Tariff, error) { return nil, nil }

func (s *stubRepo) CreateTariff(ctx context.Context, t *model.Tariff) (int64, error) { return 1, nil }

func (s *stubRepo) AddConsumption(ctx context.Context, c *model.Consumption) error { return nil }

func (s *stubRepo) ListConsumption(ctx context.Context, userID int64, from, to time.Time) ([]model.Consumption, error) {
	return s.consumptions, s.consumptionsErr
}

func (s *stubRepo) Recharge(ctx context.Context, userID, amountCents int64, paymentMethod string) (*model.Transaction, int64, error) {
	s.rechargeCalled = true
	return s.rechargeTrans, s.rechargePoints, s.rechargeErr
}

func (s *stubRepo) Subscribe(ctx context.Context, userID, tariffID int64) (*model.Tariff, float64, error) {
	return s.tariff, 0, s.subscribeErr
}

func (s *stubRepo) SubmitMeterReading(ctx context.Context, meterID string, kwh float64, at time.Time) (*model.Consumption, float64, error) {
	return nil, 0, nil
}

func (s *stubRepo) ListTransactions(ctx context.Context, userID int64, limit int, txType string) ([]model.Transaction, error) {
	s.listTransactionsLimit = limit
	s.listTransactionsType = txType
	return nil, nil
}

func (s *stubRepo) CreateRecommendationIfUnread(ctx context.Context, rec *model.Recommendation) (bool, error) {
	s.savedRecommendations = append(s.savedRecommendations, *rec)
	return true, nil
}

func (s *stubRepo) ListRecommendations(ctx context.Context, userID int64, limit int) ([]model.Recommendation, error) {
	return nil, nil
}

func (s *stubRepo) MarkRecommendationRead(ctx context.Context, userID, recommendationID int64) (*model.Recommendation, error) {
	return nil, nil
}

func (s *stubRepo) Stats(ctx context.Context) (*model.AdminStats, error) { return nil, nil }

func TestRegisterUser_PropagatesDuplicateError(t *testing.T) {
	repo := &stubRepo{
		createUserErr: repository.ErrUserExists,
	}
	svc := NewService(repo)

	_, err := svc.RegisterUser(context.Background(), "User", "user@example.com", "pass", "", "")
	if !errors.Is(err, repository.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthenticateUser_InvalidCredentials(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("generate hash: %v", err)
	}

	repo := &stubRepo{
		userByEmail: &model.User{
			ID:           1,
			Email:        "user@example.com",
			PasswordHash: hash,
		},
	}
	svc := NewService(repo)

	_, err = svc.AuthenticateUser(context.Background(), "user@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	u, err := svc.AuthenticateUser(context.Background(), "user@example.com", "correct")
	if err != nil {
		t.Fatalf("AuthenticateUser error: %v", err)
	}
	if u.ID != 1 {
		t.Fatalf("user ID = %d, want 1", u.ID)
	}
}

func TestRecharge_RejectsNonPositiveAmount(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	for _, amount := range []float64{0, -100} {
		_, _, err := svc.Recharge(context.Background(), 1, amount, "")
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("Recharge(%v): expected ErrInvalidAmount, got %v", amount, err)
		}
	}

	if repo.rechargeCalled {
		t.Fatalf("repository must not be called for invalid amount")
	}
}

func TestGetConsumption_EmptySummary(t *testing.T) {
	svc := NewService(&stubRepo{})

	events, summary, err := svc.GetConsumption(context.Background(), 1, nil, nil, "")
	if err != nil {
		t.Fatalf("GetConsumption error: %v", err)
	}

	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
	if summary.TotalKwh != "0.00" || summary.TotalCost != "0.00" || summary.AvgDaily != "0.00" {
		t.Fatalf("summary = %+v, want zero strings", summary)
	}
	if summary.Days != 0 {
		t.Fatalf("Days = %d, want 0", summary.Days)
	}
}

func TestGetConsumption_SummaryRounding(t *testing.T) {
	repo := &stubRepo{
		consumptions: []model.Consumption{
			{Kwh: 3.333, Cost: 100.555},
			{Kwh: 4.444, Cost: 200.444},
		},
	}
	svc := NewService(repo)

	_, summary, err := svc.GetConsumption(context.Background(), 1, nil, nil, "")
	if err != nil {
		t.Fatalf("GetConsumption error: %v", err)
	}

	if summary.TotalKwh != "7.78" {
		t.Fatalf("TotalKwh = %q, want 7.78", summary.TotalKwh)
	}
	if summary.TotalCost != "301.00" {
		t.Fatalf("TotalCost = %q, want 301.00", summary.TotalCost)
	}
	if summary.AvgDaily != "3.89" {
		t.Fatalf("AvgDaily = %q, want 3.89", summary.AvgDaily)
	}
	if summary.Days != 2 {
		t.Fatalf("Days = %d, want 2", summary.Days)
	}
}

func TestSubscribe_PropagatesInsufficientBalance(t *testing.T) {
	repo := &stubRepo{
		subscribeErr: repository.ErrInsufficientBalance,
	}
	svc := NewService(repo)

	_, _, err := svc.Subscribe(context.Background(), 1, 2)
	if !errors.Is(err, repository.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestListTransactions_DefaultLimit(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	if _, err := svc.ListTransactions(context.Background(), 1, 0, "recharge"); err != nil {
		t.Fatalf("ListTransactions error: %v", err)
	}

	if repo.listTransactionsLimit != 20 {
		t.Fatalf("limit = %d, want 20", repo.listTransactionsLimit)
	}
	if repo.listTransactionsType != "recharge" {
		t.Fatalf("type = %q, want recharge", repo.listTransactionsType)
	}
}

func TestRecommendations_PersistsComputedAdvices(t *testing.T) {
	repo := &stubRepo{
		userByID: &model.User{ID: 1},
		consumptions: []model.Consumption{
			{Kwh: 7}, {Kwh: 7}, {Kwh: 7}, {Kwh: 7}, {Kwh: 7}, {Kwh: 7}, {Kwh: 7},
		},
	}
	svc := NewService(repo)

	advices, analysis, err := svc.Recommendations(context.Background(), 1)
	if err != nil {
		t.Fatalf("Recommendations error: %v", err)
	}

	if analysis.Status != recommend.StatusHigh {
		t.Fatalf("status = %q, want high", analysis.Status)
	}
	if len(advices) != 2 {
		t.Fatalf("expected 2 advices, got %d", len(advices))
	}
	if len(repo.savedRecommendations) != 2 {
		t.Fatalf("expected 2 persisted recommendations, got %d", len(repo.savedRecommendations))
	}
	if repo.savedRecommendations[0].Title != recommend.TitleHighConsumption {
		t.Fatalf("first persisted title = %q", repo.savedRecommendations[0].Title)
	}
	if repo.savedRecommendations[1].Title != recommend.TitleStandby {
		t.Fatalf("second persisted title = %q", repo.savedRecommendations[1].Title)
	}
}

func TestRecommendations_InsufficientData(t *testing.T) {
	repo := &stubRepo{
		userByID: &model.User{ID: 1},
	}
	svc := NewService(repo)

	advices, analysis, err := svc.Recommendations(context.Background(), 1)
	if err != nil {
		t.Fatalf("Recommendations error: %v", err)
	}

	if analysis.Status != recommend.StatusInsufficientData {
		t.Fatalf("status = %q, want insufficient_data", analysis.Status)
	}
	if len(advices) != 0 {
		t.Fatalf("expected no advices, got %d", len(advices))
	}
	if len(repo.savedRecommendations) != 0 {
		t.Fatalf("nothing must be persisted without data")
	}
}
