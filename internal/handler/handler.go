// Package handler содержит HTTP-обработчики API сервиса энергоучёта.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/energia-vis/internal/middleware"
	"github.com/mmeshcher/energia-vis/internal/model"
	"github.com/mmeshcher/energia-vis/internal/recommend"
	"github.com/mmeshcher/energia-vis/internal/repository"
	"github.com/mmeshcher/energia-vis/internal/service"
	"github.com/mmeshcher/energia-vis/internal/token"
	"github.com/mmeshcher/energia-vis/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterUser(ctx context.Context, name, email, password, phone, address string) (*model.User, error)
	AuthenticateUser(ctx context.Context, email, password string) (*model.User, error)
	GetProfile(ctx context.Context, userID int64) (*model.User, *model.Tariff, error)
	UpdateProfile(ctx context.Context, userID int64, name, phone, address string) (*model.User, error)
	GetConsumption(ctx context.Context, userID int64, from, to *time.Time, period string) ([]model.Consumption, service.ConsumptionSummary, error)
	RecordConsumption(ctx context.Context, userID int64, kwh float64, cost *float64, date *time.Time) (*model.Consumption, error)
	Recharge(ctx context.Context, userID int64, amount float64, paymentMethod string) (*model.Transaction, int64, error)
	ListTransactions(ctx context.Context, userID int64, limit int, txType string) ([]model.Transaction, error)
	ListTariffs(ctx context.Context) ([]model.Tariff, error)
	CreateTariff(ctx context.Context, t *model.Tariff) (*model.Tariff, error)
	Subscribe(ctx context.Context, userID, tariffID int64) (*model.Tariff, float64, error)
	SubmitMeterReading(ctx context.Context, meterID string, kwh float64, at *time.Time) (*model.Consumption, float64, error)
	Recommendations(ctx context.Context, userID int64) ([]recommend.Advice, recommend.Analysis, error)
	RecommendationHistory(ctx context.Context, userID int64) ([]model.Recommendation, error)
	MarkRecommendationRead(ctx context.Context, userID, recommendationID int64) (*model.Recommendation, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	Stats(ctx context.Context) (*model.AdminStats, error)
}

// Handler реализует HTTP-обработчики API сервиса энергоучёта.
type Handler struct {
	service        Service
	logger         *zap.Logger
	tokens         *token.Manager
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, tokens *token.Manager, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		tokens:         tokens,
		authMiddleware: auth,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", zap.Error(err))
	}
}

type tariffResponse struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Price         float64  `json:"price"`
	KwhIncluded   float64  `json:"kwhIncluded"`
	ExtraKwhPrice float64  `json:"extraKwhPrice"`
	Color         string   `json:"color,omitempty"`
	Features      []string `json:"features,omitempty"`
	IsActive      bool     `json:"isActive"`
}

func newTariffResponse(t *model.Tariff) *tariffResponse {
	if t == nil {
		return nil
	}
	return &tariffResponse{
		ID:            t.ID,
		Name:          t.Name,
		Description:   t.Description,
		Price:         t.Price,
		KwhIncluded:   t.KwhIncluded,
		ExtraKwhPrice: t.ExtraKwhPrice,
		Color:         t.Color,
		Features:      t.Features,
		IsActive:      t.IsActive,
	}
}

type userResponse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone,omitempty"`
	Address     string          `json:"address,omitempty"`
	Role        model.Role      `json:"role"`
	Balance     float64         `json:"balance"`
	Consumption float64         `json:"consumption"`
	Rewards     int64           `json:"rewards"`
	TariffID    *int64          `json:"tariffId,omitempty"`
	Plan        *tariffResponse `json:"plan,omitempty"`
	MeterID     string          `json:"meterId"`
	IsActive    bool            `json:"isActive"`
	CreatedAt   string          `json:"createdAt"`
}

func newUserResponse(u *model.User, plan *model.Tariff) userResponse {
	return userResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Phone:       u.Phone,
		Address:     u.Address,
		Role:        u.Role,
		Balance:     u.Balance,
		Consumption: u.Consumption,
		Rewards:     u.Rewards,
		TariffID:    u.TariffID,
		Plan:        newTariffResponse(plan),
		MeterID:     u.MeterID,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// Register обрабатывает регистрацию нового пользователя и выдаёт токен.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Name == "" || req.Email == "" || req.Password == "" || !validation.IsValidEmail(req.Email) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	u, err := h.service.RegisterUser(r.Context(), req.Name, req.Email, req.Password, req.Phone, req.Address)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
			return
		}
		h.logger.Error("register user error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	signed, err := h.tokens.Issue(u)
	if err != nil {
		h.logger.Error("issue token error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, authResponse{Token: signed, User: newUserResponse(u, nil)})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login выполняет аутентификацию пользователя и выдаёт токен.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	u, err := h.service.AuthenticateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) || errors.Is(err, service.ErrInvalidCredentials) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		h.logger.Error("login user error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	signed, err := h.tokens.Issue(u)
	if err != nil {
		h.logger.Error("issue token error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, authResponse{Token: signed, User: newUserResponse(u, nil)})
}

// GetProfile возвращает профиль текущего пользователя без хеша пароля.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	u, plan, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("get profile error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, newUserResponse(u, plan))
}

type updateProfileRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// UpdateProfile обновляет имя, телефон и адрес текущего пользователя.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	u, err := h.service.UpdateProfile(r.Context(), userID, req.Name, req.Phone, req.Address)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("update profile error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, newUserResponse(u, nil))
}

type consumptionResponse struct {
	ID          int64    `json:"id"`
	Date        string   `json:"date"`
	Kwh         float64  `json:"kwh"`
	Cost        float64  `json:"cost"`
	Hour        *int     `json:"hour,omitempty"`
	MeterID     string   `json:"meterId,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

func newConsumptionResponse(c *model.Consumption) consumptionResponse {
	return consumptionResponse{
		ID:          c.ID,
		Date:        c.Date.Format(time.RFC3339),
		Kwh:         c.Kwh,
		Cost:        c.Cost,
		Hour:        c.Hour,
		MeterID:     c.MeterID,
		Temperature: c.Temperature,
	}
}

func parseDate(value string) (*time.Time, bool) {
	if value == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, true
		}
	}
	return nil, false
}

type consumptionListResponse struct {
	Consumption []consumptionResponse      `json:"consumption"`
	Summary     service.ConsumptionSummary `json:"summary"`
}

// GetConsumption возвращает потребление текущего пользователя за период и сводку.
func (h *Handler) GetConsumption(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	from, okFrom := parseDate(r.URL.Query().Get("startDate"))
	to, okTo := parseDate(r.URL.Query().Get("endDate"))
	if !okFrom || !okTo {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	events, summary, err := h.service.GetConsumption(r.Context(), userID, from, to, r.URL.Query().Get("period"))
	if err != nil {
		h.logger.Error("get consumption error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := consumptionListResponse{
		Consumption: make([]consumptionResponse, 0, len(events)),
		Summary:     summary,
	}
	for i := range events {
		resp.Consumption = append(resp.Consumption, newConsumptionResponse(&events[i]))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

type recordConsumptionRequest struct {
	Kwh  float64  `json:"kwh"`
	Cost *float64 `json:"cost"`
	Date string   `json:"date"`
}

// RecordConsumption сохраняет ручную запись потребления текущего пользователя.
func (h *Handler) RecordConsumption(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req recordConsumptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Kwh < 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	date, okDate := parseDate(req.Date)
	if !okDate {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	c, err := h.service.RecordConsumption(r.Context(), userID, req.Kwh, req.Cost, date)
	if err != nil {
		h.logger.Error("record consumption error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, newConsumptionResponse(c))
}

type transactionResponse struct {
	ID            int64   `json:"id"`
	Type          string  `json:"type"`
	Amount        float64 `json:"amount"`
	Description   string  `json:"description,omitempty"`
	PaymentMethod string  `json:"paymentMethod,omitempty"`
	Status        string  `json:"status"`
	BalanceBefore float64 `json:"balanceBefore"`
	BalanceAfter  float64 `json:"balanceAfter"`
	CreatedAt     string  `json:"createdAt"`
}

func newTransactionResponse(t *model.Transaction) transactionResponse {
	return transactionResponse{
		ID:            t.ID,
		Type:          string(t.Type),
		Amount:        t.Amount,
		Description:   t.Description,
		PaymentMethod: t.PaymentMethod,
		Status:        string(t.Status),
		BalanceBefore: t.BalanceBefore,
		BalanceAfter:  t.BalanceAfter,
		CreatedAt:     t.CreatedAt.Format(time.RFC3339),
	}
}

type rechargeRequest struct {
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"paymentMethod"`
}

type rechargeResponse struct {
	Transaction  transactionResponse `json:"transaction"`
	NewBalance   float64             `json:"newBalance"`
	RewardPoints int64               `json:"rewardPoints"`
}

// Recharge пополняет баланс текущего пользователя.
func (h *Handler) Recharge(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req rechargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Amount <= 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	trans, points, err := h.service.Recharge(r.Context(), userID, req.Amount, req.PaymentMethod)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAmount) {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		h.logger.Error("recharge error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, rechargeResponse{
		Transaction:  newTransactionResponse(trans),
		NewBalance:   trans.BalanceAfter,
		RewardPoints: points,
	})
}

// GetTransactions возвращает операции текущего пользователя.
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	transactions, err := h.service.ListTransactions(r.Context(), userID, limit, r.URL.Query().Get("type"))
	if err != nil {
		h.logger.Error("get transactions error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := make([]transactionResponse, 0, len(transactions))
	for i := range transactions {
		resp = append(resp, newTransactionResponse(&transactions[i]))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// GetTariffs возвращает активные тарифные планы.
func (h *Handler) GetTariffs(w http.ResponseWriter, r *http.Request) {
	tariffs, err := h.service.ListTariffs(r.Context())
	if err != nil {
		h.logger.Error("get tariffs error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := make([]*tariffResponse, 0, len(tariffs))
	for i := range tariffs {
		resp = append(resp, newTariffResponse(&tariffs[i]))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

type subscribeRequest struct {
	TariffID int64 `json:"tariffId"`
}

type subscribeResponse struct {
	Plan       *tariffResponse `json:"plan"`
	NewBalance float64         `json:"newBalance"`
}

// Subscribe подписывает текущего пользователя на тарифный план.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	tariff, newBalance, err := h.service.Subscribe(r.Context(), userID, req.TariffID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTariffNotFound):
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		case errors.Is(err, repository.ErrInsufficientBalance):
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		default:
			h.logger.Error("subscribe error", zap.Error(err), zap.Int64("userID", userID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, http.StatusOK, subscribeResponse{
		Plan:       newTariffResponse(tariff),
		NewBalance: newBalance,
	})
}

type adviceResponse struct {
	Type             string  `json:"type"`
	Title            string  `json:"title"`
	Message          string  `json:"message"`
	PotentialSavings float64 `json:"potentialSavings"`
	Priority         string  `json:"priority"`
}

type analysisResponse struct {
	AvgDaily   string `json:"avgDaily,omitempty"`
	TotalWeek  string `json:"totalWeek,omitempty"`
	Status     string `json:"status"`
	VsNational string `json:"vsNational,omitempty"`
}

type recommendationsResponse struct {
	Recommendations []adviceResponse `json:"recommendations"`
	Analysis        analysisResponse `json:"analysis"`
}

// GetRecommendations рассчитывает советы по энергосбережению для текущего пользователя.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	advices, analysis, err := h.service.Recommendations(r.Context(), userID)
	if err != nil {
		h.logger.Error("recommendations error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := recommendationsResponse{
		Recommendations: make([]adviceResponse, 0, len(advices)),
		Analysis:        analysisResponse{Status: analysis.Status},
	}

	if analysis.Status != recommend.StatusInsufficientData {
		resp.Analysis.AvgDaily = fmt.Sprintf("%.2f", analysis.AvgDaily)
		resp.Analysis.TotalWeek = fmt.Sprintf("%.2f", analysis.TotalWeek)
		resp.Analysis.VsNational = fmt.Sprintf("%.1f", analysis.VsNational)
	}

	for _, a := range advices {
		resp.Recommendations = append(resp.Recommendations, adviceResponse{
			Type:             string(a.Type),
			Title:            a.Title,
			Message:          a.Message,
			PotentialSavings: a.PotentialSavings,
			Priority:         string(a.Priority),
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

type recommendationResponse struct {
	ID               int64   `json:"id"`
	Type             string  `json:"type"`
	Title            string  `json:"title"`
	Message          string  `json:"message"`
	PotentialSavings float64 `json:"potentialSavings"`
	IsRead           bool    `json:"isRead"`
	Priority         string  `json:"priority"`
	CreatedAt        string  `json:"createdAt"`
}

func newRecommendationResponse(rec *model.Recommendation) recommendationResponse {
	return recommendationResponse{
		ID:               rec.ID,
		Type:             string(rec.Type),
		Title:            rec.Title,
		Message:          rec.Message,
		PotentialSavings: rec.PotentialSavings,
		IsRead:           rec.IsRead,
		Priority:         string(rec.Priority),
		CreatedAt:        rec.CreatedAt.Format(time.RFC3339),
	}
}

// GetRecommendationHistory возвращает сохранённые рекомендации текущего пользователя.
func (h *Handler) GetRecommendationHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	recommendations, err := h.service.RecommendationHistory(r.Context(), userID)
	if err != nil {
		h.logger.Error("recommendation history error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := make([]recommendationResponse, 0, len(recommendations))
	for i := range recommendations {
		resp = append(resp, newRecommendationResponse(&recommendations[i]))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// MarkRecommendationRead помечает рекомендацию текущего пользователя прочитанной.
func (h *Handler) MarkRecommendationRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	rec, err := h.service.MarkRecommendationRead(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrRecommendationNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("mark recommendation read error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, newRecommendationResponse(rec))
}

// GetUsers возвращает всех пользователей для панели администратора.
func (h *Handler) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("admin users error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := make([]userResponse, 0, len(users))
	for i := range users {
		resp = append(resp, newUserResponse(&users[i], nil))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

type statsResponse struct {
	Users struct {
		Total  int64 `json:"total"`
		Active int64 `json:"active"`
	} `json:"users"`
	Consumption struct {
		TotalKwh  float64 `json:"totalKwh"`
		TotalCost float64 `json:"totalCost"`
		AvgKwh    float64 `json:"avgKwh"`
	} `json:"consumption"`
	Revenue struct {
		TotalRevenue float64 `json:"totalRevenue"`
		Count        int64   `json:"count"`
	} `json:"revenue"`
}

// GetStats возвращает сводные показатели для панели администратора.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.Error("admin stats error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var resp statsResponse
	resp.Users.Total = stats.TotalUsers
	resp.Users.Active = stats.ActiveUsers
	resp.Consumption.TotalKwh = stats.Consumption.TotalKwh
	resp.Consumption.TotalCost = stats.Consumption.TotalCost
	resp.Consumption.AvgKwh = stats.Consumption.AvgKwh
	resp.Revenue.TotalRevenue = stats.Revenue.TotalRevenue
	resp.Revenue.Count = stats.Revenue.Count

	h.writeJSON(w, http.StatusOK, resp)
}

type createTariffRequest struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	KwhIncluded   float64  `json:"kwhIncluded"`
	ExtraKwhPrice float64  `json:"extraKwhPrice"`
	Color         string   `json:"color"`
	Features      []string `json:"features"`
}

// CreateTariff создаёт новый тарифный план.
func (h *Handler) CreateTariff(w http.ResponseWriter, r *http.Request) {
	var req createTariffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Name == "" || req.Price < 0 || req.KwhIncluded < 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	tariff, err := h.service.CreateTariff(r.Context(), &model.Tariff{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		KwhIncluded:   req.KwhIncluded,
		ExtraKwhPrice: req.ExtraKwhPrice,
		Color:         req.Color,
		Features:      req.Features,
	})
	if err != nil {
		h.logger.Error("create tariff error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, newTariffResponse(tariff))
}

type meterReadingRequest struct {
	MeterID   string  `json:"meterId"`
	Kwh       float64 `json:"kwh"`
	Timestamp string  `json:"timestamp"`
}

type meterReadingResponse struct {
	Consumption consumptionResponse `json:"consumption"`
	NewBalance  float64             `json:"newBalance"`
}

// SubmitMeterReading принимает показание счётчика и тарифицирует его.
func (h *Handler) SubmitMeterReading(w http.ResponseWriter, r *http.Request) {
	var req meterReadingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.MeterID == "" || req.Kwh < 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	at, okAt := parseDate(req.Timestamp)
	if !okAt {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	c, newBalance, err := h.service.SubmitMeterReading(r.Context(), req.MeterID, req.Kwh, at)
	if err != nil {
		if errors.Is(err, repository.ErrMeterNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("meter reading error", zap.Error(err), zap.String("meterID", req.MeterID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, meterReadingResponse{
		Consumption: newConsumptionResponse(c),
		NewBalance:  newBalance,
	})
}
