// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/energia-vis/internal/billing"
	"github.com/mmeshcher/energia-vis/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrUserExists возвращается при попытке зарегистрировать уже занятый email.
var (
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrTariffNotFound возвращается, если тарифный план не найден.
	ErrTariffNotFound = errors.New("tariff not found")
	// ErrMeterNotFound возвращается, если счётчик не привязан ни к одному пользователю.
	ErrMeterNotFound = errors.New("meter not found")
	// ErrInsufficientBalance возвращается при попытке списания суммы, превышающей баланс.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrRecommendationNotFound возвращается, если рекомендация не найдена у пользователя.
	ErrRecommendationNotFound = errors.New("recommendation not found")
)

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// withRetry повторяет операцию при сериализационных сбоях и дедлоках,
// которые возможны в транзакциях с блокировкой строки пользователя.
func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delays := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected {
				if i < len(delays) {
					time.Sleep(delays[i])
					continue
				}
			}
		}

		if isConnectionError(err) {
			if i < len(delays) {
				time.Sleep(delays[i])
				continue
			}
		}

		break
	}
	return err
}

func isConnectionError(err error) bool {
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

const userColumns = `id, name, email, password_hash, phone, address, role, balance, consumption, rewards, tariff_id, meter_id, is_active, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u            model.User
		role         string
		balanceCents int64
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Phone, &u.Address,
		&role, &balanceCents, &u.Consumption, &u.Rewards, &u.TariffID, &u.MeterID,
		&u.IsActive, &u.CreatedAt)
	if err != nil {
		return nil, err
	}

	u.Role = model.Role(role)
	u.Balance = billing.CentsToPesos(balanceCents)
	return &u, nil
}

// CreateUser создаёт нового пользователя и возвращает его идентификатор.
func (r *PostgresRepository) CreateUser(ctx context.Context, u *model.User) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash, phone, address, meter_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		u.Name, u.Email, u.PasswordHash, u.Phone, u.Address, u.MeterID,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%w: %s", ErrUserExists, u.Email)
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

// GetUserByEmail возвращает пользователя по адресу электронной почты.
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// GetUserByID возвращает пользователя по идентификатору.
func (r *PostgresRepository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// UpdateUserProfile обновляет имя, телефон и адрес пользователя.
func (r *PostgresRepository) UpdateUserProfile(ctx context.Context, id int64, name, phone, address string) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`UPDATE users SET name = $2, phone = $3, address = $4
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, name, phone, address))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update user profile: %w", err)
	}
	return u, nil
}

// ListUsers возвращает всех пользователей, сначала новых.
func (r *PostgresRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return users, nil
}

const tariffColumns = `id, name, description, price, kwh_included, extra_kwh_price, color, features, is_active, created_at`

func scanTariff(row pgx.Row) (*model.Tariff, error) {
	var (
		t          model.Tariff
		priceCents int64
		extraCents int64
	)
	err := row.Scan(&t.ID, &t.Name, &t.Description, &priceCents, &t.KwhIncluded,
		&extraCents, &t.Color, &t.Features, &t.IsActive, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	t.Price = billing.CentsToPesos(priceCents)
	t.ExtraKwhPrice = billing.CentsToPesos(extraCents)
	return &t, nil
}

// GetTariff возвращает тарифный план по идентификатору.
func (r *PostgresRepository) GetTariff(ctx context.Context, id int64) (*model.Tariff, error) {
	t, err := scanTariff(r.pool.QueryRow(ctx,
		`SELECT `+tariffColumns+` FROM tariffs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTariffNotFound
		}
		return nil, fmt.Errorf("get tariff: %w", err)
	}
	return t, nil
}

// ListActiveTariffs возвращает все активные тарифные планы.
func (r *PostgresRepository) ListActiveTariffs(ctx context.Context) ([]model.Tariff, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+tariffColumns+` FROM tariffs WHERE is_active ORDER BY price`)
	if err != nil {
		return nil, fmt.Errorf("select tariffs: %w", err)
	}
	defer rows.Close()

	var tariffs []model.Tariff
	for rows.Next() {
		t, err := scanTariff(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tariff: %w", err)
		}
		tariffs = append(tariffs, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return tariffs, nil
}

// CreateTariff создаёт новый тарифный план и возвращает его идентификатор.
func (r *PostgresRepository) CreateTariff(ctx context.Context, t *model.Tariff) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO tariffs (name, description, price, kwh_included, extra_kwh_price, color, features)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		t.Name, t.Description, billing.PesosToCents(t.Price), t.KwhIncluded,
		billing.PesosToCents(t.ExtraKwhPrice), t.Color, t.Features,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create tariff: %w", err)
	}
	return id, nil
}

const consumptionColumns = `id, user_id, date, kwh, cost, hour, meter_id, temperature, created_at`

func scanConsumption(row pgx.Row) (*model.Consumption, error) {
	var (
		c         model.Consumption
		costCents int64
	)
	err := row.Scan(&c.ID, &c.UserID, &c.Date, &c.Kwh, &costCents, &c.Hour,
		&c.MeterID, &c.Temperature, &c.CreatedAt)
	if err != nil {
		return nil, err
	}

	c.Cost = billing.CentsToPesos(costCents)
	return &c, nil
}

// AddConsumption сохраняет запись потребления и увеличивает накопленный
// счётчик пользователя в одной транзакции. Баланс не затрагивается.
func (r *PostgresRepository) AddConsumption(ctx context.Context, c *model.Consumption) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO consumptions (user_id, date, kwh, cost, hour, meter_id, temperature)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		c.UserID, c.Date, c.Kwh, billing.PesosToCents(c.Cost), c.Hour, c.MeterID, c.Temperature,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert consumption: %w", err)
	}

	cmdTag, err := tx.Exec(ctx,
		`UPDATE users SET consumption = consumption + $2 WHERE id = $1`,
		c.UserID, c.Kwh,
	)
	if err != nil {
		return fmt.Errorf("update user consumption: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// ListConsumption возвращает записи потребления пользователя за период, сначала старые.
func (r *PostgresRepository) ListConsumption(ctx context.Context, userID int64, from, to time.Time) ([]model.Consumption, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+consumptionColumns+`
		 FROM consumptions
		 WHERE user_id = $1 AND date >= $2 AND date <= $3
		 ORDER BY date`,
		userID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("select consumptions: %w", err)
	}
	defer rows.Close()

	var res []model.Consumption
	for rows.Next() {
		c, err := scanConsumption(rows)
		if err != nil {
			return nil, fmt.Errorf("scan consumption: %w", err)
		}
		res = append(res, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

const transactionColumns = `id, user_id, type, amount, description, payment_method, status, balance_before, balance_after, created_at`

func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	var (
		t           model.Transaction
		txType      string
		status      string
		amountCents int64
		beforeCents int64
		afterCents  int64
	)
	err := row.Scan(&t.ID, &t.UserID, &txType, &amountCents, &t.Description,
		&t.PaymentMethod, &status, &beforeCents, &afterCents, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	t.Type = model.TransactionType(txType)
	t.Status = model.TransactionStatus(status)
	t.Amount = billing.CentsToPesos(amountCents)
	t.BalanceBefore = billing.CentsToPesos(beforeCents)
	t.BalanceAfter = billing.CentsToPesos(afterCents)
	return &t, nil
}

// Recharge пополняет баланс пользователя и создаёт запись в журнале операций.
// Строка пользователя блокируется на время транзакции, поэтому параллельные
// операции над одним счётом сериализуются.
func (r *PostgresRepository) Recharge(ctx context.Context, userID, amountCents int64, paymentMethod string) (*model.Transaction, int64, error) {
	var (
		trans  *model.Transaction
		points int64
	)

	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var balanceBefore int64
		err = tx.QueryRow(ctx,
			`SELECT balance FROM users WHERE id = $1 FOR UPDATE`, userID,
		).Scan(&balanceBefore)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("lock user: %w", err)
		}

		balanceAfter := balanceBefore + amountCents
		points = billing.RewardPoints(amountCents)

		_, err = tx.Exec(ctx,
			`UPDATE users SET balance = $2, rewards = rewards + $3 WHERE id = $1`,
			userID, balanceAfter, points,
		)
		if err != nil {
			return fmt.Errorf("update balance: %w", err)
		}

		trans, err = scanTransaction(tx.QueryRow(ctx,
			`INSERT INTO transactions (user_id, type, amount, description, payment_method, balance_before, balance_after)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING `+transactionColumns,
			userID, string(model.TransactionRecharge), amountCents,
			"Balance recharge", paymentMethod, balanceBefore, balanceAfter,
		))
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return trans, points, nil
}

// Subscribe списывает стоимость тарифного плана с баланса и назначает план пользователю.
// Баланс до списания фиксируется под блокировкой строки пользователя.
func (r *PostgresRepository) Subscribe(ctx context.Context, userID, tariffID int64) (*model.Tariff, float64, error) {
	var (
		tariff     *model.Tariff
		newBalance int64
	)

	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		tariff, err = scanTariff(tx.QueryRow(ctx,
			`SELECT `+tariffColumns+` FROM tariffs WHERE id = $1 AND is_active`, tariffID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrTariffNotFound
			}
			return fmt.Errorf("get tariff: %w", err)
		}

		var balanceBefore int64
		err = tx.QueryRow(ctx,
			`SELECT balance FROM users WHERE id = $1 FOR UPDATE`, userID,
		).Scan(&balanceBefore)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("lock user: %w", err)
		}

		priceCents := billing.PesosToCents(tariff.Price)
		if balanceBefore < priceCents {
			return ErrInsufficientBalance
		}

		newBalance = balanceBefore - priceCents

		_, err = tx.Exec(ctx,
			`UPDATE users SET balance = $2, tariff_id = $3 WHERE id = $1`,
			userID, newBalance, tariffID,
		)
		if err != nil {
			return fmt.Errorf("update user: %w", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO transactions (user_id, type, amount, description, balance_before, balance_after)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			userID, string(model.TransactionSubscription), -priceCents,
			fmt.Sprintf("Subscription to plan %s", tariff.Name), balanceBefore, newBalance,
		)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return tariff, billing.CentsToPesos(newBalance), nil
}

// SubmitMeterReading сохраняет показание счётчика с тарификацией по плану
// владельца. Запись потребления, накопленный счётчик, списание с баланса и
// запись в журнале выполняются в одной транзакции под блокировкой строки
// пользователя.
func (r *PostgresRepository) SubmitMeterReading(ctx context.Context, meterID string, kwh float64, at time.Time) (*model.Consumption, float64, error) {
	var (
		cons       *model.Consumption
		newBalance int64
	)

	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var (
			userID        int64
			balanceBefore int64
			tariffID      *int64
		)
		err = tx.QueryRow(ctx,
			`SELECT id, balance, tariff_id FROM users WHERE meter_id = $1 FOR UPDATE`, meterID,
		).Scan(&userID, &balanceBefore, &tariffID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrMeterNotFound
			}
			return fmt.Errorf("lock user by meter: %w", err)
		}

		var costCents int64
		if tariffID != nil {
			var (
				included   float64
				extraCents int64
			)
			err = tx.QueryRow(ctx,
				`SELECT kwh_included, extra_kwh_price FROM tariffs WHERE id = $1`, *tariffID,
			).Scan(&included, &extraCents)
			if err != nil {
				return fmt.Errorf("get tariff: %w", err)
			}

			var monthKwh float64
			err = tx.QueryRow(ctx,
				`SELECT COALESCE(SUM(kwh), 0)
				 FROM consumptions
				 WHERE user_id = $1 AND date >= date_trunc('month', now())`,
				userID,
			).Scan(&monthKwh)
			if err != nil {
				return fmt.Errorf("sum month consumption: %w", err)
			}

			costCents = billing.OverageCost(monthKwh, kwh, included, extraCents)
		} else {
			costCents = billing.FlatCost(kwh)
		}

		cons, err = scanConsumption(tx.QueryRow(ctx,
			`INSERT INTO consumptions (user_id, date, kwh, cost, meter_id)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING `+consumptionColumns,
			userID, at, kwh, costCents, meterID,
		))
		if err != nil {
			return fmt.Errorf("insert consumption: %w", err)
		}

		newBalance = balanceBefore
		if costCents > 0 {
			newBalance = balanceBefore - costCents

			_, err = tx.Exec(ctx,
				`INSERT INTO transactions (user_id, type, amount, description, balance_before, balance_after)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				userID, string(model.TransactionConsumption), -costCents,
				fmt.Sprintf("Consumption of %g kWh", kwh), balanceBefore, newBalance,
			)
			if err != nil {
				return fmt.Errorf("insert transaction: %w", err)
			}
		}

		_, err = tx.Exec(ctx,
			`UPDATE users SET consumption = consumption + $2, balance = $3 WHERE id = $1`,
			userID, kwh, newBalance,
		)
		if err != nil {
			return fmt.Errorf("update user: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return cons, billing.CentsToPesos(newBalance), nil
}

// ListTransactions возвращает операции пользователя, сначала новые.
// Пустой txType означает отсутствие фильтра по типу.
func (r *PostgresRepository) ListTransactions(ctx context.Context, userID int64, limit int, txType string) ([]model.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		 FROM transactions
		 WHERE user_id = $1 AND ($2 = '' OR type = $2)
		 ORDER BY created_at DESC
		 LIMIT $3`

	rows, err := r.pool.Query(ctx, query, userID, txType, limit)
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	defer rows.Close()

	var res []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		res = append(res, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

const recommendationColumns = `id, user_id, type, title, message, potential_savings, is_read, priority, created_at`

func scanRecommendation(row pgx.Row) (*model.Recommendation, error) {
	var (
		rec          model.Recommendation
		recType      string
		priority     string
		savingsCents int64
	)
	err := row.Scan(&rec.ID, &rec.UserID, &recType, &rec.Title, &rec.Message,
		&savingsCents, &rec.IsRead, &priority, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}

	rec.Type = model.RecommendationType(recType)
	rec.Priority = model.Priority(priority)
	rec.PotentialSavings = billing.CentsToPesos(savingsCents)
	return &rec, nil
}

// CreateRecommendationIfUnread сохраняет рекомендацию, если у пользователя
// ещё нет непрочитанной рекомендации с тем же заголовком. Возвращает признак
// того, что запись была создана.
func (r *PostgresRepository) CreateRecommendationIfUnread(ctx context.Context, rec *model.Recommendation) (bool, error) {
	cmdTag, err := r.pool.Exec(ctx,
		`INSERT INTO recommendations (user_id, type, title, message, potential_savings, priority)
		 SELECT $1, $2, $3, $4, $5, $6
		 WHERE NOT EXISTS (
		     SELECT 1 FROM recommendations
		     WHERE user_id = $1 AND title = $3 AND NOT is_read
		 )`,
		rec.UserID, string(rec.Type), rec.Title, rec.Message,
		billing.PesosToCents(rec.PotentialSavings), string(rec.Priority),
	)
	if err != nil {
		return false, fmt.Errorf("insert recommendation: %w", err)
	}

	return cmdTag.RowsAffected() == 1, nil
}

// ListRecommendations возвращает сохранённые рекомендации пользователя, сначала новые.
func (r *PostgresRepository) ListRecommendations(ctx context.Context, userID int64, limit int) ([]model.Recommendation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+recommendationColumns+`
		 FROM recommendations
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select recommendations: %w", err)
	}
	defer rows.Close()

	var res []model.Recommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		res = append(res, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// MarkRecommendationRead помечает рекомендацию пользователя прочитанной.
func (r *PostgresRepository) MarkRecommendationRead(ctx context.Context, userID, recommendationID int64) (*model.Recommendation, error) {
	rec, err := scanRecommendation(r.pool.QueryRow(ctx,
		`UPDATE recommendations SET is_read = TRUE
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+recommendationColumns,
		recommendationID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecommendationNotFound
		}
		return nil, fmt.Errorf("mark recommendation read: %w", err)
	}
	return rec, nil
}

// Stats возвращает сводные показатели для панели администратора.
func (r *PostgresRepository) Stats(ctx context.Context) (*model.AdminStats, error) {
	stats := &model.AdminStats{}

	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active) FROM users`,
	).Scan(&stats.TotalUsers, &stats.ActiveUsers)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	var totalCostCents int64
	err = r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(kwh), 0), COALESCE(SUM(cost), 0), COALESCE(AVG(kwh), 0) FROM consumptions`,
	).Scan(&stats.Consumption.TotalKwh, &totalCostCents, &stats.Consumption.AvgKwh)
	if err != nil {
		return nil, fmt.Errorf("consumption stats: %w", err)
	}
	stats.Consumption.TotalCost = billing.CentsToPesos(totalCostCents)

	var revenueCents int64
	err = r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0), COUNT(*)
		 FROM transactions
		 WHERE type = $1 AND status = $2`,
		string(model.TransactionRecharge), string(model.TransactionCompleted),
	).Scan(&revenueCents, &stats.Revenue.Count)
	if err != nil {
		return nil, fmt.Errorf("revenue stats: %w", err)
	}
	stats.Revenue.TotalRevenue = billing.CentsToPesos(revenueCents)

	return stats, nil
}
