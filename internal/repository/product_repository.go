package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/lesson_market/internal/model"
	"github.com/Freeeeeet/lesson_market/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// ProductRepository читает каталог пакетов. Каталог ведёт внешняя админка,
// Create нужен для сидов и тестов.
type ProductRepository struct {
	base.Repository
	logger *zap.Logger
}

func NewProductRepository(db base.Querier, logger *zap.Logger) *ProductRepository {
	return &ProductRepository{
		Repository: base.NewRepository(db),
		logger:     logger,
	}
}

// WithTx возвращает копию репозитория, работающую внутри транзакции
func (r *ProductRepository) WithTx(tx pgx.Tx) *ProductRepository {
	return NewProductRepository(tx, r.logger)
}

// Create создаёт продукт вместе с составом
func (r *ProductRepository) Create(ctx context.Context, product *model.Product) error {
	query := `
		INSERT INTO products (name, duration_days, is_active)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.DB().QueryRow(ctx, query, product.Name, product.DurationDays, product.IsActive).
		Scan(&product.ID, &product.CreatedAt)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}

	batch := &pgx.Batch{}
	for _, lt := range model.LessonTypes() {
		qty := product.Lessons[lt]
		if qty == 0 {
			continue
		}
		batch.Queue(`INSERT INTO product_lessons (product_id, lesson_type, quantity) VALUES ($1, $2, $3)`,
			product.ID, lt, qty)
	}

	if err := r.DB().SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("create product lessons: %w", err)
	}

	r.logger.Info("Product created",
		zap.Int64("product_id", product.ID),
		zap.String("name", product.Name),
		zap.Int("lessons", product.LessonsCount()))

	return nil
}

// GetByID получает продукт с составом
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	query := `
		SELECT id, name, duration_days, is_active, created_at
		FROM products
		WHERE id = $1
	`

	var product model.Product
	err := r.DB().QueryRow(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&product.DurationDays,
		&product.IsActive,
		&product.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product by id: %w", err)
	}

	lessons, err := r.getLessons(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Lessons = lessons

	return &product, nil
}

func (r *ProductRepository) getLessons(ctx context.Context, productID int64) (map[model.LessonType]int, error) {
	query := `
		SELECT lesson_type, quantity
		FROM product_lessons
		WHERE product_id = $1
	`

	rows, err := r.DB().Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("get product lessons: %w", err)
	}
	defer rows.Close()

	lessons := make(map[model.LessonType]int)
	for rows.Next() {
		var (
			lt  model.LessonType
			qty int
		)
		if err := rows.Scan(&lt, &qty); err != nil {
			return nil, fmt.Errorf("scan product lesson: %w", err)
		}
		if !lt.IsValid() {
			r.logger.Warn("Unknown lesson type in product",
				zap.Int64("product_id", productID),
				zap.String("lesson_type", string(lt)))
			return nil, fmt.Errorf("product %d: unknown lesson type %q", productID, lt)
		}
		lessons[lt] = qty
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product lessons: %w", err)
	}

	return lessons, nil
}
