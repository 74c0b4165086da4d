package admin

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("a record with this value already exists")
)

// Model is any record type the admin surface can manage.
type Model interface {
	PrimaryKey() uint
}

// Store persists records of one type for a ModelView.
type Store[T Model] interface {
	List() ([]T, error)
	Get(id uint) (*T, error)
	Create(rec *T) error
	Update(rec *T) error
	Delete(id uint) error
	// Exists reports whether another record already has value in column.
	Exists(column string, value any, excludeID uint) (bool, error)
}

// GormStore is a Store over a gorm model.
type GormStore[T Model] struct {
	db *gorm.DB

	// Preload names associations loaded with every record.
	Preload []string
	// Order is the list ordering, "id" when empty.
	Order string
	// Replace names many-to-many associations rewritten from the record
	// on update.
	Replace []string
	// DeleteWith names associations whose join rows go with the record.
	DeleteWith []string
}

func NewGormStore[T Model](db *gorm.DB) *GormStore[T] {
	return &GormStore[T]{db: db}
}

func (s *GormStore[T]) List() ([]T, error) {
	order := s.Order
	if order == "" {
		order = "id"
	}
	var recs []T
	if err := s.preload(s.db).Order(order).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return recs, nil
}

func (s *GormStore[T]) Get(id uint) (*T, error) {
	var rec T
	if err := s.preload(s.db).First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load record %d: %w", id, err)
	}
	return &rec, nil
}

func (s *GormStore[T]) Create(rec *T) error {
	if err := s.db.Create(rec).Error; err != nil {
		return translateError(err)
	}
	return nil
}

func (s *GormStore[T]) Update(rec *T) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(rec).Error; err != nil {
			return translateError(err)
		}
		for _, name := range s.Replace {
			if err := replaceAssociation(tx, rec, name); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *GormStore[T]) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var rec T
		if err := tx.First(&rec, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load record %d: %w", id, err)
		}
		q := tx
		if len(s.DeleteWith) > 0 {
			q = tx.Select(s.DeleteWith)
		}
		if err := q.Delete(&rec).Error; err != nil {
			return fmt.Errorf("failed to delete record %d: %w", id, err)
		}
		return nil
	})
}

func (s *GormStore[T]) Exists(column string, value any, excludeID uint) (bool, error) {
	q := s.db.Model(new(T)).Where(clause.Eq{Column: clause.Column{Name: column}, Value: value})
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check %s: %w", column, err)
	}
	return count > 0, nil
}

func (s *GormStore[T]) preload(db *gorm.DB) *gorm.DB {
	for _, name := range s.Preload {
		db = db.Preload(name)
	}
	return db
}

func replaceAssociation(tx *gorm.DB, rec any, name string) error {
	field := reflect.ValueOf(rec).Elem().FieldByName(name)
	if !field.IsValid() || field.Kind() != reflect.Slice {
		return fmt.Errorf("association %q is not a slice field", name)
	}
	assoc := tx.Model(rec).Association(name)
	var err error
	if field.Len() == 0 {
		err = assoc.Clear()
	} else {
		err = assoc.Replace(field.Interface())
	}
	if err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

func translateError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key") {
		return ErrDuplicate
	}
	return fmt.Errorf("failed to save record: %w", err)
}
