package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/fieldbook/internal/model"
)

type FieldRepository struct {
	store *Store
}

// Save добавляет поле (ID == 0) или перезаписывает существующее
func (r *FieldRepository) Save(_ context.Context, field *model.Field) error {
	if strings.TrimSpace(field.Name) == "" {
		return fmt.Errorf("%w: field name is required", model.ErrInvalidInput)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if field.ID == 0 {
		r.store.nextFieldID++
		field.ID = r.store.nextFieldID
	} else if field.ID > r.store.nextFieldID {
		r.store.nextFieldID = field.ID
	}

	c := *field
	r.store.fields[field.ID] = &c
	return nil
}

func (r *FieldRepository) FindByID(_ context.Context, id int64) (*model.Field, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	field, ok := r.store.fields[id]
	if !ok {
		return nil, nil
	}
	c := *field
	return &c, nil
}

// FindByManager поля менеджера по возрастанию ID
func (r *FieldRepository) FindByManager(_ context.Context, manager string) ([]*model.Field, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []*model.Field
	for id := int64(1); id <= r.store.nextFieldID; id++ {
		field, ok := r.store.fields[id]
		if !ok || field.ManagerID != manager {
			continue
		}
		c := *field
		result = append(result, &c)
	}
	return result, nil
}
