package repository

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"gorm.io/gorm/schema"
)

var relatedSchemaCache sync.Map

// CollectRelated previews the delete cascade for model by walking its GORM
// schema: every has-one, has-many and many-to-many relationship is counted
// against the live database. Relationships added to a model in the future
// are picked up automatically, so a merge that forgets to detach them is
// refused instead of silently dropping rows.
func (s *MergeStore) CollectRelated(model any) ([]string, error) {
	sch, err := schema.Parse(model, &relatedSchemaCache, s.DB.NamingStrategy)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema of %T: %w", model, err)
	}
	primaryField := sch.PrioritizedPrimaryField
	if primaryField == nil {
		return nil, fmt.Errorf("%T has no primary key to collect related objects for", model)
	}
	primaryValue, isZero := primaryField.ValueOf(context.Background(), reflect.ValueOf(model))
	if isZero {
		return nil, fmt.Errorf("can't collect related objects for unsaved %T", model)
	}

	var related []string
	for _, rel := range sch.Relationships.Relations {
		var table, fkColumn string
		switch rel.Type {
		case schema.HasOne, schema.HasMany:
			table = rel.FieldSchema.Table
			for _, ref := range rel.References {
				if ref.OwnPrimaryKey {
					fkColumn = ref.ForeignKey.DBName
				}
			}
		case schema.Many2Many:
			table = rel.JoinTable.Table
			for _, ref := range rel.References {
				if ref.OwnPrimaryKey {
					fkColumn = ref.ForeignKey.DBName
				}
			}
		default:
			// belongs-to references don't go down with this row
			continue
		}
		if table == "" || fkColumn == "" {
			continue
		}
		var count int64
		err := s.DB.Table(table).Where(fmt.Sprintf("%s = ?", fkColumn), primaryValue).Count(&count).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count %s rows related to %T: %w", table, model, err)
		}
		if count > 0 {
			related = append(related, fmt.Sprintf("%s (%d)", table, count))
		}
	}
	return related, nil
}
