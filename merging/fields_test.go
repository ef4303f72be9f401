package merging

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openelects/candidatesbackend/models"
)

// TestEveryScalarFieldHasAPolicy sets a sentinel through every declared field
// policy and then checks that no string field of Person was left untouched.
// A field added to the model without a policy entry fails here.
func TestEveryScalarFieldHasAPolicy(t *testing.T) {
	probe := &models.Person{}
	for i, field := range personFields {
		field.set(probe, fmt.Sprintf("sentinel-%d", i))
	}

	value := reflect.ValueOf(probe).Elem()
	personType := value.Type()
	for i := 0; i < personType.NumField(); i++ {
		structField := personType.Field(i)
		if structField.Type.Kind() != reflect.String {
			continue
		}
		if structField.Name == "Versions" {
			// the history column is owned by the versions package, not the
			// field merge
			continue
		}
		assert.NotEmpty(t, value.Field(i).String(),
			"Person.%s has no merge policy declared", structField.Name)
	}
}

func TestFieldGettersMatchSetters(t *testing.T) {
	for i, field := range personFields {
		probe := &models.Person{}
		want := fmt.Sprintf("value-%d", i)
		field.set(probe, want)
		assert.Equal(t, want, field.get(probe), "field %s", field.name)
	}
}

func TestNameIsSticky(t *testing.T) {
	require.Equal(t, "name", personFields[0].name)
	assert.Equal(t, StickyName, personFields[0].policy)
	for _, field := range personFields[1:] {
		assert.Equal(t, SourceWins, field.policy, "field %s", field.name)
	}
}
