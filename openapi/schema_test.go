package openapi

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/StrayDragon/flask-x-openapi-schema-sub001/i18n"
)

func TestGeneratePrimitives(t *testing.T) {
	g := NewSchemaGenerator()

	t.Run("bool", func(t *testing.T) {
		s := g.Generate(true)
		assert.Equal(t, "boolean", s.Type)
	})

	t.Run("int", func(t *testing.T) {
		s := g.Generate(0)
		assert.Equal(t, "integer", s.Type)
	})

	t.Run("uint", func(t *testing.T) {
		s := g.Generate(uint(0))
		assert.Equal(t, "integer", s.Type)
	})

	t.Run("float64", func(t *testing.T) {
		s := g.Generate(0.0)
		assert.Equal(t, "number", s.Type)
	})

	t.Run("string", func(t *testing.T) {
		s := g.Generate("")
		assert.Equal(t, "string", s.Type)
	})

	t.Run("nil", func(t *testing.T) {
		s := g.Generate(nil)
		assert.Nil(t, s)
	})
}

func TestGenerateSpecialTypes(t *testing.T) {
	g := NewSchemaGenerator()

	t.Run("time.Time", func(t *testing.T) {
		s := g.Generate(time.Time{})
		assert.Equal(t, "string", s.Type)
		assert.Equal(t, "date-time", s.Format)
	})

	t.Run("uuid.UUID", func(t *testing.T) {
		s := g.Generate(uuid.UUID{})
		assert.Equal(t, "string", s.Type)
		assert.Equal(t, "uuid", s.Format)
	})

	t.Run("[]byte", func(t *testing.T) {
		s := g.Generate([]byte{})
		assert.Equal(t, "string", s.Type)
		assert.Equal(t, "byte", s.Format)
	})

	t.Run("File", func(t *testing.T) {
		s := g.Generate(File{})
		assert.Equal(t, "string", s.Type)
		assert.Equal(t, "binary", s.Format)
		assert.Empty(t, g.Schemas())
	})

	t.Run("ImageFile", func(t *testing.T) {
		s := g.Generate(ImageFile{})
		assert.Equal(t, "string", s.Type)
		assert.Equal(t, "binary", s.Format)
	})
}

func TestGenerateSliceAndMap(t *testing.T) {
	g := NewSchemaGenerator()

	t.Run("[]string", func(t *testing.T) {
		s := g.Generate([]string{})
		assert.Equal(t, "array", s.Type)
		require.NotNil(t, s.Items)
		assert.Equal(t, "string", s.Items.Type)
	})

	t.Run("map[string]int", func(t *testing.T) {
		s := g.Generate(map[string]int{})
		assert.Equal(t, "object", s.Type)
		require.NotNil(t, s.AdditionalProperties)
		assert.Equal(t, "integer", s.AdditionalProperties.Type)
	})

	t.Run("map[int]string", func(t *testing.T) {
		s := g.Generate(map[int]string{})
		assert.Equal(t, "object", s.Type)
		assert.Nil(t, s.AdditionalProperties)
	})
}

type pet struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Tag  string `json:"tag,omitempty"`
}

func TestGenerateNamedStruct(t *testing.T) {
	g := NewSchemaGenerator()

	s := g.Generate(pet{})
	assert.Equal(t, "#/components/schemas/pet", s.Ref)

	comp, ok := g.Schemas()["pet"]
	require.True(t, ok)
	assert.Equal(t, "object", comp.Type)
	assert.Equal(t, "integer", comp.Properties["id"].Type)
	assert.Equal(t, "string", comp.Properties["name"].Type)
	assert.Equal(t, []string{"id", "name"}, comp.Required)
}

func TestGenerateNullable(t *testing.T) {
	g := NewSchemaGenerator()

	t.Run("pointer to string", func(t *testing.T) {
		var v *string
		s := g.Generate(v)
		assert.Equal(t, "string", s.Type)
		assert.True(t, s.Nullable)
	})

	t.Run("pointer to named struct wraps ref in allOf", func(t *testing.T) {
		var v *pet
		s := g.Generate(v)
		assert.Empty(t, s.Ref)
		assert.True(t, s.Nullable)
		require.Len(t, s.AllOf, 1)
		assert.Equal(t, "#/components/schemas/pet", s.AllOf[0].Ref)
	})

	t.Run("pointer field", func(t *testing.T) {
		type form struct {
			Note *string `json:"note"`
		}
		g.Generate(form{})
		comp := g.Schemas()["form"]
		require.NotNil(t, comp)
		assert.True(t, comp.Properties["note"].Nullable)
	})
}

func TestGenerateEmbeddedStruct(t *testing.T) {
	type base struct {
		CreatedAt time.Time `json:"created_at"`
	}
	type withBase struct {
		base
		Name string `json:"name"`
	}
	type withPtrBase struct {
		*base
		Name string `json:"name"`
	}

	t.Run("value embed inlines and keeps required", func(t *testing.T) {
		g := NewSchemaGenerator()
		g.Generate(withBase{})
		comp := g.Schemas()["withBase"]
		require.NotNil(t, comp)
		assert.Contains(t, comp.Properties, "created_at")
		assert.ElementsMatch(t, []string{"created_at", "name"}, comp.Required)
	})

	t.Run("pointer embed makes inlined fields optional", func(t *testing.T) {
		g := NewSchemaGenerator()
		g.Generate(withPtrBase{})
		comp := g.Schemas()["withPtrBase"]
		require.NotNil(t, comp)
		assert.Contains(t, comp.Properties, "created_at")
		assert.Equal(t, []string{"name"}, comp.Required)
	})
}

func TestApplyOpenAPITag(t *testing.T) {
	tests := []struct {
		name  string
		tag   string
		check func(t *testing.T, s *Schema)
	}{
		{
			name: "description",
			tag:  "description=A user name",
			check: func(t *testing.T, s *Schema) {
				assert.Equal(t, "A user name", s.Description)
			},
		},
		{
			name: "numeric bounds",
			tag:  "minimum=1,maximum=10",
			check: func(t *testing.T, s *Schema) {
				require.NotNil(t, s.Minimum)
				assert.Equal(t, 1.0, *s.Minimum)
				require.NotNil(t, s.Maximum)
				assert.Equal(t, 10.0, *s.Maximum)
				assert.False(t, s.ExclusiveMinimum)
				assert.False(t, s.ExclusiveMaximum)
			},
		},
		{
			name: "exclusive bounds set value and flag",
			tag:  "exclusiveMinimum=0,exclusiveMaximum=100",
			check: func(t *testing.T, s *Schema) {
				require.NotNil(t, s.Minimum)
				assert.Equal(t, 0.0, *s.Minimum)
				assert.True(t, s.ExclusiveMinimum)
				require.NotNil(t, s.Maximum)
				assert.Equal(t, 100.0, *s.Maximum)
				assert.True(t, s.ExclusiveMaximum)
			},
		},
		{
			name: "string constraints",
			tag:  "minLength=1,maxLength=64,pattern=^[a-z]+$",
			check: func(t *testing.T, s *Schema) {
				require.NotNil(t, s.MinLength)
				assert.Equal(t, 1, *s.MinLength)
				require.NotNil(t, s.MaxLength)
				assert.Equal(t, 64, *s.MaxLength)
				assert.Equal(t, "^[a-z]+$", s.Pattern)
			},
		},
		{
			name: "enum",
			tag:  "enum=admin|user|guest",
			check: func(t *testing.T, s *Schema) {
				assert.Equal(t, []any{"admin", "user", "guest"}, s.Enum)
			},
		},
		{
			name: "flags",
			tag:  "deprecated,readOnly,nullable",
			check: func(t *testing.T, s *Schema) {
				assert.True(t, s.Deprecated)
				assert.True(t, s.ReadOnly)
				assert.True(t, s.Nullable)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Schema{Type: "string"}
			applyOpenAPITag(s, tt.tag, language.English)
			tt.check(t, s)
		})
	}
}

func TestApplyOpenAPITagTypedValues(t *testing.T) {
	t.Run("integer example", func(t *testing.T) {
		s := &Schema{Type: "integer"}
		applyOpenAPITag(s, "example=42", language.English)
		assert.Equal(t, int64(42), s.Example)
	})

	t.Run("integer enum", func(t *testing.T) {
		s := &Schema{Type: "integer"}
		applyOpenAPITag(s, "enum=1|2|3", language.English)
		assert.Equal(t, []any{int64(1), int64(2), int64(3)}, s.Enum)
	})

	t.Run("boolean default", func(t *testing.T) {
		s := &Schema{Type: "boolean"}
		applyOpenAPITag(s, "default=true", language.English)
		assert.Equal(t, true, s.Default)
	})
}

func TestDescriptionKey(t *testing.T) {
	t.Cleanup(i18n.Reset)
	i18n.Register(language.English, map[string]string{"pet.name": "Pet name"})
	i18n.Register(language.SimplifiedChinese, map[string]string{"pet.name": "宠物名称"})

	type localizedPet struct {
		Name string `json:"name" openapi:"descriptionKey=pet.name"`
	}

	t.Run("english", func(t *testing.T) {
		g := NewSchemaGeneratorLang(language.English)
		g.Generate(localizedPet{})
		comp := g.Schemas()["localizedPet"]
		require.NotNil(t, comp)
		assert.Equal(t, "Pet name", comp.Properties["name"].Description)
	})

	t.Run("chinese", func(t *testing.T) {
		g := NewSchemaGeneratorLang(language.SimplifiedChinese)
		g.Generate(localizedPet{})
		comp := g.Schemas()["localizedPet"]
		require.NotNil(t, comp)
		assert.Equal(t, "宠物名称", comp.Properties["name"].Description)
	})
}

type role string

func (role) OpenAPIEnum() []any {
	return []any{"admin", "user", "guest"}
}

type account struct {
	Role string `json:"role"`
}

func (account) OpenAPIExample() any {
	return account{Role: "admin"}
}

type payment struct{}

func (payment) OpenAPIOneOf() []any {
	return []any{pet{}, account{}}
}

func TestTypeInterfaces(t *testing.T) {
	t.Run("Enumer on string type", func(t *testing.T) {
		g := NewSchemaGenerator()
		s := g.Generate(role(""))
		assert.Equal(t, "string", s.Type)
		assert.Equal(t, []any{"admin", "user", "guest"}, s.Enum)
	})

	t.Run("Exampler", func(t *testing.T) {
		g := NewSchemaGenerator()
		g.Generate(account{})
		comp := g.Schemas()["account"]
		require.NotNil(t, comp)
		assert.Equal(t, account{Role: "admin"}, comp.Example)
	})

	t.Run("OneOfer", func(t *testing.T) {
		g := NewSchemaGenerator()
		g.Generate(payment{})
		comp := g.Schemas()["payment"]
		require.NotNil(t, comp)
		require.Len(t, comp.OneOf, 2)
		assert.Equal(t, "#/components/schemas/pet", comp.OneOf[0].Ref)
	})
}

func TestJSONStringOption(t *testing.T) {
	type doc struct {
		Count int `json:"count,string"`
	}
	g := NewSchemaGenerator()
	g.Generate(doc{})
	comp := g.Schemas()["doc"]
	require.NotNil(t, comp)
	assert.Equal(t, "string", comp.Properties["count"].Type)
}

func TestSanitizeSchemaName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"User", "User"},
		{"ResponseData[main.User]", "ResponseDataUser"},
		{"ResponseData[[]main.User]", "ResponseDataUserList"},
		{"ResponseData[github.com/foo/bar.User]", "ResponseDataUser"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeSchemaName(tt.in))
		})
	}
}

func TestInlineGenerator(t *testing.T) {
	type node struct {
		Name string `json:"name"`
		Next *node  `json:"next,omitempty"`
	}

	g := newInlineGenerator(language.English)
	s := g.GenerateType(timeType)
	assert.Equal(t, "date-time", s.Format)

	s = g.Generate(node{})
	assert.Empty(t, s.Ref)
	assert.Equal(t, "object", s.Type)
	require.Contains(t, s.Properties, "next")

	// The recursive branch is truncated with an open object.
	next := s.Properties["next"]
	assert.True(t, next.Nullable)
	assert.Empty(t, next.Properties)
	assert.Empty(t, g.Schemas())
}
