package schema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitesync/internal/foundation"
	"git.home.luguber.info/inful/sitesync/internal/record"
)

func TestDefine_TwoKinds_PreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry()

	_, err := r.Define("beta", []FieldDef{{Name: "title", Type: TypeString}})
	require.NoError(t, err)
	_, err = r.Define("alpha", []FieldDef{{Name: "title", Type: TypeString}})
	require.NoError(t, err)

	kinds := r.Kinds()
	require.Len(t, kinds, 2)
	require.Equal(t, "beta", kinds[0].Name())
	require.Equal(t, "alpha", kinds[1].Name())
}

func TestDefine_DuplicateKindName_ReturnsErrDuplicateKind(t *testing.T) {
	r := NewRegistry()

	_, err := r.Define("tutorial", []FieldDef{{Name: "title", Type: TypeString}})
	require.NoError(t, err)

	_, err = r.Define("tutorial", []FieldDef{{Name: "title", Type: TypeString}})
	require.ErrorIs(t, err, ErrDuplicateKind)
}

func TestDefine_ReservedFieldName_ReturnsErrInvalidFieldDef(t *testing.T) {
	r := NewRegistry()

	for _, reserved := range []string{"slug", "_source"} {
		_, err := r.Define("k-"+reserved, []FieldDef{{Name: reserved, Type: TypeString}})
		require.ErrorIs(t, err, ErrInvalidFieldDef, "field name %q must be rejected", reserved)
	}
}

func TestDefine_UndefinedEnumReference_ReturnsErrInvalidFieldDef(t *testing.T) {
	r := NewRegistry()

	_, err := r.Define("tutorial", []FieldDef{
		{Name: "difficulty", Type: TypeEnum, Rule: Rule{Enum: "no-such-enum"}},
	})
	require.ErrorIs(t, err, ErrInvalidFieldDef)
}

func TestDefine_DuplicateFieldName_ReturnsErrInvalidFieldDef(t *testing.T) {
	r := NewRegistry()

	_, err := r.Define("tutorial", []FieldDef{
		{Name: "title", Type: TypeString},
		{Name: "title", Type: TypeString},
	})
	require.ErrorIs(t, err, ErrInvalidFieldDef)
}

func TestDefine_InvalidPattern_ReturnsErrInvalidFieldDef(t *testing.T) {
	r := NewRegistry()

	_, err := r.Define("tutorial", []FieldDef{
		{Name: "title", Type: TypeString, Rule: Rule{Pattern: "("}},
	})
	require.ErrorIs(t, err, ErrInvalidFieldDef)
}

func TestDefine_ReferenceWithoutTargetKind_ReturnsErrInvalidFieldDef(t *testing.T) {
	r := NewRegistry()

	_, err := r.Define("tutorial", []FieldDef{
		{Name: "related", Type: TypeReference},
	})
	require.ErrorIs(t, err, ErrInvalidFieldDef)
}

func TestDefine_DefaultTypeMismatch_ReturnsErrInvalidFieldDef(t *testing.T) {
	r := NewRegistry()

	_, err := r.Define("tutorial", []FieldDef{
		{Name: "capacity", Type: TypeNumber, Default: foundation.Some(record.String("ten"))},
	})
	require.ErrorIs(t, err, ErrInvalidFieldDef)
}

func TestDefine_PatternRule_CompilesPattern(t *testing.T) {
	r := NewRegistry()

	kind, err := r.Define("tutorial", []FieldDef{
		{Name: "link", Type: TypeString, Rule: Rule{Pattern: `^https?://`}},
	})
	require.NoError(t, err)

	def, ok := kind.Field("link")
	require.True(t, ok)
	require.NotNil(t, def.Pattern())
	require.True(t, def.Pattern().MatchString("https://example.com"))
	require.False(t, def.Pattern().MatchString("ftp://example.com"))
}

func TestLookup_UnknownKind_ReturnsErrUnknownKind(t *testing.T) {
	r := NewRegistry()

	_, err := r.Lookup("missing")
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestDefineEnum_DuplicateName_ReturnsErrDuplicateEnum(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.DefineEnum("difficulty", "easy", "hard"))
	require.ErrorIs(t, r.DefineEnum("difficulty", "easy"), ErrDuplicateEnum)
}

func TestKind_FieldNames_MatchDeclarationOrder(t *testing.T) {
	r := NewRegistry()

	kind, err := r.Define("tutorial", []FieldDef{
		{Name: "title", Type: TypeString},
		{Name: "date", Type: TypeDate},
		{Name: "tags", Type: TypeStringList},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"title", "date", "tags"}, kind.FieldNames())
}
