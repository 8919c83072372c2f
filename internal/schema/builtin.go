package schema

import (
	"git.home.luguber.info/inful/sitesync/internal/foundation"
	"git.home.luguber.info/inful/sitesync/internal/record"
)

// Names of the built-in content kinds.
const (
	KindTutorial       = "tutorial"
	KindWorkshop       = "workshop"
	KindSuccessStory   = "success-story"
	KindJobPosting     = "job-posting"
	KindPackageEntry   = "package-entry"
	KindChangelogEntry = "changelog-entry"
)

// Names of the built-in enum sets.
const (
	EnumDifficulty     = "difficulty"
	EnumEmploymentType = "employment-type"
)

const urlPattern = `^https?://`

// DefaultRegistry builds the registry of built-in content kinds. The
// registration order here is load-bearing: it fixes the collection order in
// the CMS config and the file order of emitted site data.
func DefaultRegistry() (*Registry, error) {
	r := NewRegistry()

	if err := r.DefineEnum(EnumDifficulty, "beginner", "intermediate", "advanced"); err != nil {
		return nil, err
	}
	if err := r.DefineEnum(EnumEmploymentType, "full-time", "part-time", "contract", "internship"); err != nil {
		return nil, err
	}

	if _, err := r.Define(KindTutorial, []FieldDef{
		{Name: "title", Type: TypeString, Required: true, Rule: Rule{MinLen: 1, MaxLen: 120}},
		{Name: "date", Type: TypeDate, Required: true},
		{Name: "tags", Type: TypeStringList, Required: true, Rule: Rule{MinLen: 1}},
		{Name: "description", Type: TypeString, Rule: Rule{MaxLen: 240}},
		{Name: "author", Type: TypeString},
		{Name: "difficulty", Type: TypeEnum, Rule: Rule{Enum: EnumDifficulty}},
		{Name: "related", Type: TypeReference, TargetKind: KindTutorial},
	}); err != nil {
		return nil, err
	}

	if _, err := r.Define(KindWorkshop, []FieldDef{
		{Name: "title", Type: TypeString, Required: true, Rule: Rule{MinLen: 1, MaxLen: 120}},
		{Name: "date", Type: TypeDate, Required: true},
		{Name: "location", Type: TypeString, Default: foundation.Some(record.String("online")), EmitDefault: true},
		{Name: "tags", Type: TypeStringList, Required: true, Rule: Rule{MinLen: 1}},
		{Name: "registration_url", Type: TypeString, Rule: Rule{Pattern: urlPattern, RequiredIfPresent: true}},
		{Name: "capacity", Type: TypeNumber},
	}); err != nil {
		return nil, err
	}

	if _, err := r.Define(KindSuccessStory, []FieldDef{
		{Name: "title", Type: TypeString, Required: true, Rule: Rule{MinLen: 1, MaxLen: 120}},
		{Name: "company", Type: TypeString, Required: true},
		{Name: "date", Type: TypeDate, Required: true},
		{Name: "quote", Type: TypeString, Rule: Rule{MaxLen: 500}},
		{Name: "website", Type: TypeString, Rule: Rule{Pattern: urlPattern}},
		{Name: "tags", Type: TypeStringList},
	}); err != nil {
		return nil, err
	}

	if _, err := r.Define(KindJobPosting, []FieldDef{
		{Name: "title", Type: TypeString, Required: true, Rule: Rule{MinLen: 1, MaxLen: 120}},
		{Name: "company", Type: TypeString, Required: true},
		{Name: "location", Type: TypeString, Default: foundation.Some(record.String("remote")), EmitDefault: true},
		{Name: "employment_type", Type: TypeEnum, Rule: Rule{Enum: EnumEmploymentType}},
		{Name: "posted", Type: TypeDate, Required: true},
		{Name: "apply_url", Type: TypeString, Rule: Rule{Pattern: urlPattern, RequiredIfPresent: true}},
		{Name: "tags", Type: TypeStringList},
	}); err != nil {
		return nil, err
	}

	if _, err := r.Define(KindPackageEntry, []FieldDef{
		{Name: "title", Type: TypeString, Required: true, Rule: Rule{MinLen: 1}},
		{Name: "version", Type: TypeString, Required: true, Rule: Rule{Pattern: `^v?\d+\.\d+\.\d+`}},
		{Name: "description", Type: TypeString, Rule: Rule{MaxLen: 240}},
		{Name: "homepage", Type: TypeString, Rule: Rule{Pattern: urlPattern}},
		{Name: "license", Type: TypeString},
		{Name: "downloads", Type: TypeNumber},
		{Name: "tags", Type: TypeStringList},
	}); err != nil {
		return nil, err
	}

	if _, err := r.Define(KindChangelogEntry, []FieldDef{
		{Name: "title", Type: TypeString, Required: true, Rule: Rule{MinLen: 1}},
		{Name: "date", Type: TypeDate, Required: true},
		{Name: "link", Type: TypeString, Required: true, Rule: Rule{Pattern: urlPattern}},
		{Name: "summary", Type: TypeString},
		{Name: "tags", Type: TypeStringList},
	}); err != nil {
		return nil, err
	}

	return r, nil
}
