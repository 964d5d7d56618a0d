package signals

// Name identifies a domain change signal
type Name string

const (
	ContentSaved             Name = "ContentSaved"
	ContentDeleted           Name = "ContentDeleted"
	ContentMovedToRecycleBin Name = "ContentMovedToRecycleBin"

	ContentBlueprintSaved   Name = "ContentBlueprintSaved"
	ContentBlueprintDeleted Name = "ContentBlueprintDeleted"

	ContentTypeSaved   Name = "ContentTypeSaved"
	ContentTypeDeleted Name = "ContentTypeDeleted"

	MediaSaved             Name = "MediaSaved"
	MediaDeleted           Name = "MediaDeleted"
	MediaMovedToRecycleBin Name = "MediaMovedToRecycleBin"

	MediaTypeSaved   Name = "MediaTypeSaved"
	MediaTypeDeleted Name = "MediaTypeDeleted"

	MemberSaved   Name = "MemberSaved"
	MemberDeleted Name = "MemberDeleted"

	MemberTypeSaved   Name = "MemberTypeSaved"
	MemberTypeDeleted Name = "MemberTypeDeleted"

	MemberGroupSaved   Name = "MemberGroupSaved"
	MemberGroupDeleted Name = "MemberGroupDeleted"

	DataTypeSaved   Name = "DataTypeSaved"
	DataTypeDeleted Name = "DataTypeDeleted"

	DictionaryItemSaved   Name = "DictionaryItemSaved"
	DictionaryItemDeleted Name = "DictionaryItemDeleted"

	LanguageSaved   Name = "LanguageSaved"
	LanguageDeleted Name = "LanguageDeleted"

	ScriptSaved   Name = "ScriptSaved"
	ScriptDeleted Name = "ScriptDeleted"

	StylesheetSaved   Name = "StylesheetSaved"
	StylesheetDeleted Name = "StylesheetDeleted"

	TemplateSaved   Name = "TemplateSaved"
	TemplateDeleted Name = "TemplateDeleted"

	PartialViewSaved   Name = "PartialViewSaved"
	PartialViewDeleted Name = "PartialViewDeleted"

	RelationTypeSaved   Name = "RelationTypeSaved"
	RelationTypeDeleted Name = "RelationTypeDeleted"

	UserSaved   Name = "UserSaved"
	UserDeleted Name = "UserDeleted"

	UserGroupSaved   Name = "UserGroupSaved"
	UserGroupDeleted Name = "UserGroupDeleted"

	WebhookSaved   Name = "WebhookSaved"
	WebhookDeleted Name = "WebhookDeleted"

	PublicAccessEntrySaved   Name = "PublicAccessEntrySaved"
	PublicAccessEntryDeleted Name = "PublicAccessEntryDeleted"
)

var allNames = []Name{
	ContentSaved, ContentDeleted, ContentMovedToRecycleBin,
	ContentBlueprintSaved, ContentBlueprintDeleted,
	ContentTypeSaved, ContentTypeDeleted,
	MediaSaved, MediaDeleted, MediaMovedToRecycleBin,
	MediaTypeSaved, MediaTypeDeleted,
	MemberSaved, MemberDeleted,
	MemberTypeSaved, MemberTypeDeleted,
	MemberGroupSaved, MemberGroupDeleted,
	DataTypeSaved, DataTypeDeleted,
	DictionaryItemSaved, DictionaryItemDeleted,
	LanguageSaved, LanguageDeleted,
	ScriptSaved, ScriptDeleted,
	StylesheetSaved, StylesheetDeleted,
	TemplateSaved, TemplateDeleted,
	PartialViewSaved, PartialViewDeleted,
	RelationTypeSaved, RelationTypeDeleted,
	UserSaved, UserDeleted,
	UserGroupSaved, UserGroupDeleted,
	WebhookSaved, WebhookDeleted,
	PublicAccessEntrySaved, PublicAccessEntryDeleted,
}

var knownNames = func() map[Name]struct{} {
	m := make(map[Name]struct{}, len(allNames))
	for _, n := range allNames {
		m[n] = struct{}{}
	}
	return m
}()

// AllNames returns every signal name
func AllNames() []Name {
	out := make([]Name, len(allNames))
	copy(out, allNames)
	return out
}

// Valid reports whether n is a known signal
func (n Name) Valid() bool {
	_, ok := knownNames[n]
	return ok
}

func (n Name) String() string {
	return string(n)
}
