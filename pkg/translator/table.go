package translator

import (
	"github.com/platinummonkey/herald/pkg/events"
	"github.com/platinummonkey/herald/pkg/signals"
)

// Kind is what happened to the entities of a signal
type Kind int

const (
	Saved Kind = iota
	Deleted
	Trashed
)

func (k Kind) String() string {
	switch k {
	case Saved:
		return "saved"
	case Deleted:
		return "deleted"
	case Trashed:
		return "trashed"
	default:
		return "unknown"
	}
}

// Target is the category and kind a signal translates to
type Target struct {
	Category events.Category
	Kind     Kind
}

var table = map[signals.Name]Target{
	signals.ContentSaved:             {events.CategoryDocument, Saved},
	signals.ContentDeleted:           {events.CategoryDocument, Deleted},
	signals.ContentMovedToRecycleBin: {events.CategoryDocument, Trashed},

	signals.ContentBlueprintSaved:   {events.CategoryDocumentBlueprint, Saved},
	signals.ContentBlueprintDeleted: {events.CategoryDocumentBlueprint, Deleted},

	signals.ContentTypeSaved:   {events.CategoryDocumentType, Saved},
	signals.ContentTypeDeleted: {events.CategoryDocumentType, Deleted},

	signals.MediaSaved:             {events.CategoryMedia, Saved},
	signals.MediaDeleted:           {events.CategoryMedia, Deleted},
	signals.MediaMovedToRecycleBin: {events.CategoryMedia, Trashed},

	signals.MediaTypeSaved:   {events.CategoryMediaType, Saved},
	signals.MediaTypeDeleted: {events.CategoryMediaType, Deleted},

	signals.MemberSaved:   {events.CategoryMember, Saved},
	signals.MemberDeleted: {events.CategoryMember, Deleted},

	signals.MemberTypeSaved:   {events.CategoryMemberType, Saved},
	signals.MemberTypeDeleted: {events.CategoryMemberType, Deleted},

	signals.MemberGroupSaved:   {events.CategoryMemberGroup, Saved},
	signals.MemberGroupDeleted: {events.CategoryMemberGroup, Deleted},

	signals.DataTypeSaved:   {events.CategoryDataType, Saved},
	signals.DataTypeDeleted: {events.CategoryDataType, Deleted},

	signals.DictionaryItemSaved:   {events.CategoryDictionary, Saved},
	signals.DictionaryItemDeleted: {events.CategoryDictionary, Deleted},

	signals.LanguageSaved:   {events.CategoryLanguage, Saved},
	signals.LanguageDeleted: {events.CategoryLanguage, Deleted},

	signals.ScriptSaved:   {events.CategoryScript, Saved},
	signals.ScriptDeleted: {events.CategoryScript, Deleted},

	signals.StylesheetSaved:   {events.CategoryStylesheet, Saved},
	signals.StylesheetDeleted: {events.CategoryStylesheet, Deleted},

	signals.TemplateSaved:   {events.CategoryTemplate, Saved},
	signals.TemplateDeleted: {events.CategoryTemplate, Deleted},

	signals.PartialViewSaved:   {events.CategoryPartialView, Saved},
	signals.PartialViewDeleted: {events.CategoryPartialView, Deleted},

	signals.RelationTypeSaved:   {events.CategoryRelationType, Saved},
	signals.RelationTypeDeleted: {events.CategoryRelationType, Deleted},

	signals.UserSaved:   {events.CategoryUser, Saved},
	signals.UserDeleted: {events.CategoryUser, Deleted},

	signals.UserGroupSaved:   {events.CategoryUserGroup, Saved},
	signals.UserGroupDeleted: {events.CategoryUserGroup, Deleted},

	signals.WebhookSaved:   {events.CategoryWebhook, Saved},
	signals.WebhookDeleted: {events.CategoryWebhook, Deleted},

	signals.PublicAccessEntrySaved:   {events.CategoryPublicAccess, Saved},
	signals.PublicAccessEntryDeleted: {events.CategoryPublicAccess, Deleted},
}

// Lookup returns the target of a signal
func Lookup(name signals.Name) (Target, bool) {
	t, ok := table[name]
	return t, ok
}
