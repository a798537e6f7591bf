package builder

import "github.com/prismeai/prisme-cli/internal/model"

func text(en, fr string) model.LocalizedText {
	return model.LocalizedText{Translations: map[string]string{"en": en, "fr": fr}}
}

func prop(typ string, title model.LocalizedText) map[string]any {
	return map[string]any{"type": typ, "title": title.Value()}
}

var builtInBlocks = []model.BlockInCatalog{
	{
		Slug: "RichText", Name: text("Rich text", "Texte riche"),
		Description: text("Formatted text", "Texte mis en forme"),
		Schema: map[string]any{"type": "object", "properties": map[string]any{
			"content": prop("localized:textarea", text("Content", "Contenu")),
		}},
	},
	{
		Slug: "Form", Name: text("Form", "Formulaire"),
		Description: text("A form emitting an event on submit", "Un formulaire qui émet un évènement"),
		Schema: map[string]any{"type": "object", "properties": map[string]any{
			"title":    prop("localized:string", text("Title", "Titre")),
			"onSubmit": map[string]any{"type": "string", "title": text("Event on submit", "Évènement à la soumission").Value()},
		}},
	},
	{
		Slug: "Cards", Name: text("Cards", "Cartes"),
		Schema: map[string]any{"type": "object", "properties": map[string]any{
			"title":   prop("localized:string", text("Title", "Titre")),
			"variant": map[string]any{"type": "string", "enum": []any{"classic", "short", "article", "square", "actions"}},
			"cards":   map[string]any{"type": "array", "items": map[string]any{"type": "object"}},
		}},
	},
	{Slug: "DataTable", Name: text("Data table", "Tableau de données")},
	{
		Slug: "Buttons", Name: text("Buttons", "Boutons"),
		Schema: map[string]any{"type": "object", "properties": map[string]any{
			"buttons": map[string]any{"type": "array", "items": map[string]any{
				"type": "object", "properties": map[string]any{
					"text":  prop("localized:string", text("Text", "Texte")),
					"value": map[string]any{"type": "string"},
					"type":  map[string]any{"type": "string", "enum": []any{"event", "url"}},
				},
			}},
		}},
	},
	{
		Slug: "Header", Name: text("Header", "En-tête"),
		Schema: map[string]any{"type": "object", "properties": map[string]any{
			"title": prop("localized:string", text("Title", "Titre")),
			"logo":  map[string]any{"type": "string", "ui:widget": "input"},
		}},
	},
	{Slug: "BlocksList", Name: text("Blocks list", "Liste de blocs")},
	{
		Slug: "Action", Name: text("Action", "Action"),
		Schema: map[string]any{"type": "object", "properties": map[string]any{
			"text":  prop("localized:string", text("Text", "Texte")),
			"type":  map[string]any{"type": "string", "enum": []any{"external", "internal", "inside", "event"}},
			"value": map[string]any{"type": "string"},
		}},
	},
	{
		Slug: "Image", Name: text("Image", "Image"),
		Schema: map[string]any{"type": "object", "properties": map[string]any{
			"src":     map[string]any{"type": "string"},
			"alt":     prop("localized:string", text("Alternative text", "Texte alternatif")),
			"caption": prop("localized:string", text("Caption", "Légende")),
		}},
	},
	{Slug: "Carousel", Name: text("Carousel", "Carrousel")},
	{
		Slug: "Hero", Name: text("Hero", "Bannière"),
		Schema: map[string]any{"type": "object", "properties": map[string]any{
			"title": prop("localized:string", text("Title", "Titre")),
			"lead":  prop("localized:textarea", text("Lead", "Accroche")),
			"img":   map[string]any{"type": "string"},
		}},
	},
	{Slug: "Tabs", Name: text("Tabs", "Onglets")},
	{Slug: "Footer", Name: text("Footer", "Pied de page")},
	{Slug: "Breadcrumbs", Name: text("Breadcrumbs", "Fil d'Ariane")},
	{Slug: "Signin", Name: text("Sign in", "Connexion")},
}

var builtInVariants = []model.BlockInCatalog{
	variant("cards:classic", "Cards", text("Classic cards", "Cartes classiques"), map[string]any{"variant": "classic"}),
	variant("cards:short", "Cards", text("Short cards", "Cartes courtes"), map[string]any{"variant": "short"}),
	variant("cards:article", "Cards", text("Article cards", "Cartes article"), map[string]any{"variant": "article"}),
	variant("cards:square", "Cards", text("Square cards", "Cartes carrées"), map[string]any{"variant": "square"}),
	variant("cards:actions", "Cards", text("Action cards", "Cartes d'actions"), map[string]any{"variant": "actions"}),
	variant("buttons:event", "Buttons", text("Event buttons", "Boutons d'évènement"), map[string]any{
		"buttons": []any{map[string]any{"text": "Button", "type": "event", "value": "clicked"}},
	}),
	variant("buttons:link", "Buttons", text("Link buttons", "Boutons de lien"), map[string]any{
		"buttons": []any{map[string]any{"text": "Link", "type": "url", "value": "https://"}},
	}),
	variant("header:logo", "Header", text("Header with logo", "En-tête avec logo"), map[string]any{"logo": ""}),
}

func variant(slug, parent string, name model.LocalizedText, config map[string]any) model.BlockInCatalog {
	return model.BlockInCatalog{Slug: slug, Parent: parent, Name: name, Config: config}
}

// BuiltIns returns the built-in blocks followed by their preset variants.
func BuiltIns() []model.BlockInCatalog {
	out := make([]model.BlockInCatalog, 0, len(builtInBlocks)+len(builtInVariants))
	for _, b := range builtInBlocks {
		b.BuiltIn = true
		b.From = model.FromBuiltIn
		out = append(out, b)
	}
	for _, v := range builtInVariants {
		v.BuiltIn = true
		v.From = model.FromBuiltIn
		out = append(out, v)
	}
	return out
}
