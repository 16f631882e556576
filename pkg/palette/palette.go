// Package palette holds the fixed catalog of node templates that can be dragged onto the canvas.
package palette

import (
	"slices"

	"github.com/arcsuite/arcflow/pkg/models"
)

// NodeTemplate describes a draggable palette entry. Icon names a lucide icon
// and Color is a Tailwind background class.
type NodeTemplate struct {
	Category models.NodeCategory `json:"type"`
	Subtype  models.Subtype      `json:"subtype"`
	Name     string              `json:"name"`
	Icon     string              `json:"icon"`
	Color    string              `json:"color"`
}

var (
	triggers = []NodeTemplate{
		{models.CategoryTrigger, models.SubtypeNewRecord, "Novo Registro", "Database", "bg-green-500"},
		{models.CategoryTrigger, models.SubtypeSchedule, "Agendamento", "Clock", "bg-blue-500"},
		{models.CategoryTrigger, models.SubtypeWebhook, "Webhook", "Zap", "bg-purple-500"},
		{models.CategoryTrigger, models.SubtypeFormSubmit, "Formulário Enviado", "FileText", "bg-orange-500"},
	}

	actions = []NodeTemplate{
		{models.CategoryAction, models.SubtypeSendEmail, "Enviar Email", "Mail", "bg-red-500"},
		{models.CategoryAction, models.SubtypeSendWhatsApp, "Enviar WhatsApp", "MessageSquare", "bg-green-600"},
		{models.CategoryAction, models.SubtypeCreateRecord, "Criar Registro", "Database", "bg-blue-600"},
		{models.CategoryAction, models.SubtypeUpdateRecord, "Atualizar Registro", "Database", "bg-indigo-500"},
		{models.CategoryAction, models.SubtypeNotify, "Notificar Usuário", "Bell", "bg-yellow-500"},
		{models.CategoryAction, models.SubtypeAssignUser, "Atribuir a Usuário", "Users", "bg-pink-500"},
	}

	conditions = []NodeTemplate{
		{models.CategoryCondition, models.SubtypeIfElse, "Se/Senão", "GitBranch", "bg-gray-500"},
	}

	delays = []NodeTemplate{
		{models.CategoryDelay, models.SubtypeWait, "Aguardar", "Clock", "bg-gray-400"},
	}
)

// Triggers returns the trigger templates.
func Triggers() []NodeTemplate { return slices.Clone(triggers) }

// Actions returns the action templates.
func Actions() []NodeTemplate { return slices.Clone(actions) }

// Conditions returns the condition templates.
func Conditions() []NodeTemplate { return slices.Clone(conditions) }

// Delays returns the delay templates.
func Delays() []NodeTemplate { return slices.Clone(delays) }

// All returns every template: triggers, actions, conditions, then delays.
func All() []NodeTemplate {
	return slices.Concat(triggers, actions, conditions, delays)
}

// Group is a titled section of the palette.
type Group struct {
	Title     string              `json:"title"`
	Category  models.NodeCategory `json:"type"`
	Templates []NodeTemplate      `json:"templates"`
}

// Groups returns the palette sections in display order.
func Groups() []Group {
	return []Group{
		{Title: "Gatilhos", Category: models.CategoryTrigger, Templates: Triggers()},
		{Title: "Ações", Category: models.CategoryAction, Templates: Actions()},
		{Title: "Condições", Category: models.CategoryCondition, Templates: Conditions()},
		{Title: "Atrasos", Category: models.CategoryDelay, Templates: Delays()},
	}
}

// Lookup finds the template for a subtype.
func Lookup(subtype models.Subtype) (NodeTemplate, bool) {
	for _, group := range [][]NodeTemplate{triggers, actions, conditions, delays} {
		for _, tpl := range group {
			if tpl.Subtype == subtype {
				return tpl, true
			}
		}
	}

	return NodeTemplate{}, false
}
