package editor

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/arcsuite/arcflow/pkg/models"
)

var (
	ErrUnknownField  = errors.New("unknown form field")
	ErrInvalidChoice = errors.New("value is not one of the field options")
	ErrInvalidNumber = errors.New("value is not a number")
)

// FieldKind selects the input control of a form field.
type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldTextarea FieldKind = "textarea"
	FieldSelect   FieldKind = "select"
	FieldTime     FieldKind = "time"
	FieldNumber   FieldKind = "number"
)

// Choice is one selectable value of a select field.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Field is one input of the inspector form.
type Field struct {
	Key         string    `json:"key"`
	Label       string    `json:"label"`
	Kind        FieldKind `json:"kind"`
	Placeholder string    `json:"placeholder,omitempty"`
	Choices     []Choice  `json:"options,omitempty"`
	Value       string    `json:"value"`
}

// Form is the inspector panel for one node.
type Form struct {
	NodeID string  `json:"nodeId"`
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
}

// Inspect builds the form for a node. The field layout depends only on the
// config variant; values are prefilled from the config.
func Inspect(node models.NodeInstance) *Form {
	form := &Form{
		NodeID: node.ID,
		Title:  "Configurar: " + node.Name,
		Fields: []Field{},
	}

	switch c := node.Config.(type) {
	case *models.SendEmailConfig:
		form.Fields = []Field{
			{Key: "to", Label: "Para", Kind: FieldText, Placeholder: "email@exemplo.com", Value: c.To},
			{Key: "subject", Label: "Assunto", Kind: FieldText, Placeholder: "Assunto do email", Value: c.Subject},
			{Key: "body", Label: "Mensagem", Kind: FieldTextarea, Placeholder: "Corpo do email", Value: c.Body},
		}
	case *models.SendWhatsAppConfig:
		form.Fields = []Field{
			{Key: "phone", Label: "Número", Kind: FieldText, Placeholder: "+55 11 99999-9999", Value: c.Phone},
			{Key: "message", Label: "Mensagem", Kind: FieldTextarea, Placeholder: "Mensagem do WhatsApp", Value: c.Message},
		}
	case *models.ScheduleConfig:
		form.Fields = []Field{
			{
				Key: "frequency", Label: "Frequência", Kind: FieldSelect, Placeholder: "Selecione",
				Choices: []Choice{
					{Value: string(models.FrequencyHourly), Label: "A cada hora"},
					{Value: string(models.FrequencyDaily), Label: "Diariamente"},
					{Value: string(models.FrequencyWeekly), Label: "Semanalmente"},
					{Value: string(models.FrequencyMonthly), Label: "Mensalmente"},
				},
				Value: string(c.Frequency),
			},
			{Key: "time", Label: "Horário", Kind: FieldTime, Value: c.Time},
		}
	case *models.NewRecordConfig:
		form.Fields = []Field{
			{
				Key: "docType", Label: "DocType", Kind: FieldSelect, Placeholder: "Selecione",
				Choices: []Choice{
					{Value: models.DocTypeCustomers, Label: "Clientes"},
					{Value: models.DocTypeProducts, Label: "Produtos"},
					{Value: models.DocTypeOrders, Label: "Pedidos"},
				},
				Value: c.DocType,
			},
		}
	case *models.WaitConfig:
		amount := ""
		if c.Amount != 0 {
			amount = strconv.Itoa(c.Amount)
		}

		form.Fields = []Field{
			{Key: "amount", Label: "Aguardar", Kind: FieldNumber, Placeholder: "5", Value: amount},
			{
				Key: "unit", Label: "Unidade", Kind: FieldSelect, Placeholder: "Unidade",
				Choices: []Choice{
					{Value: string(models.UnitMinutes), Label: "Minutos"},
					{Value: string(models.UnitHours), Label: "Horas"},
					{Value: string(models.UnitDays), Label: "Dias"},
				},
				Value: string(c.Unit),
			},
		}
	case *models.BasicConfig, nil:
	}

	return form
}

// Set edits a field value. Select fields only accept one of their options
// and number fields only accept integers.
func (f *Form) Set(key, value string) error {
	i := slices.IndexFunc(f.Fields, func(field Field) bool { return field.Key == key })
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownField, key)
	}

	field := &f.Fields[i]

	switch field.Kind {
	case FieldSelect:
		if !slices.ContainsFunc(field.Choices, func(o Choice) bool { return o.Value == value }) {
			return fmt.Errorf("%w: %s=%q", ErrInvalidChoice, key, value)
		}
	case FieldNumber:
		if value != "" {
			if _, err := strconv.Atoi(value); err != nil {
				return fmt.Errorf("%w: %s=%q", ErrInvalidNumber, key, value)
			}
		}
	case FieldText, FieldTextarea, FieldTime:
	}

	field.Value = value

	return nil
}

// Value returns the current value of a field.
func (f *Form) Value(key string) (string, bool) {
	for _, field := range f.Fields {
		if field.Key == key {
			return field.Value, true
		}
	}

	return "", false
}
