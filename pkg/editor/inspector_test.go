package editor_test

import (
	"testing"

	"github.com/arcsuite/arcflow/pkg/editor"
	"github.com/arcsuite/arcflow/pkg/mocks"
	"github.com/arcsuite/arcflow/pkg/models"
	"github.com/arcsuite/arcflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldKeys(form *editor.Form) []string {
	keys := make([]string, 0, len(form.Fields))
	for _, f := range form.Fields {
		keys = append(keys, f.Key)
	}

	return keys
}

func TestInspect_FieldLayouts(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		subtype models.Subtype
		labels  []string
		keys    []string
	}{
		{models.SubtypeSendEmail, []string{"Para", "Assunto", "Mensagem"}, []string{"to", "subject", "body"}},
		{models.SubtypeSendWhatsApp, []string{"Número", "Mensagem"}, []string{"phone", "message"}},
		{models.SubtypeSchedule, []string{"Frequência", "Horário"}, []string{"frequency", "time"}},
		{models.SubtypeNewRecord, []string{"DocType"}, []string{"docType"}},
		{models.SubtypeWait, []string{"Aguardar", "Unidade"}, []string{"amount", "unit"}},
		{models.SubtypeWebhook, []string{}, []string{}},
		{models.SubtypeIfElse, []string{}, []string{}},
	}

	for _, tc := range testCases {
		t.Run(string(tc.subtype), func(t *testing.T) {
			t.Parallel()

			node := testutil.CreateTestNode(testutil.WithSubtype(tc.subtype), testutil.WithName("Nó"))
			form := editor.Inspect(node)

			assert.Equal(t, "Configurar: Nó", form.Title)
			assert.Equal(t, node.ID, form.NodeID)
			assert.Equal(t, tc.keys, fieldKeys(form))

			labels := make([]string, 0, len(form.Fields))
			for _, f := range form.Fields {
				labels = append(labels, f.Label)
			}

			assert.Equal(t, tc.labels, labels)
		})
	}
}

func TestInspect_SelectChoices(t *testing.T) {
	t.Parallel()

	form := editor.Inspect(testutil.CreateTestNode(testutil.WithSubtype(models.SubtypeSchedule)))
	require.Len(t, form.Fields, 2)

	frequency := form.Fields[0]
	assert.Equal(t, editor.FieldSelect, frequency.Kind)
	assert.Equal(t, []editor.Choice{
		{Value: "hourly", Label: "A cada hora"},
		{Value: "daily", Label: "Diariamente"},
		{Value: "weekly", Label: "Semanalmente"},
		{Value: "monthly", Label: "Mensalmente"},
	}, frequency.Choices)
	assert.Equal(t, editor.FieldTime, form.Fields[1].Kind)

	email := editor.Inspect(testutil.CreateTestNode())
	assert.Equal(t, "email@exemplo.com", email.Fields[0].Placeholder)
	assert.Equal(t, editor.FieldTextarea, email.Fields[2].Kind)
}

func TestInspect_PrefillsValues(t *testing.T) {
	t.Parallel()

	node := testutil.CreateTestNode(
		testutil.WithSubtype(models.SubtypeWait),
		testutil.WithConfig(&models.WaitConfig{Amount: 5, Unit: models.UnitHours}),
	)

	form := editor.Inspect(node)

	amount, ok := form.Value("amount")
	require.True(t, ok)
	assert.Equal(t, "5", amount)

	unit, _ := form.Value("unit")
	assert.Equal(t, "hours", unit)

	_, ok = form.Value("missing")
	assert.False(t, ok)
}

func TestForm_Set(t *testing.T) {
	t.Parallel()

	form := editor.Inspect(testutil.CreateTestNode(testutil.WithSubtype(models.SubtypeWait)))

	require.NoError(t, form.Set("amount", "10"))
	require.NoError(t, form.Set("unit", "days"))

	assert.ErrorIs(t, form.Set("unit", "weeks"), editor.ErrInvalidChoice)
	assert.ErrorIs(t, form.Set("amount", "ten"), editor.ErrInvalidNumber)
	assert.ErrorIs(t, form.Set("to", "x"), editor.ErrUnknownField)

	unit, _ := form.Value("unit")
	assert.Equal(t, "days", unit)
}

func TestApply_DoesNotWriteBack(t *testing.T) {
	t.Parallel()

	ed := editor.New(&mocks.MockGateway{}, nil)
	node, err := ed.AddNode(models.SubtypeSendEmail, models.Position{X: 1, Y: 2})
	require.NoError(t, err)

	require.NoError(t, ed.Select(node.ID))

	form, err := ed.Inspector()
	require.NoError(t, err)
	require.NoError(t, form.Set("to", "cliente@exemplo.com"))

	ed.Apply(form)

	_, selected := ed.Store().Selected()
	assert.False(t, selected)

	stored, ok := ed.Store().Get(node.ID)
	require.True(t, ok)
	assert.Empty(t, stored.Config.(*models.SendEmailConfig).To)

	_, err = ed.Inspector()
	assert.ErrorIs(t, err, editor.ErrNothingSelected)
}
