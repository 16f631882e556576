package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNodeConfig_OnlySubtypeIsSet(t *testing.T) {
	t.Parallel()

	for subtype := range subtypeCategories {
		t.Run(string(subtype), func(t *testing.T) {
			t.Parallel()

			config := NewNodeConfig(subtype)
			require.NotNil(t, config)
			assert.Equal(t, subtype, config.Subtype())

			data, err := json.Marshal(config)
			require.NoError(t, err)
			assert.JSONEq(t, `{"subtype":"`+string(subtype)+`"}`, string(data))
		})
	}
}

func TestDecodeNodeConfig_Variants(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected NodeConfig
	}{
		{
			name:     "send email",
			input:    `{"subtype":"send_email","to":"a@b.c","subject":"Oi","body":"Olá"}`,
			expected: &SendEmailConfig{To: "a@b.c", Subject: "Oi", Body: "Olá"},
		},
		{
			name:     "send whatsapp",
			input:    `{"subtype":"send_whatsapp","phone":"+55 11 99999-9999","message":"oi"}`,
			expected: &SendWhatsAppConfig{Phone: "+55 11 99999-9999", Message: "oi"},
		},
		{
			name:     "schedule",
			input:    `{"subtype":"schedule","frequency":"daily","time":"08:30"}`,
			expected: &ScheduleConfig{Frequency: FrequencyDaily, Time: "08:30"},
		},
		{
			name:     "new record",
			input:    `{"subtype":"new_record","docType":"orders"}`,
			expected: &NewRecordConfig{DocType: DocTypeOrders},
		},
		{
			name:     "wait",
			input:    `{"subtype":"wait","amount":3,"unit":"days"}`,
			expected: &WaitConfig{Amount: 3, Unit: UnitDays},
		},
		{
			name:     "basic",
			input:    `{"subtype":"if_else"}`,
			expected: &BasicConfig{Kind: SubtypeIfElse},
		},
		{
			name:     "missing subtype",
			input:    `{"foo":"bar"}`,
			expected: &BasicConfig{Extra: map[string]any{"foo": "bar"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			config, err := DecodeNodeConfig([]byte(tc.input))
			require.NoError(t, err)
			assert.Equal(t, tc.expected, config)

			out, err := json.Marshal(config)
			require.NoError(t, err)
			assert.JSONEq(t, tc.input, string(out))
		})
	}
}

func TestDecodeNodeConfig_MistypedValuesArePreserved(t *testing.T) {
	t.Parallel()

	input := `{"subtype":"wait","amount":"five","unit":7,"to":""}`

	config, err := DecodeNodeConfig([]byte(input))
	require.NoError(t, err)

	wait, ok := config.(*WaitConfig)
	require.True(t, ok)
	assert.Zero(t, wait.Amount)
	assert.Empty(t, wait.Unit)
	assert.Len(t, wait.Extra, 3)

	out, err := json.Marshal(config)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(out))
}

func TestDecodeNodeConfig_Errors(t *testing.T) {
	t.Parallel()

	for _, input := range []string{`"x"`, `[1,2]`, `42`, `{`} {
		_, err := DecodeNodeConfig([]byte(input))
		assert.ErrorIs(t, err, ErrConfigNotObject, input)
	}

	config, err := DecodeNodeConfig([]byte(" null "))
	require.NoError(t, err)
	assert.Nil(t, config)
}

func TestWaitConfig_Duration(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		config   WaitConfig
		expected time.Duration
		wantErr  bool
	}{
		{WaitConfig{Amount: 5, Unit: UnitMinutes}, 5 * time.Minute, false},
		{WaitConfig{Amount: 2, Unit: UnitHours}, 2 * time.Hour, false},
		{WaitConfig{Amount: 1, Unit: UnitDays}, 24 * time.Hour, false},
		{WaitConfig{Amount: 0, Unit: UnitDays}, 0, true},
		{WaitConfig{Amount: 3, Unit: "weeks"}, 0, true},
	}

	for _, tc := range testCases {
		got, err := tc.config.Duration()
		if tc.wantErr {
			assert.Error(t, err)

			continue
		}

		require.NoError(t, err)
		assert.Equal(t, tc.expected, got)
	}
}

func TestOptionLists(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []ScheduleFrequency{"hourly", "daily", "weekly", "monthly"}, ScheduleFrequencies())
	assert.Equal(t, []WaitUnit{"minutes", "hours", "days"}, WaitUnits())
	assert.Equal(t, []string{"customers", "products", "orders"}, DocTypes())
}
