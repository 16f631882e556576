package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"time"
)

// ErrConfigNotObject is returned when a node config is not a JSON object.
var ErrConfigNotObject = errors.New("node config must be a JSON object")

// NodeConfig is the configuration of a node. The concrete type is selected by
// the subtype: SendEmailConfig, SendWhatsAppConfig, ScheduleConfig,
// NewRecordConfig, WaitConfig, or BasicConfig for subtypes without fields.
//
// Keys that are not part of a variant are kept in its Extra map and written
// back unchanged, so a decoded node list encodes to the same JSON values.
type NodeConfig interface {
	Subtype() Subtype
	clone() NodeConfig
}

// ScheduleFrequency is how often a schedule trigger fires.
type ScheduleFrequency string

const (
	FrequencyHourly  ScheduleFrequency = "hourly"
	FrequencyDaily   ScheduleFrequency = "daily"
	FrequencyWeekly  ScheduleFrequency = "weekly"
	FrequencyMonthly ScheduleFrequency = "monthly"
)

// ScheduleFrequencies lists the selectable frequencies in display order.
func ScheduleFrequencies() []ScheduleFrequency {
	return []ScheduleFrequency{FrequencyHourly, FrequencyDaily, FrequencyWeekly, FrequencyMonthly}
}

// WaitUnit is the unit of a wait delay.
type WaitUnit string

const (
	UnitMinutes WaitUnit = "minutes"
	UnitHours   WaitUnit = "hours"
	UnitDays    WaitUnit = "days"
)

// WaitUnits lists the selectable wait units in display order.
func WaitUnits() []WaitUnit {
	return []WaitUnit{UnitMinutes, UnitHours, UnitDays}
}

// Document types a new_record trigger can watch.
const (
	DocTypeCustomers = "customers"
	DocTypeProducts  = "products"
	DocTypeOrders    = "orders"
)

// DocTypes lists the selectable document types in display order.
func DocTypes() []string {
	return []string{DocTypeCustomers, DocTypeProducts, DocTypeOrders}
}

// SendEmailConfig configures a send_email action.
type SendEmailConfig struct {
	To      string
	Subject string
	Body    string
	Extra   map[string]any
}

func (*SendEmailConfig) Subtype() Subtype { return SubtypeSendEmail }

func (c *SendEmailConfig) clone() NodeConfig {
	out := *c
	out.Extra = cloneExtra(c.Extra)

	return &out
}

func (c SendEmailConfig) MarshalJSON() ([]byte, error) {
	return marshalConfig(SubtypeSendEmail, c.Extra,
		str("to", c.To), str("subject", c.Subject), str("body", c.Body))
}

// SendWhatsAppConfig configures a send_whatsapp action.
type SendWhatsAppConfig struct {
	Phone   string
	Message string
	Extra   map[string]any
}

func (*SendWhatsAppConfig) Subtype() Subtype { return SubtypeSendWhatsApp }

func (c *SendWhatsAppConfig) clone() NodeConfig {
	out := *c
	out.Extra = cloneExtra(c.Extra)

	return &out
}

func (c SendWhatsAppConfig) MarshalJSON() ([]byte, error) {
	return marshalConfig(SubtypeSendWhatsApp, c.Extra, str("phone", c.Phone), str("message", c.Message))
}

// ScheduleConfig configures a schedule trigger. Time is "HH:MM".
type ScheduleConfig struct {
	Frequency ScheduleFrequency
	Time      string
	Extra     map[string]any
}

func (*ScheduleConfig) Subtype() Subtype { return SubtypeSchedule }

func (c *ScheduleConfig) clone() NodeConfig {
	out := *c
	out.Extra = cloneExtra(c.Extra)

	return &out
}

func (c ScheduleConfig) MarshalJSON() ([]byte, error) {
	return marshalConfig(SubtypeSchedule, c.Extra, str("frequency", string(c.Frequency)), str("time", c.Time))
}

// NewRecordConfig configures a new_record trigger.
type NewRecordConfig struct {
	DocType string
	Extra   map[string]any
}

func (*NewRecordConfig) Subtype() Subtype { return SubtypeNewRecord }

func (c *NewRecordConfig) clone() NodeConfig {
	out := *c
	out.Extra = cloneExtra(c.Extra)

	return &out
}

func (c NewRecordConfig) MarshalJSON() ([]byte, error) {
	return marshalConfig(SubtypeNewRecord, c.Extra, str("docType", c.DocType))
}

// WaitConfig configures a wait delay.
type WaitConfig struct {
	Amount int
	Unit   WaitUnit
	Extra  map[string]any
}

func (*WaitConfig) Subtype() Subtype { return SubtypeWait }

func (c *WaitConfig) clone() NodeConfig {
	out := *c
	out.Extra = cloneExtra(c.Extra)

	return &out
}

func (c WaitConfig) MarshalJSON() ([]byte, error) {
	return marshalConfig(SubtypeWait, c.Extra, num("amount", c.Amount), str("unit", string(c.Unit)))
}

// Duration converts the wait into a time.Duration.
func (c *WaitConfig) Duration() (time.Duration, error) {
	if c.Amount <= 0 {
		return 0, fmt.Errorf("wait amount must be positive, got %d", c.Amount)
	}

	var unit time.Duration

	switch c.Unit {
	case UnitMinutes:
		unit = time.Minute
	case UnitHours:
		unit = time.Hour
	case UnitDays:
		unit = 24 * time.Hour
	default:
		return 0, fmt.Errorf("unknown wait unit %q", c.Unit)
	}

	return time.Duration(c.Amount) * unit, nil
}

// BasicConfig is the configuration of subtypes without a field set.
type BasicConfig struct {
	Kind  Subtype
	Extra map[string]any
}

func (c *BasicConfig) Subtype() Subtype { return c.Kind }

func (c *BasicConfig) clone() NodeConfig {
	out := *c
	out.Extra = cloneExtra(c.Extra)

	return &out
}

func (c BasicConfig) MarshalJSON() ([]byte, error) {
	return marshalConfig(c.Kind, c.Extra)
}

// NewNodeConfig returns the config variant for subtype with only the subtype set.
func NewNodeConfig(subtype Subtype) NodeConfig {
	switch subtype {
	case SubtypeSendEmail:
		return &SendEmailConfig{}
	case SubtypeSendWhatsApp:
		return &SendWhatsAppConfig{}
	case SubtypeSchedule:
		return &ScheduleConfig{}
	case SubtypeNewRecord:
		return &NewRecordConfig{}
	case SubtypeWait:
		return &WaitConfig{}
	default:
		return &BasicConfig{Kind: subtype}
	}
}

// DecodeNodeConfig decodes a config object into its variant. A null or empty
// input yields a nil config.
func DecodeNodeConfig(data []byte) (NodeConfig, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil || raw == nil {
		return nil, ErrConfigNotObject
	}

	f := configFields(raw)
	subtype := Subtype(f.takeString("subtype"))

	switch subtype {
	case SubtypeSendEmail:
		c := &SendEmailConfig{To: f.takeString("to"), Subject: f.takeString("subject"), Body: f.takeString("body")}
		c.Extra = f.rest()

		return c, nil
	case SubtypeSendWhatsApp:
		c := &SendWhatsAppConfig{Phone: f.takeString("phone"), Message: f.takeString("message")}
		c.Extra = f.rest()

		return c, nil
	case SubtypeSchedule:
		c := &ScheduleConfig{Frequency: ScheduleFrequency(f.takeString("frequency")), Time: f.takeString("time")}
		c.Extra = f.rest()

		return c, nil
	case SubtypeNewRecord:
		c := &NewRecordConfig{DocType: f.takeString("docType")}
		c.Extra = f.rest()

		return c, nil
	case SubtypeWait:
		c := &WaitConfig{Amount: f.takeInt("amount"), Unit: WaitUnit(f.takeString("unit"))}
		c.Extra = f.rest()

		return c, nil
	default:
		return &BasicConfig{Kind: subtype, Extra: f.rest()}, nil
	}
}

// configFields consumes known keys from a decoded object. Values with an
// unexpected type or a zero value stay behind and end up in Extra.
type configFields map[string]any

func (f configFields) takeString(key string) string {
	s, ok := f[key].(string)
	if !ok || s == "" {
		return ""
	}

	delete(f, key)

	return s
}

func (f configFields) takeInt(key string) int {
	n, ok := f[key].(json.Number)
	if !ok {
		return 0
	}

	i, err := n.Int64()
	if err != nil || i == 0 {
		return 0
	}

	delete(f, key)

	return int(i)
}

func (f configFields) rest() map[string]any {
	if len(f) == 0 {
		return nil
	}

	return map[string]any(f)
}

type configField struct {
	key   string
	value any
	set   bool
}

func str(key, value string) configField {
	return configField{key: key, value: value, set: value != ""}
}

func num(key string, value int) configField {
	return configField{key: key, value: value, set: value != 0}
}

func marshalConfig(subtype Subtype, extra map[string]any, fields ...configField) ([]byte, error) {
	out := make(map[string]any, len(extra)+len(fields)+1)
	maps.Copy(out, extra)

	if subtype != "" {
		out["subtype"] = subtype
	}

	for _, field := range fields {
		if field.set {
			out[field.key] = field.value
		}
	}

	return json.Marshal(out)
}

func cloneExtra(extra map[string]any) map[string]any {
	if extra == nil {
		return nil
	}

	out := make(map[string]any, len(extra))
	for k, v := range extra {
		out[k] = cloneValue(v)
	}

	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneExtra(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}

		return out
	default:
		return v
	}
}
