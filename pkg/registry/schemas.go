package registry

import "github.com/arcsuite/arcflow/pkg/models"

// Config schemas only constrain types. No field is required,
// since a freshly dropped node carries nothing but its subtype.

func stringProperty(description string) map[string]any {
	return map[string]any{
		"type":        "string",
		"description": description,
	}
}

// optionProperty lists the inspector options as examples. Values outside the
// list are accepted.
func optionProperty[T ~string](description string, values []T) map[string]any {
	examples := make([]string, len(values))
	for i, v := range values {
		examples[i] = string(v)
	}

	return map[string]any{
		"type":        "string",
		"description": description,
		"examples":    examples,
	}
}

func objectSchema(subtype models.Subtype, properties map[string]any) map[string]any {
	props := map[string]any{
		"subtype": map[string]any{
			"type":  "string",
			"const": string(subtype),
		},
	}

	for k, v := range properties {
		props[k] = v
	}

	return map[string]any{
		"$schema":    "http://json-schema.org/draft-07/schema#",
		"type":       "object",
		"properties": props,
	}
}

// SchemaFor returns the config schema of subtype. Subtypes without fields
// accept any object carrying the subtype.
func SchemaFor(subtype models.Subtype) map[string]any {
	switch subtype {
	case models.SubtypeSendEmail:
		return objectSchema(subtype, map[string]any{
			"to":      stringProperty("Recipient address"),
			"subject": stringProperty("Email subject"),
			"body":    stringProperty("Message body"),
		})
	case models.SubtypeSendWhatsApp:
		return objectSchema(subtype, map[string]any{
			"phone":   stringProperty("Destination phone number"),
			"message": stringProperty("Message text"),
		})
	case models.SubtypeSchedule:
		return objectSchema(subtype, map[string]any{
			"frequency": optionProperty("How often the trigger fires", models.ScheduleFrequencies()),
			"time":      stringProperty("Time of day, HH:MM"),
		})
	case models.SubtypeNewRecord:
		return objectSchema(subtype, map[string]any{
			"docType": optionProperty("Document type to watch", models.DocTypes()),
		})
	case models.SubtypeWait:
		return objectSchema(subtype, map[string]any{
			"amount": map[string]any{
				"type":        "integer",
				"description": "How many units to wait",
			},
			"unit": optionProperty("Unit of the amount", models.WaitUnits()),
		})
	default:
		return objectSchema(subtype, nil)
	}
}
