package tools

// Schema helpers for building JSON Schema definitions.

// ObjectSchema creates an object schema with the given properties.
func ObjectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func StringProperty(description string) map[string]any {
	return map[string]any{
		"type":        "string",
		"description": description,
	}
}

// StringEnumProperty creates a string property with allowed values.
func StringEnumProperty(description string, values ...string) map[string]any {
	return map[string]any{
		"type":        "string",
		"description": description,
		"enum":        values,
	}
}

func NumberProperty(description string) map[string]any {
	return map[string]any{
		"type":        "number",
		"description": description,
	}
}

// IntegerProperty creates an integer property, optionally bounded. Pass nil
// for an open bound.
func IntegerProperty(description string, minimum, maximum *int) map[string]any {
	p := map[string]any{
		"type":        "integer",
		"description": description,
	}
	if minimum != nil {
		p["minimum"] = *minimum
	}
	if maximum != nil {
		p["maximum"] = *maximum
	}
	return p
}

// ArrayProperty creates an array property with the given item type.
func ArrayProperty(description string, itemType map[string]any) map[string]any {
	return map[string]any{
		"type":        "array",
		"description": description,
		"items":       itemType,
	}
}

// properties and required split an object schema into the two parts the
// Anthropic tool definition takes.
func properties(schema map[string]any) map[string]any {
	props, _ := schema["properties"].(map[string]any)
	if props == nil {
		props = map[string]any{}
	}
	return props
}

func required(schema map[string]any) []string {
	req, _ := schema["required"].([]string)
	return req
}
