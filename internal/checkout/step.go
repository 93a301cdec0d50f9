package checkout

import "strings"

// Fields holds the submitted form values of one step, keyed by field id.
type Fields map[string]string

// Condition makes Required mandatory when the trimmed value of Field is one
// of OneOf.
type Condition struct {
	Field    string
	OneOf    []string
	Required []string
}

type Step struct {
	Key         string
	Title       string
	Required    []string
	Conditional []Condition
}

// RequiredFields lists the fields that must be filled for the given values,
// unconditional ones first, without duplicates.
func (s Step) RequiredFields(fields Fields) []string {
	seen := make(map[string]struct{}, len(s.Required))
	out := make([]string, 0, len(s.Required))
	add := func(names []string) {
		for _, name := range names {
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}

	add(s.Required)
	for _, cond := range s.Conditional {
		value := strings.TrimSpace(fields[cond.Field])
		for _, want := range cond.OneOf {
			if value == want {
				add(cond.Required)
				break
			}
		}
	}
	return out
}

// MissingFields returns the names in required whose value is empty after
// trimming whitespace, in the order given.
func MissingFields(required []string, fields Fields) []string {
	var missing []string
	for _, name := range required {
		if strings.TrimSpace(fields[name]) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// DefaultSteps is the storefront's three-step checkout: shipping and
// contact details, payment method, review.
func DefaultSteps() []Step {
	return []Step{
		{
			Key:      "shipping",
			Title:    "Dados de entrega",
			Required: []string{"fullName", "email", "phone", "address", "city", "state", "zipCode"},
		},
		{
			Key:      "payment",
			Title:    "Pagamento",
			Required: []string{"paymentMethod"},
			Conditional: []Condition{
				{
					Field:    "paymentMethod",
					OneOf:    []string{"creditCard", "debitCard"},
					Required: []string{"cardNumber", "cardName", "cardExpiry", "cardCvv"},
				},
			},
		},
		{
			Key:   "review",
			Title: "Revisão",
		},
	}
}
