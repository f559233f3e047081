package generation

// Model describes a selectable generation model.
type Model struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Reasoning   bool   `json:"reasoning"`
}

var catalogue = []Model{
	{ID: "gpt-5", Name: "GPT-5", Description: "Flagship model with the best overall quality", Category: "Recommended"},
	{ID: "gpt-5.1", Name: "GPT-5.1", Description: "Production-ready GPT-5 revision", Category: "Recommended"},
	{ID: "gpt-5-mini", Name: "GPT-5 Mini", Description: "Fast and cost-efficient GPT-5", Category: "Fast"},
	{ID: "o3", Name: "o3", Description: "Deep reasoning", Category: "Reasoning"},
	{ID: "o3-mini", Name: "o3 Mini", Description: "Fast reasoning", Category: "Reasoning"},
	{ID: DefaultModel, Name: "o4-mini", Description: "Fast reasoning, good default for procurement documents", Category: "Recommended"},
	{ID: "gpt-4o", Name: "GPT-4o", Description: "Omni model", Category: "Stable"},
	{ID: "gpt-4o-mini", Name: "GPT-4o Mini", Description: "Fast and affordable GPT-4o", Category: "Fast"},
	{ID: "gpt-4-turbo", Name: "GPT-4 Turbo", Description: "High quality with faster responses", Category: "Stable"},
}

// AvailableModels returns a copy of the model catalogue.
func AvailableModels() []Model {
	out := make([]Model, len(catalogue))
	for i, m := range catalogue {
		m.Reasoning = IsReasoningModel(m.ID)
		out[i] = m
	}
	return out
}

// LookupModel finds a catalogue entry by id.
func LookupModel(id string) (Model, bool) {
	for _, m := range AvailableModels() {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}
