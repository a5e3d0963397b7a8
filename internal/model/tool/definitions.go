package tool

// ParamType is the JSON type of a tool parameter.
type ParamType string

const (
	TypeString ParamType = "string"
)

// Param describes one argument of a tool.
type Param struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Description string    `json:"description"`
	Enum        []string  `json:"enum,omitempty"`
	Required    bool      `json:"required"`
}

// Definition is the provider-neutral declaration of a model-callable tool.
type Definition struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"params"`
}

// Features accepted by control_car.
var Features = []string{"ac", "sunroof", "doors", "engine"}

// Actions accepted by control_car.
var Actions = []string{"on", "off", "open", "close", "lock", "unlock"}

// Definitions returns the five tools offered to the language model, in a
// stable order.
func Definitions() []Definition {
	return []Definition{
		{
			Name:        Navigate,
			Description: "Set the car's navigation system to a destination.",
			Params: []Param{
				{Name: "destination", Type: TypeString, Description: "The destination name or address.", Required: true},
			},
		},
		{
			Name:        PlayMedia,
			Description: "Play music, a specific artist, or a podcast.",
			Params: []Param{
				{Name: "query", Type: TypeString, Description: "The song, artist, or podcast to play.", Required: true},
			},
		},
		{
			Name:        ControlCar,
			Description: "Control physical car features like AC, sunroof, doors, or engine.",
			Params: []Param{
				{Name: "feature", Type: TypeString, Description: "The feature to control.", Enum: Features, Required: true},
				{Name: "action", Type: TypeString, Description: "The action to perform.", Enum: Actions, Required: true},
			},
		},
		{
			Name:        CallContact,
			Description: "Place a phone call to a contact or a specific number.",
			Params: []Param{
				{Name: "contact", Type: TypeString, Description: "The name of the contact or the phone number.", Required: true},
			},
		},
		{
			Name:        GetVehicleStatus,
			Description: "View the car's health, telemetry, and diagnostic data (tire pressure, battery, efficiency).",
		},
	}
}
