package domain

// OutputLink ties a declared output to the strip that received it.
type OutputLink struct {
	Name    string `json:"name"`
	StripID string `json:"strip_id"`
}

// Controller is the persisted state of a controller strip: which generator it
// runs, what its inputs are bound to and which strips hold its outputs.
type Controller struct {
	ID        string       `json:"id"`
	Generator string       `json:"generator"`
	Inputs    Bindings     `json:"inputs,omitempty"`
	Outputs   []OutputLink `json:"outputs,omitempty"`
}

// LinkOutput records that output name now lives in stripID, replacing any
// earlier link for the same output.
func (c *Controller) LinkOutput(name, stripID string) {
	for i := range c.Outputs {
		if c.Outputs[i].Name == name {
			c.Outputs[i].StripID = stripID
			return
		}
	}
	c.Outputs = append(c.Outputs, OutputLink{Name: name, StripID: stripID})
}

// OutputStrip returns the strip linked to an output.
func (c *Controller) OutputStrip(name string) (string, bool) {
	for _, l := range c.Outputs {
		if l.Name == name {
			return l.StripID, true
		}
	}
	return "", false
}
