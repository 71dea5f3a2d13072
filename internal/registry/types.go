package registry

// Component is a registry component handle as reported on the wire.
type Component struct {
	Name string `json:"name"`
}

// Interface is a registry interface handle, created without instantiating the
// component itself.
type Interface struct {
	Name string `json:"name"`
}

// Wire bodies shared by client and server.

type listResponse struct {
	Components []Component `json:"components"`
}

type createRequest struct {
	Name string `json:"name"`
}

type createComponentResponse struct {
	Status    Status     `json:"status"`
	Component *Component `json:"component,omitempty"`
}

type createInterfaceResponse struct {
	Status    Status     `json:"status"`
	Interface *Interface `json:"interface,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type pingResponse struct {
	OK bool `json:"ok"`
}
