package model

// UnknownDeviceName is the display fallback for triggers whose device id no
// longer resolves against the registry.
const UnknownDeviceName = "Desconocido"

// Device is a read-only registry entry for a controllable appliance. The
// registry is owned by storage; schedules only reference devices by id.
type Device struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Type   string            `json:"type,omitempty"`
	Status string            `json:"status,omitempty"`
	Specs  map[string]string `json:"specs,omitempty"`
}

func FindDevice(devices []Device, id string) (Device, bool) {
	for _, d := range devices {
		if d.ID == id {
			return d, true
		}
	}
	return Device{}, false
}

func DeviceName(devices []Device, id string) string {
	if d, ok := FindDevice(devices, id); ok && d.Name != "" {
		return d.Name
	}
	return UnknownDeviceName
}
