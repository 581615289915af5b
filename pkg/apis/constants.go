package apis

const (
	// HTTP Response Fields
	Location = "Location"

	// Self-defined Fields
	Start   = "start"
	Count   = "count"
	Address = "address"
)
