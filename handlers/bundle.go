package handlers

// HandlerBundle groups all endpoint handlers into one struct so route
// registration takes a single argument.
type HandlerBundle struct {
	Slots       *SlotHandler
	Bookings    *BookingHandler
	Specialists *SpecialistHandler
	Services    *ServiceHandler
}
