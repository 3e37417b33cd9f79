package bookings

type MarkPaidResponse struct {
	OK         bool   `json:"ok"`
	Already    bool   `json:"already,omitempty"`
	PaymentRef string `json:"paymentRef,omitempty"`
}

// BookingResponse adds the rendered payment tag to a booking.
type BookingResponse struct {
	*Booking
	PaymentRef string `json:"payment_ref"`
}
