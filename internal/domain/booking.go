package domain

import "time"

type Slot struct {
	Start time.Time
	End   time.Time
}

type Attendee struct {
	Name     string
	Email    string
	TimeZone string
}

type BookingRequest struct {
	UserID          string
	CourseType      CourseType
	DurationMinutes int
	Quantity        int
	Start           time.Time
	Attendee        Attendee
	Quote           Quote
}

type Booking struct {
	ID     string
	Status string
	Start  time.Time
	End    time.Time
}
