package dto

import (
	"staycal/internal/domain/availability"
	"staycal/internal/domain/shared/daterange"
)

type AvailabilityDay struct {
	Date        string `json:"date"`
	Available   bool   `json:"available"`
	Status      string `json:"status"`
	Reason      string `json:"reason,omitempty"`
	CheckInDay  bool   `json:"check_in_day"`
	CheckOutDay bool   `json:"check_out_day"`
}

func MapDays(days []availability.Day) []AvailabilityDay {
	out := make([]AvailabilityDay, 0, len(days))
	for _, d := range days {
		out = append(out, AvailabilityDay{
			Date:        daterange.FormatDay(d.Date),
			Available:   d.Available,
			Status:      string(d.Status),
			Reason:      d.Reason,
			CheckInDay:  d.CheckInDay,
			CheckOutDay: d.CheckOutDay,
		})
	}
	return out
}

type NightPrice struct {
	Date  string `json:"date"`
	Price string `json:"price"`
}

type Quote struct {
	CheckIn    string       `json:"check_in"`
	CheckOut   string       `json:"check_out"`
	TotalPrice string       `json:"total_price"`
	Currency   string       `json:"currency"`
	Nights     []NightPrice `json:"nights"`
}

func MapQuote(q availability.Quote, currency string) Quote {
	out := Quote{
		CheckIn:    daterange.FormatDay(q.Range.Start),
		CheckOut:   daterange.FormatDay(q.Range.End),
		TotalPrice: q.Total.StringFixed(2),
		Currency:   currency,
		Nights:     make([]NightPrice, 0, len(q.Nights)),
	}
	for _, n := range q.Nights {
		out.Nights = append(out.Nights, NightPrice{Date: daterange.FormatDay(n.Date), Price: n.Price.StringFixed(2)})
	}
	return out
}
