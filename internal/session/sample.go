package session

import (
	"strconv"

	"github.com/mealworks/lunch-portal/internal/model"
)

// SampleEvents is the fallback lunch dataset used when the backend is
// unreachable. Dates are pinned relative to the caller-supplied today
// so the calendar always shows upcoming lunches.
func SampleEvents(today model.Date) []model.Event {
	return []model.Event{
		{
			ID:          "1",
			Title:       "Italian Pasta Day",
			Date:        today.AddDays(3),
			Time:        "12:30 PM",
			Location:    "Main Cafeteria",
			Menu:        "Spaghetti Carbonara, Garlic Bread, Tiramisu",
			Capacity:    30,
			Registered:  18,
			Attendees:   []string{"John Doe", "Jane Smith", "Bob Johnson"},
			Description: "Authentic Italian pasta dishes prepared by our guest chef from Milan.",
		},
		{
			ID:          "2",
			Title:       "Taco Tuesday",
			Date:        today.AddDays(5),
			Time:        "12:00 PM",
			Location:    "Main Cafeteria",
			Menu:        "Beef Tacos, Chicken Quesadillas, Churros",
			Capacity:    40,
			Registered:  40,
			Attendees:   []string{"Alice Brown", "Charlie Davis", "Eva Fisher"},
			Description: "Mexican fiesta with a variety of tacos and traditional sides.",
		},
		{
			ID:          "3",
			Title:       "Sushi Experience",
			Date:        today.AddDays(10),
			Time:        "12:15 PM",
			Location:    "Main Cafeteria",
			Menu:        "California Rolls, Nigiri, Miso Soup",
			Capacity:    25,
			Registered:  12,
			Attendees:   []string{"Grace Hill", "Ian Jones", "Kate Lee"},
			Description: "Fresh sushi prepared by our skilled sushi chefs.",
		},
		{
			ID:          "4",
			Title:       "Vegetarian Delight",
			Date:        today.AddDays(12),
			Time:        "12:30 PM",
			Location:    "Main Cafeteria",
			Menu:        "Quinoa Salad, Vegetable Curry, Fruit Parfait",
			Capacity:    35,
			Registered:  20,
			Attendees:   []string{"Mike Nelson", "Olivia Parker", "Quinn Roberts"},
			Description: "Healthy and delicious vegetarian options for everyone.",
		},
		{
			ID:          "5",
			Title:       "BBQ Bonanza",
			Date:        today.AddDays(17),
			Time:        "12:00 PM",
			Location:    "Main Cafeteria",
			Menu:        "Pulled Pork, Beef Brisket, Cornbread",
			Capacity:    50,
			Registered:  35,
			Attendees:   []string{"Sam Turner", "Uma Vincent", "Will Xavier"},
			Description: "Southern-style BBQ with all the fixings.",
		},
	}
}

// sampleRecipients are the regular meal delivery recipients.
var sampleRecipients = []model.Recipient{
	{ID: "1", Name: "Mr. Davis", Address: "215 Center St"},
	{ID: "2", Name: "Ms. Carter", Address: "Rolling Hills Apt 4"},
	{ID: "3", Name: "Dr. Zeke", Address: "505 High St"},
}

// SampleDeliveryDays builds the delivery schedule: two upcoming
// delivery days, each with a lunchtime and an afternoon window per
// recipient.
func SampleDeliveryDays(today model.Date) []model.DeliveryDay {
	windows := []struct{ start, end string }{
		{"12:00", "1:00"},
		{"3:00", "4:00"},
	}

	var days []model.DeliveryDay
	id := 0
	for _, offset := range []int{2, 9} {
		day := model.DeliveryDay{Date: today.AddDays(offset)}
		for _, w := range windows {
			for _, r := range sampleRecipients {
				id++
				day.Slots = append(day.Slots, model.TimeSlot{
					ID:        "slot-" + strconv.Itoa(id),
					StartTime: w.start,
					EndTime:   w.end,
					Recipient: r,
				})
			}
		}
		days = append(days, day)
	}
	return days
}
