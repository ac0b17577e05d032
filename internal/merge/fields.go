package merge

import (
	"strings"

	"gitlab.com/dirk.krummacker/contacts-globe/internal/model"
)

// resolveFields computes the column values of the surviving contact. A field keeps the winner's
// value unless it is empty, in which case the loser's value is taken. Coordinates are taken as a
// pair. Overrides replace either choice.
func resolveFields(winner, loser *model.Contact, overrides map[string]any) map[string]any {
	values := map[string]any{
		"name":     winner.Name,
		"email":    preferText(winner.Email, loser.Email),
		"phone":    preferText(winner.Phone, loser.Phone),
		"company":  preferText(winner.Company, loser.Company),
		"role":     preferText(winner.Role, loser.Role),
		"city":     preferText(winner.City, loser.City),
		"country":  preferText(winner.Country, loser.Country),
		"address":  preferText(winner.Address, loser.Address),
		"website":  preferText(winner.Website, loser.Website),
		"notes":    preferText(winner.Notes, loser.Notes),
		"birthday": preferText(winner.Birthday, loser.Birthday),
		"lat":      floatValue(winner.Lat),
		"lng":      floatValue(winner.Lng),
	}
	if strings.TrimSpace(winner.Name) == "" {
		values["name"] = loser.Name
	}
	if winner.Lat == nil || winner.Lng == nil {
		values["lat"] = floatValue(loser.Lat)
		values["lng"] = floatValue(loser.Lng)
	}
	for key, value := range overrides {
		values[key] = value
	}
	return values
}

// preferText returns the winner's text unless it is empty, else the loser's. nil stands for
// NULL.
func preferText(winner, loser *string) any {
	if winner != nil && strings.TrimSpace(*winner) != "" {
		return *winner
	}
	if loser == nil {
		return nil
	}
	return *loser
}

func floatValue(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
