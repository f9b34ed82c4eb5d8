package brevetsync

import (
	"github.com/brm-map/BrevetSync/app/models"
)

// Classification says how an incoming catalog record relates to the store.
type Classification string

const (
	ClassificationNew       Classification = "new"
	ClassificationChanged   Classification = "changed"
	ClassificationUnchanged Classification = "unchanged"
)

// ChangeDecision is the transient per-record diff result. AddressChanged is
// tracked separately from the generic field diff because address changes
// additionally invalidate stored coordinates, while every other change must
// leave coordinates and GPX metadata alone.
type ChangeDecision struct {
	Classification Classification
	ChangedFields  []string
	AddressChanged bool
}

// addressFields are the fields whose change makes existing coordinates stale.
var addressFields = map[string]bool{
	"city":       true,
	"department": true,
	"region":     true,
	"country":    true,
}

// Detect compares an incoming record against its stored counterpart. A nil
// existing record classifies as New; a new record that already carries a city
// needs geocoding from the start.
func Detect(incoming *models.Brevet, existing *models.Brevet) ChangeDecision {
	if existing == nil {
		return ChangeDecision{
			Classification: ClassificationNew,
			AddressChanged: incoming.City != nil && *incoming.City != "",
		}
	}

	var changed []string
	addField := func(name string, differs bool) {
		if differs {
			changed = append(changed, name)
		}
	}

	addField("club_id", !eqStr(incoming.ClubID, existing.ClubID))
	addField("organizer_name", !eqStr(incoming.OrganizerName, existing.OrganizerName))
	addField("organizer_email", !eqStr(incoming.OrganizerEmail, existing.OrganizerEmail))
	addField("distance", !eqInt(incoming.Distance, existing.Distance))
	addField("event_date", !incoming.EventDate.Equal(existing.EventDate))
	addField("elevation", !eqInt(incoming.Elevation, existing.Elevation))
	addField("eligible_r10000", incoming.EligibleR10000 != existing.EligibleR10000)
	addField("city", !eqStr(incoming.City, existing.City))
	addField("department", !eqStr(incoming.Department, existing.Department))
	addField("region", !eqStr(incoming.Region, existing.Region))
	addField("country", !eqStr(incoming.Country, existing.Country))
	addField("homologation_access", incoming.HomologationAccess != existing.HomologationAccess)
	addField("route_link", !eqStr(incoming.RouteLink, existing.RouteLink))
	addField("name", !eqStr(incoming.Name, existing.Name))

	if len(changed) == 0 {
		return ChangeDecision{Classification: ClassificationUnchanged}
	}

	decision := ChangeDecision{
		Classification: ClassificationChanged,
		ChangedFields:  changed,
	}
	for _, field := range changed {
		if addressFields[field] {
			decision.AddressChanged = true
			break
		}
	}
	return decision
}

func eqStr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func eqInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
